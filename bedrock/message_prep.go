// Copyright (c) Microsoft. All rights reserved.

package bedrock

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/microsoft/agentkit/agentkit"
)

// buildConverseInput converts framework messages and options into a
// Converse request. System messages become system content blocks; tool
// results ride on user-role messages, as the Converse API requires.
func buildConverseInput(messages []agentkit.Message, opts *agentkit.ChatOptions, defaultModel string) (*bedrockruntime.ConverseInput, error) {
	model := defaultModel
	if opts != nil && opts.ModelID != "" {
		model = opts.ModelID
	}
	if model == "" {
		return nil, fmt.Errorf("%w: no model configured", agentkit.ErrInvalidRequest)
	}

	input := &bedrockruntime.ConverseInput{
		ModelId: aws.String(model),
	}

	for _, m := range messages {
		if m.Role == agentkit.RoleSystem {
			input.System = append(input.System,
				&types.SystemContentBlockMemberText{Value: m.Text()})
			continue
		}
		msg, err := toConverseMessage(m)
		if err != nil {
			return nil, err
		}
		if msg != nil {
			input.Messages = append(input.Messages, *msg)
		}
	}

	if opts != nil {
		input.InferenceConfig = toInferenceConfig(opts)
		if len(opts.Tools) > 0 && opts.ToolChoice != agentkit.ToolChoiceNone {
			cfg, err := toToolConfig(opts.Tools, opts.ToolChoice)
			if err != nil {
				return nil, err
			}
			input.ToolConfig = cfg
		}
	}

	return input, nil
}

func toInferenceConfig(opts *agentkit.ChatOptions) *types.InferenceConfiguration {
	if opts.Temperature == nil && opts.TopP == nil && opts.MaxTokens == nil && len(opts.Stop) == 0 {
		return nil
	}
	cfg := &types.InferenceConfiguration{}
	if opts.Temperature != nil {
		cfg.Temperature = aws.Float32(float32(*opts.Temperature))
	}
	if opts.TopP != nil {
		cfg.TopP = aws.Float32(float32(*opts.TopP))
	}
	if opts.MaxTokens != nil {
		cfg.MaxTokens = aws.Int32(int32(*opts.MaxTokens))
	}
	if len(opts.Stop) > 0 {
		cfg.StopSequences = opts.Stop
	}
	return cfg
}

func toConverseMessage(m agentkit.Message) (*types.Message, error) {
	msg := &types.Message{}
	switch m.Role {
	case agentkit.RoleAssistant:
		msg.Role = types.ConversationRoleAssistant
	case agentkit.RoleUser, agentkit.RoleTool:
		// Tool results travel on user-role messages.
		msg.Role = types.ConversationRoleUser
	default:
		return nil, nil
	}

	for _, c := range m.Contents {
		block, err := toContentBlock(c)
		if err != nil {
			return nil, err
		}
		if block != nil {
			msg.Content = append(msg.Content, block)
		}
	}
	if len(msg.Content) == 0 {
		return nil, nil
	}
	return msg, nil
}

func toContentBlock(c agentkit.Content) (types.ContentBlock, error) {
	switch v := c.(type) {
	case *agentkit.TextContent:
		return &types.ContentBlockMemberText{Value: v.Text}, nil

	case *agentkit.DataContent:
		img, err := toImageBlock(v)
		if err != nil {
			return nil, err
		}
		return &types.ContentBlockMemberImage{Value: *img}, nil

	case *agentkit.FunctionCallContent:
		args := map[string]any{}
		if v.Arguments != "" {
			if err := json.Unmarshal([]byte(v.Arguments), &args); err != nil {
				return nil, fmt.Errorf("%w: tool call arguments: %v", agentkit.ErrInvalidRequest, err)
			}
		}
		return &types.ContentBlockMemberToolUse{Value: types.ToolUseBlock{
			ToolUseId: aws.String(v.CallID),
			Name:      aws.String(v.Name),
			Input:     document.NewLazyDocument(args),
		}}, nil

	case *agentkit.FunctionResultContent:
		return &types.ContentBlockMemberToolResult{Value: types.ToolResultBlock{
			ToolUseId: aws.String(v.CallID),
			Content: []types.ToolResultContentBlock{
				&types.ToolResultContentBlockMemberText{Value: resultText(v.Result)},
			},
		}}, nil

	default:
		// Content kinds the Converse API has no representation for are
		// dropped rather than failing the whole request.
		return nil, nil
	}
}

func resultText(result any) string {
	switch v := result.(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}

// toImageBlock decodes a base64 data URI into a Converse image block.
func toImageBlock(c *agentkit.DataContent) (*types.ImageBlock, error) {
	payload, ok := strings.CutPrefix(c.URI, "data:")
	if !ok {
		return nil, fmt.Errorf("%w: image content requires a data URI", agentkit.ErrInvalidRequest)
	}
	meta, data, ok := strings.Cut(payload, ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("%w: image content requires a base64 data URI", agentkit.ErrInvalidRequest)
	}

	mediaType := c.MediaType
	if mediaType == "" {
		mediaType = strings.TrimSuffix(meta, ";base64")
	}
	format, err := imageFormat(mediaType)
	if err != nil {
		return nil, err
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("%w: decode image data: %v", agentkit.ErrInvalidRequest, err)
	}

	return &types.ImageBlock{
		Format: format,
		Source: &types.ImageSourceMemberBytes{Value: raw},
	}, nil
}

func imageFormat(mediaType string) (types.ImageFormat, error) {
	switch mediaType {
	case "image/png":
		return types.ImageFormatPng, nil
	case "image/jpeg", "image/jpg":
		return types.ImageFormatJpeg, nil
	case "image/gif":
		return types.ImageFormatGif, nil
	case "image/webp":
		return types.ImageFormatWebp, nil
	default:
		return "", fmt.Errorf("%w: unsupported image media type %q", agentkit.ErrInvalidRequest, mediaType)
	}
}

func toToolConfig(tools []agentkit.Tool, choice agentkit.ToolChoice) (*types.ToolConfiguration, error) {
	cfg := &types.ToolConfiguration{}
	for _, t := range tools {
		schema := map[string]any{"type": "object"}
		if params := t.Parameters(); len(params) > 0 {
			if err := json.Unmarshal(params, &schema); err != nil {
				return nil, fmt.Errorf("%w: tool %q schema: %v", agentkit.ErrInvalidRequest, t.Name(), err)
			}
		}
		cfg.Tools = append(cfg.Tools, &types.ToolMemberToolSpec{
			Value: types.ToolSpecification{
				Name:        aws.String(t.Name()),
				Description: aws.String(t.Description()),
				InputSchema: &types.ToolInputSchemaMemberJson{
					Value: document.NewLazyDocument(schema),
				},
			},
		})
	}

	switch {
	case choice == agentkit.ToolChoiceRequired:
		cfg.ToolChoice = &types.ToolChoiceMemberAny{}
	case strings.HasPrefix(string(choice), "function:"):
		name := strings.TrimPrefix(string(choice), "function:")
		cfg.ToolChoice = &types.ToolChoiceMemberTool{
			Value: types.SpecificToolChoice{Name: aws.String(name)},
		}
	case choice == agentkit.ToolChoiceAuto || choice == "":
		cfg.ToolChoice = &types.ToolChoiceMemberAuto{}
	}

	return cfg, nil
}
