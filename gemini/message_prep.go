// Copyright (c) Microsoft. All rights reserved.

package gemini

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/microsoft/agentkit/agentkit"
)

// buildGenerateRequest converts framework messages and options into the
// Gen AI SDK request shape. System messages become the system instruction
// on the config rather than transcript contents.
func buildGenerateRequest(messages []agentkit.Message, opts *agentkit.ChatOptions, clientModel string) (string, []*genai.Content, *genai.GenerateContentConfig, error) {
	model := clientModel
	cfg := &genai.GenerateContentConfig{}

	if opts != nil {
		if opts.ModelID != "" {
			model = opts.ModelID
		}
		if opts.Temperature != nil {
			cfg.Temperature = genai.Ptr(float32(*opts.Temperature))
		}
		if opts.TopP != nil {
			cfg.TopP = genai.Ptr(float32(*opts.TopP))
		}
		if opts.MaxTokens != nil {
			cfg.MaxOutputTokens = int32(*opts.MaxTokens)
		}
		if opts.Seed != nil {
			cfg.Seed = genai.Ptr(int32(*opts.Seed))
		}
		if opts.FrequencyPenalty != nil {
			cfg.FrequencyPenalty = genai.Ptr(float32(*opts.FrequencyPenalty))
		}
		if opts.PresencePenalty != nil {
			cfg.PresencePenalty = genai.Ptr(float32(*opts.PresencePenalty))
		}
		if len(opts.Stop) > 0 {
			cfg.StopSequences = opts.Stop
		}
		if len(opts.Tools) > 0 {
			tools, err := toGenAITools(opts.Tools)
			if err != nil {
				return "", nil, nil, err
			}
			cfg.Tools = tools
			cfg.ToolConfig = toToolConfig(opts.ToolChoice)
		}
	}

	contents, system, err := buildContents(messages)
	if err != nil {
		return "", nil, nil, err
	}
	if system != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		}
	}

	return model, contents, cfg, nil
}

// buildContents converts the transcript into Gen AI contents, extracting
// system text. Tool-result messages are matched back to the call that
// produced them so the function name the API requires can be filled in.
func buildContents(messages []agentkit.Message) ([]*genai.Content, string, error) {
	var system strings.Builder
	callNames := make(map[string]string)
	contents := make([]*genai.Content, 0, len(messages))

	for _, m := range messages {
		if m.Role == agentkit.RoleSystem {
			if system.Len() > 0 {
				system.WriteString("\n")
			}
			system.WriteString(m.Text())
			continue
		}

		role := string(genai.RoleUser)
		if m.Role == agentkit.RoleAssistant {
			role = string(genai.RoleModel)
		}

		var parts []*genai.Part
		for _, c := range m.Contents {
			part, err := toPart(c, callNames)
			if err != nil {
				return nil, "", err
			}
			if part != nil {
				parts = append(parts, part)
			}
		}
		if len(parts) == 0 {
			continue
		}
		contents = append(contents, &genai.Content{Role: role, Parts: parts})
	}

	return contents, system.String(), nil
}

func toPart(c agentkit.Content, callNames map[string]string) (*genai.Part, error) {
	switch v := c.(type) {
	case *agentkit.TextContent:
		return &genai.Part{Text: v.Text}, nil

	case *agentkit.DataContent:
		blob, err := toBlob(v)
		if err != nil {
			return nil, err
		}
		return &genai.Part{InlineData: blob}, nil

	case *agentkit.URIContent:
		return &genai.Part{FileData: &genai.FileData{
			FileURI:  v.URI,
			MIMEType: v.MediaType,
		}}, nil

	case *agentkit.FunctionCallContent:
		args := map[string]any{}
		if v.Arguments != "" {
			if err := json.Unmarshal([]byte(v.Arguments), &args); err != nil {
				return nil, fmt.Errorf("%w: tool call arguments: %v", agentkit.ErrInvalidRequest, err)
			}
		}
		callNames[v.CallID] = v.Name
		return &genai.Part{FunctionCall: &genai.FunctionCall{
			ID:   v.CallID,
			Name: v.Name,
			Args: args,
		}}, nil

	case *agentkit.FunctionResultContent:
		return &genai.Part{FunctionResponse: &genai.FunctionResponse{
			ID:       v.CallID,
			Name:     callNames[v.CallID],
			Response: resultMap(v.Result),
		}}, nil

	default:
		return nil, nil
	}
}

// resultMap coerces a tool result into the map shape FunctionResponse needs.
func resultMap(result any) map[string]any {
	switch v := result.(type) {
	case map[string]any:
		return v
	case nil:
		return map[string]any{}
	default:
		data, err := json.Marshal(v)
		if err == nil {
			var m map[string]any
			if json.Unmarshal(data, &m) == nil {
				return m
			}
		}
		return map[string]any{"output": fmt.Sprintf("%v", v)}
	}
}

// toBlob decodes a base64 data URI into an inline blob.
func toBlob(c *agentkit.DataContent) (*genai.Blob, error) {
	payload, ok := strings.CutPrefix(c.URI, "data:")
	if !ok {
		return nil, fmt.Errorf("%w: inline data requires a data URI", agentkit.ErrInvalidRequest)
	}
	meta, data, ok := strings.Cut(payload, ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("%w: inline data requires a base64 data URI", agentkit.ErrInvalidRequest)
	}

	mediaType := c.MediaType
	if mediaType == "" {
		mediaType = strings.TrimSuffix(meta, ";base64")
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("%w: decode inline data: %v", agentkit.ErrInvalidRequest, err)
	}
	return &genai.Blob{MIMEType: mediaType, Data: raw}, nil
}

func toGenAITools(tools []agentkit.Tool) ([]*genai.Tool, error) {
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		decl := &genai.FunctionDeclaration{
			Name:        t.Name(),
			Description: t.Description(),
		}
		if params := t.Parameters(); len(params) > 0 {
			var schema genai.Schema
			if err := json.Unmarshal(params, &schema); err != nil {
				return nil, fmt.Errorf("%w: tool %q schema: %v", agentkit.ErrInvalidRequest, t.Name(), err)
			}
			decl.Parameters = &schema
		}
		decls = append(decls, decl)
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}, nil
}

func toToolConfig(choice agentkit.ToolChoice) *genai.ToolConfig {
	fc := &genai.FunctionCallingConfig{}
	switch {
	case choice == agentkit.ToolChoiceRequired:
		fc.Mode = genai.FunctionCallingConfigModeAny
	case choice == agentkit.ToolChoiceNone:
		fc.Mode = genai.FunctionCallingConfigModeNone
	case strings.HasPrefix(string(choice), "function:"):
		fc.Mode = genai.FunctionCallingConfigModeAny
		fc.AllowedFunctionNames = []string{strings.TrimPrefix(string(choice), "function:")}
	default:
		fc.Mode = genai.FunctionCallingConfigModeAuto
	}
	return &genai.ToolConfig{FunctionCallingConfig: fc}
}
