// Copyright (c) Microsoft. All rights reserved.

package bedrock

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/aws/smithy-go"

	"github.com/microsoft/agentkit/agentkit"
)

// parseConverseOutput converts a Converse response into framework types.
func parseConverseOutput(output *bedrockruntime.ConverseOutput) (*agentkit.ChatResponse, error) {
	resp := &agentkit.ChatResponse{
		FinishReason: toFinishReason(output.StopReason),
		Raw:          output,
	}
	if output.Usage != nil {
		resp.Usage = toUsage(output.Usage)
	}

	var contents agentkit.Contents
	if outMsg, ok := output.Output.(*types.ConverseOutputMemberMessage); ok {
		for _, block := range outMsg.Value.Content {
			if c := fromContentBlock(block); c != nil {
				contents = append(contents, c)
			}
		}
	}

	if len(contents) == 0 && resp.FinishReason == agentkit.FinishReasonContentFilter {
		return nil, &agentkit.ServiceError{
			Message: "response blocked by guardrail",
			Code:    string(output.StopReason),
			Err:     agentkit.ErrContentFilter,
		}
	}

	resp.Messages = []agentkit.Message{{
		Role:     agentkit.RoleAssistant,
		Contents: contents,
	}}
	return resp, nil
}

func fromContentBlock(block types.ContentBlock) agentkit.Content {
	switch b := block.(type) {
	case *types.ContentBlockMemberText:
		return &agentkit.TextContent{Text: b.Value}
	case *types.ContentBlockMemberToolUse:
		return &agentkit.FunctionCallContent{
			CallID:    aws.ToString(b.Value.ToolUseId),
			Name:      aws.ToString(b.Value.Name),
			Arguments: string(documentJSON(b.Value.Input)),
		}
	case *types.ContentBlockMemberReasoningContent:
		if rt, ok := b.Value.(*types.ReasoningContentBlockMemberReasoningText); ok {
			return &agentkit.TextReasoningContent{Text: aws.ToString(rt.Value.Text)}
		}
		return nil
	default:
		return nil
	}
}

// documentJSON renders a smithy document as JSON, falling back to an
// empty object when the document cannot be decoded.
func documentJSON(doc document.Interface) json.RawMessage {
	if doc == nil {
		return json.RawMessage("{}")
	}
	var v any
	if err := doc.UnmarshalSmithyDocument(&v); err != nil {
		return json.RawMessage("{}")
	}
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("{}")
	}
	return data
}

func toFinishReason(reason types.StopReason) agentkit.FinishReason {
	switch reason {
	case types.StopReasonEndTurn, types.StopReasonStopSequence:
		return agentkit.FinishReasonStop
	case types.StopReasonMaxTokens:
		return agentkit.FinishReasonLength
	case types.StopReasonToolUse:
		return agentkit.FinishReasonToolCalls
	case types.StopReasonGuardrailIntervened, types.StopReasonContentFiltered:
		return agentkit.FinishReasonContentFilter
	default:
		return ""
	}
}

func toUsage(u *types.TokenUsage) agentkit.UsageDetails {
	usage := agentkit.UsageDetails{
		InputTokens:  int(aws.ToInt32(u.InputTokens)),
		OutputTokens: int(aws.ToInt32(u.OutputTokens)),
		TotalTokens:  int(aws.ToInt32(u.TotalTokens)),
	}
	if usage.TotalTokens == 0 {
		usage.TotalTokens = usage.InputTokens + usage.OutputTokens
	}
	return usage
}

// updateFromStreamEvent converts one ConverseStream event into a response
// update. Events with nothing to surface (content block stops, message
// starts) return nil.
func updateFromStreamEvent(evt types.ConverseStreamOutput) *agentkit.ChatResponseUpdate {
	switch e := evt.(type) {
	case *types.ConverseStreamOutputMemberContentBlockStart:
		if start, ok := e.Value.Start.(*types.ContentBlockStartMemberToolUse); ok {
			return &agentkit.ChatResponseUpdate{
				Role: agentkit.RoleAssistant,
				Contents: agentkit.Contents{&agentkit.FunctionCallContent{
					CallID: aws.ToString(start.Value.ToolUseId),
					Name:   aws.ToString(start.Value.Name),
				}},
			}
		}
		return nil

	case *types.ConverseStreamOutputMemberContentBlockDelta:
		switch d := e.Value.Delta.(type) {
		case *types.ContentBlockDeltaMemberText:
			return &agentkit.ChatResponseUpdate{
				Role:     agentkit.RoleAssistant,
				Contents: agentkit.Contents{&agentkit.TextContent{Text: d.Value}},
			}
		case *types.ContentBlockDeltaMemberToolUse:
			return &agentkit.ChatResponseUpdate{
				Role: agentkit.RoleAssistant,
				Contents: agentkit.Contents{&agentkit.FunctionCallContent{
					Arguments: aws.ToString(d.Value.Input),
				}},
			}
		case *types.ContentBlockDeltaMemberReasoningContent:
			if rt, ok := d.Value.(*types.ReasoningContentBlockDeltaMemberText); ok {
				return &agentkit.ChatResponseUpdate{
					Role:     agentkit.RoleAssistant,
					Contents: agentkit.Contents{&agentkit.TextReasoningContent{Text: rt.Value}},
				}
			}
			return nil
		default:
			return nil
		}

	case *types.ConverseStreamOutputMemberMessageStop:
		return &agentkit.ChatResponseUpdate{
			Role:         agentkit.RoleAssistant,
			FinishReason: toFinishReason(e.Value.StopReason),
		}

	case *types.ConverseStreamOutputMemberMetadata:
		if e.Value.Usage == nil {
			return nil
		}
		return &agentkit.ChatResponseUpdate{
			Role:  agentkit.RoleAssistant,
			Usage: toUsage(e.Value.Usage),
		}

	default:
		return nil
	}
}

// mapAPIError converts AWS SDK failures into the framework error taxonomy.
func mapAPIError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %v", agentkit.ErrService, err)
	}

	svcErr := &agentkit.ServiceError{
		Message: apiErr.ErrorMessage(),
		Code:    apiErr.ErrorCode(),
	}
	switch apiErr.ErrorCode() {
	case "AccessDeniedException", "UnrecognizedClientException", "ExpiredTokenException":
		svcErr.Err = agentkit.ErrAuth
	case "ValidationException":
		svcErr.Err = agentkit.ErrInvalidRequest
	default:
		svcErr.Err = agentkit.ErrService
	}
	return svcErr
}
