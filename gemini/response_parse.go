// Copyright (c) Microsoft. All rights reserved.

package gemini

import (
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/microsoft/agentkit/agentkit"
)

// parseGenerateResponse converts a complete generate response into
// framework types. Safety blocks surface as [agentkit.ErrContentFilter].
func parseGenerateResponse(resp *genai.GenerateContentResponse) (*agentkit.ChatResponse, error) {
	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return nil, &agentkit.ServiceError{
				Message: "prompt blocked: " + resp.PromptFeedback.BlockReasonMessage,
				Code:    string(resp.PromptFeedback.BlockReason),
				Err:     agentkit.ErrContentFilter,
			}
		}
		return nil, fmt.Errorf("%w: response has no candidates", agentkit.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	finish := toFinishReason(candidate.FinishReason)
	contents := fromParts(candidate.Content)

	if len(contents) == 0 && finish == agentkit.FinishReasonContentFilter {
		return nil, &agentkit.ServiceError{
			Message: "response blocked by safety filter",
			Code:    string(candidate.FinishReason),
			Err:     agentkit.ErrContentFilter,
		}
	}

	return &agentkit.ChatResponse{
		Messages: []agentkit.Message{{
			Role:     agentkit.RoleAssistant,
			Contents: contents,
		}},
		ResponseID:   resp.ResponseID,
		ModelID:      resp.ModelVersion,
		FinishReason: finish,
		Usage:        toUsage(resp.UsageMetadata),
		Raw:          resp,
	}, nil
}

// updateFromResponse converts one streamed chunk into a response update.
// Chunks carrying neither content nor metadata return nil.
func updateFromResponse(resp *genai.GenerateContentResponse) *agentkit.ChatResponseUpdate {
	update := &agentkit.ChatResponseUpdate{
		Role:       agentkit.RoleAssistant,
		ResponseID: resp.ResponseID,
		ModelID:    resp.ModelVersion,
		Usage:      toUsage(resp.UsageMetadata),
		Raw:        resp,
	}
	if len(resp.Candidates) > 0 {
		candidate := resp.Candidates[0]
		update.Contents = fromParts(candidate.Content)
		update.FinishReason = toFinishReason(candidate.FinishReason)
	}
	if len(update.Contents) == 0 && update.FinishReason == "" && update.Usage.TotalTokens == 0 {
		return nil
	}
	return update
}

func fromParts(content *genai.Content) agentkit.Contents {
	if content == nil {
		return nil
	}
	var contents agentkit.Contents
	for _, part := range content.Parts {
		switch {
		case part.FunctionCall != nil:
			args, err := json.Marshal(part.FunctionCall.Args)
			if err != nil {
				args = []byte("{}")
			}
			contents = append(contents, &agentkit.FunctionCallContent{
				CallID:    part.FunctionCall.ID,
				Name:      part.FunctionCall.Name,
				Arguments: string(args),
			})
		case part.Text != "":
			if part.Thought {
				contents = append(contents, &agentkit.TextReasoningContent{Text: part.Text})
			} else {
				contents = append(contents, &agentkit.TextContent{Text: part.Text})
			}
		}
	}
	return contents
}

func toFinishReason(reason genai.FinishReason) agentkit.FinishReason {
	switch reason {
	case genai.FinishReasonStop:
		return agentkit.FinishReasonStop
	case genai.FinishReasonMaxTokens:
		return agentkit.FinishReasonLength
	case genai.FinishReasonSafety, genai.FinishReasonProhibitedContent,
		genai.FinishReasonBlocklist, genai.FinishReasonSPII:
		return agentkit.FinishReasonContentFilter
	default:
		return ""
	}
}

func toUsage(meta *genai.GenerateContentResponseUsageMetadata) agentkit.UsageDetails {
	if meta == nil {
		return agentkit.UsageDetails{}
	}
	return agentkit.UsageDetails{
		InputTokens:  int(meta.PromptTokenCount),
		OutputTokens: int(meta.CandidatesTokenCount),
		TotalTokens:  int(meta.TotalTokenCount),
	}
}

// mapGenAIError converts SDK failures into the framework error taxonomy.
func mapGenAIError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %v", agentkit.ErrService, err)
	}

	svcErr := &agentkit.ServiceError{
		StatusCode: apiErr.Code,
		Message:    apiErr.Message,
		Code:       apiErr.Status,
	}
	switch apiErr.Code {
	case 401, 403:
		svcErr.Err = agentkit.ErrAuth
	case 400:
		svcErr.Err = agentkit.ErrInvalidRequest
	default:
		svcErr.Err = agentkit.ErrService
	}
	return svcErr
}
