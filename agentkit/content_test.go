// Copyright (c) Microsoft. All rights reserved.

package agentkit_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/microsoft/agentkit/agentkit"
)

func TestContentJSON_RoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		content agentkit.Content
	}{
		{"text", &agentkit.TextContent{Text: "hello"}},
		{"reasoning", &agentkit.TextReasoningContent{Text: "thinking..."}},
		{"data", &agentkit.DataContent{URI: "data:image/png;base64,iVBORw0=", MediaType: "image/png"}},
		{"uri", &agentkit.URIContent{URI: "https://example.com/doc.pdf", MediaType: "application/pdf"}},
		{"error", &agentkit.ErrorContent{Message: "boom", ErrorCode: "E42"}},
		{"functionCall", &agentkit.FunctionCallContent{CallID: "c1", Name: "get_weather", Arguments: `{"city":"Oslo"}`}},
		{"functionResult", &agentkit.FunctionResultContent{CallID: "c1", Result: "sunny"}},
		{"usage", &agentkit.UsageContent{Usage: agentkit.UsageDetails{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}}},
		{"functionApprovalRequest", &agentkit.ApprovalRequestContent{CallID: "c1", Name: "delete_file", Arguments: `{"path":"/tmp/x"}`}},
		{"functionApprovalResponse", &agentkit.ApprovalResponseContent{CallID: "c1", Approved: true, Reason: "confirmed"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := agentkit.MarshalContentJSON(tt.content)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}

			// Envelope carries the $type discriminator.
			var env map[string]any
			if err := json.Unmarshal(data, &env); err != nil {
				t.Fatalf("unmarshal envelope: %v", err)
			}
			if env["$type"] != tt.name {
				t.Errorf("$type = %v, want %q", env["$type"], tt.name)
			}

			restored, err := agentkit.UnmarshalContentJSON(data)
			if err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if restored.Type() != tt.content.Type() {
				t.Errorf("restored type = %q, want %q", restored.Type(), tt.content.Type())
			}
		})
	}
}

func TestContentJSON_TextFidelity(t *testing.T) {
	data, err := agentkit.MarshalContentJSON(&agentkit.TextContent{Text: "exact text"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	restored, err := agentkit.UnmarshalContentJSON(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	tc, ok := restored.(*agentkit.TextContent)
	if !ok {
		t.Fatalf("restored = %T", restored)
	}
	if tc.Text != "exact text" {
		t.Errorf("text = %q", tc.Text)
	}
}

func TestContentJSON_FunctionCallFidelity(t *testing.T) {
	orig := &agentkit.FunctionCallContent{CallID: "call-9", Name: "add", Arguments: `{"a":1,"b":2}`}
	data, err := agentkit.MarshalContentJSON(orig)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	restored, err := agentkit.UnmarshalContentJSON(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	fc, ok := restored.(*agentkit.FunctionCallContent)
	if !ok {
		t.Fatalf("restored = %T", restored)
	}
	if fc.CallID != "call-9" || fc.Name != "add" || fc.Arguments != `{"a":1,"b":2}` {
		t.Errorf("restored = %+v", fc)
	}
}

func TestContents_MarshalSlice(t *testing.T) {
	contents := agentkit.Contents{
		&agentkit.TextContent{Text: "first"},
		&agentkit.FunctionCallContent{CallID: "c1", Name: "fn", Arguments: `{}`},
	}

	data, err := json.Marshal(contents)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"$type":"text"`) ||
		!strings.Contains(string(data), `"$type":"functionCall"`) {
		t.Errorf("serialized = %s", data)
	}

	var restored agentkit.Contents
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(restored) != 2 {
		t.Fatalf("restored %d items, want 2", len(restored))
	}
	if _, ok := restored[0].(*agentkit.TextContent); !ok {
		t.Errorf("restored[0] = %T", restored[0])
	}
	if _, ok := restored[1].(*agentkit.FunctionCallContent); !ok {
		t.Errorf("restored[1] = %T", restored[1])
	}
}

func TestContentJSON_UnknownType(t *testing.T) {
	_, err := agentkit.UnmarshalContentJSON([]byte(`{"$type":"hologram"}`))
	if err == nil {
		t.Fatal("expected error for unknown $type")
	}
	if !strings.Contains(err.Error(), "hologram") {
		t.Errorf("error should name the unknown type: %v", err)
	}
}

func TestMessage_JSONRoundTrip(t *testing.T) {
	msg := agentkit.Message{
		Role: agentkit.RoleAssistant,
		Contents: agentkit.Contents{
			&agentkit.TextContent{Text: "answer"},
			&agentkit.FunctionResultContent{CallID: "c2", Result: float64(7)},
		},
		MessageID: "m-1",
	}

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var restored agentkit.Message
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if restored.Role != agentkit.RoleAssistant || restored.MessageID != "m-1" {
		t.Errorf("restored = %+v", restored)
	}
	if restored.Text() != "answer" {
		t.Errorf("text = %q", restored.Text())
	}
}
