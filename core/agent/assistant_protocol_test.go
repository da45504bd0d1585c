package agent

import (
	"context"
	"strings"
	"testing"

	"assistant_server/core/agent/tools"
)

type fakeModel struct {
	calls      int
	lastPrompt string
	responses  []fakeModelResponse
}

type fakeModelResponse struct {
	text      string
	toolCalls []tools.ToolCall
	err       error
}

func (f *fakeModel) CompleteWithTools(_ context.Context, _, userPrompt string, _ []tools.ToolDefinition) (string, []tools.ToolCall, error) {
	f.lastPrompt = userPrompt
	if f.calls >= len(f.responses) {
		return "", nil, nil
	}
	r := f.responses[f.calls]
	f.calls++
	return r.text, r.toolCalls, r.err
}

func sendEmailCall() tools.ToolCall {
	return tools.ToolCall{
		ID:   "call_1",
		Name: tools.ToolSendEmail,
		Args: map[string]any{"to": []any{"ana@x.com"}, "subject": "Hola", "body": "llego tarde"},
	}
}

func TestInvokeToolOnFirstAttempt(t *testing.T) {
	model := &fakeModel{responses: []fakeModelResponse{
		{toolCalls: []tools.ToolCall{sendEmailCall()}},
	}}
	engine := NewProtocolEngine(model)

	outcome, err := engine.Invoke(context.Background(), "Envía un correo a ana@x.com", tools.ForIntent(tools.CategoryMail))
	if err != nil {
		t.Fatalf("Invoke returned error: %v", err)
	}
	if !outcome.UsedTool {
		t.Fatal("expected tool to be used")
	}
	if outcome.ToolName != tools.ToolSendEmail {
		t.Errorf("tool name = %q, want %q", outcome.ToolName, tools.ToolSendEmail)
	}
	if outcome.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", outcome.Attempts)
	}
	if model.calls != 1 {
		t.Errorf("model calls = %d, want 1", model.calls)
	}
}

func TestInvokeReinforcesWhenModelAnswersInProse(t *testing.T) {
	model := &fakeModel{responses: []fakeModelResponse{
		{text: "Claro, puedo ayudarte con eso."},
		{toolCalls: []tools.ToolCall{sendEmailCall()}},
	}}
	engine := NewProtocolEngine(model)

	outcome, err := engine.Invoke(context.Background(),
		"Envía un correo a ana@x.com con asunto 'Hola'", tools.ForIntent(tools.CategoryMail))
	if err != nil {
		t.Fatalf("Invoke returned error: %v", err)
	}
	if !outcome.UsedTool {
		t.Fatal("expected tool to be used on second attempt")
	}
	if outcome.Attempts != 2 {
		t.Errorf("attempts = %d, want 2", outcome.Attempts)
	}
	if model.calls != 2 {
		t.Errorf("model calls = %d, want 2", model.calls)
	}
	if !strings.Contains(model.lastPrompt, "ana@x.com") {
		t.Errorf("reinforced prompt missing extracted address: %q", model.lastPrompt)
	}
	if !strings.Contains(model.lastPrompt, "Hola") {
		t.Errorf("reinforced prompt missing extracted subject: %q", model.lastPrompt)
	}
}

func TestInvokeGivesUpAfterSecondRefusal(t *testing.T) {
	model := &fakeModel{responses: []fakeModelResponse{
		{text: "No estoy seguro de qué hacer."},
		{text: "Tampoco ahora."},
	}}
	engine := NewProtocolEngine(model)

	outcome, err := engine.Invoke(context.Background(), "haz algo", tools.ForIntent(tools.CategoryMail))
	if err != nil {
		t.Fatalf("Invoke returned error: %v", err)
	}
	if outcome.UsedTool {
		t.Fatal("expected no tool use")
	}
	if model.calls != 2 {
		t.Errorf("model calls = %d, want exactly 2", model.calls)
	}
	if outcome.ModelText != "Tampoco ahora." {
		t.Errorf("model text = %q, want last response", outcome.ModelText)
	}
}
