package action

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"assistant_server/core/agent"
	"assistant_server/core/agent/tools"
	"assistant_server/core/domain"
	"assistant_server/pkg/apperr"
)

type fakeEngine struct {
	outcome *agent.ToolInvocationOutcome
	err     error
	calls   int
}

func (f *fakeEngine) Invoke(_ context.Context, _ string, _ []tools.ToolDefinition) (*agent.ToolInvocationOutcome, error) {
	f.calls++
	return f.outcome, f.err
}

type fakeChat struct {
	reply      string
	calls      int
	lastPrompt string
}

func (f *fakeChat) CompleteWithSystem(_ context.Context, _, userPrompt string) (string, error) {
	f.calls++
	f.lastPrompt = userPrompt
	return f.reply, nil
}

type fakeMail struct {
	sends   int
	last    *domain.EmailParams
	sendErr error
}

func (f *fakeMail) Send(_ context.Context, _ *oauth2.Token, params *domain.EmailParams) (*domain.DispatchResult, error) {
	f.sends++
	f.last = params
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return &domain.DispatchResult{ExternalID: "m1", SentAt: time.Now()}, nil
}

func (f *fakeMail) ListRecent(_ context.Context, _ *oauth2.Token, _ int) ([]domain.MailSummary, error) {
	return nil, nil
}

type fakeEvents struct {
	creates int
	last    *domain.EventParams
}

func (f *fakeEvents) Create(_ context.Context, _ *oauth2.Token, params *domain.EventParams) (*domain.DispatchResult, error) {
	f.creates++
	f.last = params
	return &domain.DispatchResult{ExternalID: "e1", SentAt: time.Now()}, nil
}

func (f *fakeEvents) ListUpcoming(_ context.Context, _ *oauth2.Token, _ int) ([]domain.EventSummary, error) {
	return nil, nil
}

type fakeConversations struct {
	messages map[string][]domain.Message
}

func (f *fakeConversations) Append(_ context.Context, userKey string, msg domain.Message) error {
	if f.messages == nil {
		f.messages = make(map[string][]domain.Message)
	}
	f.messages[userKey] = append(f.messages[userKey], msg)
	return nil
}

func (f *fakeConversations) History(_ context.Context, userKey string) ([]domain.Message, error) {
	return f.messages[userKey], nil
}

func newTestOrchestrator(engine ToolInvoker, mail *fakeMail, events *fakeEvents, chat *fakeChat) (*Orchestrator, *fakeConversations) {
	conversations := &fakeConversations{}
	o := NewOrchestrator(OrchestratorConfig{
		Engine:        engine,
		Chat:          chat,
		Validator:     NewValidatorAt(fixedNow),
		Mail:          mail,
		Events:        events,
		Conversations: conversations,
		Now:           fixedNow,
	})
	return o, conversations
}

func TestExecuteMissingRecipientBlocksDispatch(t *testing.T) {
	engine := &fakeEngine{outcome: &agent.ToolInvocationOutcome{
		UsedTool:  true,
		ToolName:  tools.ToolSendEmail,
		RawParams: map[string]any{"to": []any{}, "subject": "Hola", "body": "x"},
	}}
	mail := &fakeMail{}
	o, _ := newTestOrchestrator(engine, mail, &fakeEvents{}, &fakeChat{})

	result := o.Execute(context.Background(), &domain.ActionRequest{
		UserKey: "u1",
		Text:    "envía un correo",
	})
	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Error != apperr.CodeMissingRecipient {
		t.Errorf("error = %s, want %s", result.Error, apperr.CodeMissingRecipient)
	}
	if mail.sends != 0 {
		t.Errorf("mail sends = %d, want 0", mail.sends)
	}
}

func TestExecuteSendsExactlyOnce(t *testing.T) {
	engine := &fakeEngine{outcome: &agent.ToolInvocationOutcome{
		UsedTool: true,
		ToolName: tools.ToolSendEmail,
		RawParams: map[string]any{
			"to":      []any{"ana@x.com"},
			"subject": "Hola",
			"body":    "llego tarde",
		},
	}}
	mail := &fakeMail{}
	o, _ := newTestOrchestrator(engine, mail, &fakeEvents{}, &fakeChat{})

	result := o.Execute(context.Background(), &domain.ActionRequest{
		UserKey: "u1",
		Text:    "Envía un correo a ana@x.com",
	})
	if !result.Success {
		t.Fatalf("expected success, got %q", result.Message)
	}
	if mail.sends != 1 {
		t.Errorf("mail sends = %d, want exactly 1", mail.sends)
	}
	if !strings.Contains(result.Message, "ana@x.com") {
		t.Errorf("message %q does not name the recipient", result.Message)
	}
}

func TestExecuteFallbackPathDispatchesOnce(t *testing.T) {
	// model never invokes a tool: both attempts come back as prose
	engine := &fakeEngine{outcome: &agent.ToolInvocationOutcome{UsedTool: false, ModelText: "claro"}}
	mail := &fakeMail{}
	o, _ := newTestOrchestrator(engine, mail, &fakeEvents{}, &fakeChat{})

	result := o.Execute(context.Background(), &domain.ActionRequest{
		UserKey: "u1",
		Text:    "Envía un correo a ana@x.com con asunto 'Hola' diciendo que llego tarde",
	})
	if !result.Success {
		t.Fatalf("expected success, got %q", result.Message)
	}
	if mail.sends != 1 {
		t.Fatalf("mail sends = %d, want exactly 1", mail.sends)
	}
	if len(mail.last.To) != 1 || mail.last.To[0] != "ana@x.com" {
		t.Errorf("to = %v, want [ana@x.com]", mail.last.To)
	}
	if mail.last.Subject != "Hola" {
		t.Errorf("subject = %q, want Hola", mail.last.Subject)
	}
}

func TestExecuteAttachmentFailureIsNonFatal(t *testing.T) {
	engine := &fakeEngine{outcome: &agent.ToolInvocationOutcome{
		UsedTool: true,
		ToolName: tools.ToolSendEmail,
		RawParams: map[string]any{
			"to":                []any{"ana@x.com"},
			"subject":           "Informe",
			"body":              "adjunto el informe",
			"drive_attachments": []any{"acta inexistente"},
		},
	}}
	mail := &fakeMail{}
	conversations := &fakeConversations{}
	o := NewOrchestrator(OrchestratorConfig{
		Engine:        engine,
		Validator:     NewValidatorAt(fixedNow),
		Resolver:      NewAttachmentResolver(&fakeFileStore{}),
		Mail:          mail,
		Events:        &fakeEvents{},
		Conversations: conversations,
		Now:           fixedNow,
	})

	result := o.Execute(context.Background(), &domain.ActionRequest{UserKey: "u1", Text: "envía un correo"})
	if !result.Success {
		t.Fatalf("attachment failure aborted the send: %q", result.Message)
	}
	if mail.sends != 1 {
		t.Errorf("mail sends = %d, want 1", mail.sends)
	}
	if len(mail.last.DriveAttachments) != 0 {
		t.Errorf("unresolved attachment was kept: %v", mail.last.DriveAttachments)
	}
	if !strings.Contains(result.Message, "acta inexistente") {
		t.Errorf("message %q does not note the omitted attachment", result.Message)
	}
}

func TestExecuteDispatchFailureSurfaced(t *testing.T) {
	engine := &fakeEngine{outcome: &agent.ToolInvocationOutcome{
		UsedTool:  true,
		ToolName:  tools.ToolSendEmail,
		RawParams: map[string]any{"to": "ana@x.com", "subject": "Hola", "body": "x"},
	}}
	mail := &fakeMail{sendErr: errors.New("smtp unavailable")}
	o, _ := newTestOrchestrator(engine, mail, &fakeEvents{}, &fakeChat{})

	result := o.Execute(context.Background(), &domain.ActionRequest{UserKey: "u1", Text: "envía un correo"})
	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Error != apperr.CodeDispatchFailed {
		t.Errorf("error = %s, want %s", result.Error, apperr.CodeDispatchFailed)
	}
	if !strings.Contains(result.Message, "smtp unavailable") {
		t.Errorf("message %q does not report the dispatch error", result.Message)
	}
}

func TestExecuteCreateEvent(t *testing.T) {
	engine := &fakeEngine{outcome: &agent.ToolInvocationOutcome{
		UsedTool: true,
		ToolName: tools.ToolCreateEvent,
		RawParams: map[string]any{
			"summary": "Planificación",
			"start":   "2025-06-10T09:00:00",
			"end":     "2025-06-10T10:30:00",
		},
	}}
	events := &fakeEvents{}
	o, _ := newTestOrchestrator(engine, &fakeMail{}, events, &fakeChat{})

	result := o.Execute(context.Background(), &domain.ActionRequest{
		UserKey: "u1",
		Text:    "crea un evento de planificación",
	})
	if !result.Success {
		t.Fatalf("expected success, got %q", result.Message)
	}
	if events.creates != 1 {
		t.Errorf("event creates = %d, want 1", events.creates)
	}
	if !events.last.End.After(events.last.Start) {
		t.Error("dispatched event end is not after start")
	}
}

func TestExecuteChatFallback(t *testing.T) {
	engine := &fakeEngine{}
	chat := &fakeChat{reply: "Hace sol en Madrid."}
	o, _ := newTestOrchestrator(engine, &fakeMail{}, &fakeEvents{}, chat)

	result := o.Execute(context.Background(), &domain.ActionRequest{
		UserKey: "u1",
		Text:    "¿qué tiempo hace?",
	})
	if !result.Success {
		t.Fatalf("expected success, got %q", result.Message)
	}
	if chat.calls != 1 {
		t.Errorf("chat calls = %d, want 1", chat.calls)
	}
	if engine.calls != 0 {
		t.Errorf("engine calls = %d, want 0", engine.calls)
	}
	if result.Message != "Hace sol en Madrid." {
		t.Errorf("message = %q", result.Message)
	}
}

func TestExecuteChatIncludesConversationContext(t *testing.T) {
	chat := &fakeChat{reply: "Era con Ana, a las 10."}
	o, conversations := newTestOrchestrator(&fakeEngine{}, &fakeMail{}, &fakeEvents{}, chat)

	conversations.Append(context.Background(), "u1", domain.Message{Role: "user", Content: "crea una reunión con Ana mañana a las 10"})
	conversations.Append(context.Background(), "u1", domain.Message{Role: "assistant", Content: "Evento \"Reunión con Ana\" creado."})

	result := o.Execute(context.Background(), &domain.ActionRequest{
		UserKey: "u1",
		Text:    "¿con quién era?",
	})
	if !result.Success {
		t.Fatalf("expected success, got %q", result.Message)
	}
	if !strings.Contains(chat.lastPrompt, "Reunión con Ana") {
		t.Errorf("chat prompt missing earlier exchange: %q", chat.lastPrompt)
	}
	if !strings.Contains(chat.lastPrompt, "¿con quién era?") {
		t.Errorf("chat prompt missing current message: %q", chat.lastPrompt)
	}
	if strings.Count(chat.lastPrompt, "¿con quién era?") != 1 {
		t.Errorf("current message duplicated in prompt: %q", chat.lastPrompt)
	}
}

func TestExecuteChatWithoutHistoryUsesBareText(t *testing.T) {
	chat := &fakeChat{reply: "Hace sol."}
	o, _ := newTestOrchestrator(&fakeEngine{}, &fakeMail{}, &fakeEvents{}, chat)

	o.Execute(context.Background(), &domain.ActionRequest{UserKey: "u1", Text: "¿qué tiempo hace?"})

	if chat.lastPrompt != "¿qué tiempo hace?" {
		t.Errorf("prompt = %q, want the raw text when no prior history exists", chat.lastPrompt)
	}
}

type panickingEngine struct{}

func (panickingEngine) Invoke(context.Context, string, []tools.ToolDefinition) (*agent.ToolInvocationOutcome, error) {
	panic("boom")
}

func TestExecuteRecoversFromPanic(t *testing.T) {
	o, _ := newTestOrchestrator(panickingEngine{}, &fakeMail{}, &fakeEvents{}, &fakeChat{})

	result := o.Execute(context.Background(), &domain.ActionRequest{UserKey: "u1", Text: "envía un correo"})
	if result == nil {
		t.Fatal("panic escaped the orchestrator")
	}
	if result.Success {
		t.Fatal("expected failure result after panic")
	}
}

func TestExecuteRecordsConversation(t *testing.T) {
	engine := &fakeEngine{outcome: &agent.ToolInvocationOutcome{
		UsedTool:  true,
		ToolName:  tools.ToolSendEmail,
		RawParams: map[string]any{"to": "ana@x.com", "subject": "Hola", "body": "x"},
	}}
	o, conversations := newTestOrchestrator(engine, &fakeMail{}, &fakeEvents{}, &fakeChat{})

	o.Execute(context.Background(), &domain.ActionRequest{UserKey: "u1", Text: "envía un correo a ana@x.com"})

	history, _ := conversations.History(context.Background(), "u1")
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}
	if history[0].Role != "user" || history[1].Role != "assistant" {
		t.Errorf("history roles = %s, %s", history[0].Role, history[1].Role)
	}
}
