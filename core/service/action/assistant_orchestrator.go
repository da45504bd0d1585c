package action

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"assistant_server/core/agent"
	"assistant_server/core/agent/tools"
	"assistant_server/core/domain"
	"assistant_server/core/port/out"
	"assistant_server/pkg/apperr"
	"assistant_server/pkg/logger"
)

// ToolInvoker is the slice of the protocol engine the orchestrator needs.
type ToolInvoker interface {
	Invoke(ctx context.Context, text string, toolDefs []tools.ToolDefinition) (*agent.ToolInvocationOutcome, error)
}

// ChatModel answers requests that map to no action.
type ChatModel interface {
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

const chatSystemPrompt = `Eres un asistente personal amable. Responde en español de forma breve y útil.`

// chatContextWindow caps how many stored messages feed the chat fallback.
const chatContextWindow = 10

// Orchestrator runs the end-to-end request lifecycle: classify, invoke the
// model, validate, resolve attachments, dispatch. The side-effecting
// dispatch call happens at most once per request.
type Orchestrator struct {
	engine        ToolInvoker
	chat          ChatModel
	validator     *Validator
	resolver      *AttachmentResolver
	mail          out.MailDispatcherPort
	events        out.EventDispatcherPort
	conversations out.ConversationStorePort
	now           func() time.Time
}

type OrchestratorConfig struct {
	Engine        ToolInvoker
	Chat          ChatModel
	Validator     *Validator
	Resolver      *AttachmentResolver
	Mail          out.MailDispatcherPort
	Events        out.EventDispatcherPort
	Conversations out.ConversationStorePort
	Now           func() time.Time
}

func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	validator := cfg.Validator
	if validator == nil {
		validator = NewValidator()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Orchestrator{
		engine:        cfg.Engine,
		chat:          cfg.Chat,
		validator:     validator,
		resolver:      cfg.Resolver,
		mail:          cfg.Mail,
		events:        cfg.Events,
		conversations: cfg.Conversations,
		now:           now,
	}
}

// Execute processes one request and always returns a terminal result;
// internal faults are converted, never propagated.
func (o *Orchestrator) Execute(ctx context.Context, req *domain.ActionRequest) (result *domain.ActionResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic while executing action: %v", r)
			result = failure(apperr.Internal(fmt.Errorf("panic: %v", r)))
		}
	}()

	o.record(ctx, req.UserKey, "user", req.Text)

	intent := Classify(req.Text, req.Hint)
	logger.Info("request classified as %s", intent)

	switch intent {
	case domain.IntentSendMessage:
		result = o.executeSendMessage(ctx, req)
	case domain.IntentCreateEvent:
		result = o.executeCreateEvent(ctx, req)
	default:
		result = o.executeChat(ctx, req)
	}

	o.record(ctx, req.UserKey, "assistant", result.Message)
	return result
}

// History returns the user's conversation log, oldest first.
func (o *Orchestrator) History(ctx context.Context, userKey string) ([]domain.Message, error) {
	if o.conversations == nil {
		return nil, nil
	}
	return o.conversations.History(ctx, userKey)
}

func (o *Orchestrator) executeSendMessage(ctx context.Context, req *domain.ActionRequest) *domain.ActionResult {
	raw, err := o.obtainParams(ctx, req.Text, tools.CategoryMail)
	if err != nil {
		return failure(err)
	}

	params, err := o.validator.ValidateEmail(raw)
	if err != nil {
		return failure(err)
	}

	token := &oauth2.Token{AccessToken: req.AccessToken}

	resolved, missing := o.resolveAttachments(ctx, token, params.DriveAttachments)
	params.DriveAttachments = resolved

	if _, err := o.mail.Send(ctx, token, params); err != nil {
		return failure(apperr.DispatchFailed("mail", err))
	}

	msg := fmt.Sprintf("Correo enviado a %s con asunto %q.", strings.Join(params.To, ", "), params.Subject)
	if len(missing) > 0 {
		msg += fmt.Sprintf(" No encontré estos archivos adjuntos: %s.", strings.Join(missing, ", "))
	}

	return &domain.ActionResult{Success: true, Message: msg, Params: params}
}

func (o *Orchestrator) executeCreateEvent(ctx context.Context, req *domain.ActionRequest) *domain.ActionResult {
	raw, err := o.obtainParams(ctx, req.Text, tools.CategoryCalendar)
	if err != nil {
		return failure(err)
	}

	params, err := o.validator.ValidateEvent(req.Text, raw)
	if err != nil {
		return failure(err)
	}

	token := &oauth2.Token{AccessToken: req.AccessToken}
	if _, err := o.events.Create(ctx, token, params); err != nil {
		return failure(apperr.DispatchFailed("calendar", err))
	}

	msg := fmt.Sprintf("Evento %q creado para el %s.", params.Summary, params.Start.Format("02/01/2006 a las 15:04"))
	return &domain.ActionResult{Success: true, Message: msg, Params: params}
}

func (o *Orchestrator) executeChat(ctx context.Context, req *domain.ActionRequest) *domain.ActionResult {
	reply, err := o.chat.CompleteWithSystem(ctx, chatSystemPrompt, o.chatPrompt(ctx, req))
	if err != nil {
		return failure(err)
	}
	return &domain.ActionResult{Success: true, Message: reply}
}

// chatPrompt prepends recent conversation history so follow-up questions
// keep their referents. The current message is already recorded, so it is
// dropped from the context block.
func (o *Orchestrator) chatPrompt(ctx context.Context, req *domain.ActionRequest) string {
	if o.conversations == nil || req.UserKey == "" {
		return req.Text
	}
	history, err := o.conversations.History(ctx, req.UserKey)
	if err != nil {
		logger.Warn("conversation history unavailable for chat: %v", err)
		return req.Text
	}
	if n := len(history); n > 0 && history[n-1].Role == "user" && history[n-1].Content == req.Text {
		history = history[:n-1]
	}
	if len(history) == 0 {
		return req.Text
	}
	if len(history) > chatContextWindow {
		history = history[len(history)-chatContextWindow:]
	}

	var b strings.Builder
	b.WriteString("Conversación reciente:\n")
	for _, msg := range history {
		role := "Usuario"
		if msg.Role == "assistant" {
			role = "Asistente"
		}
		fmt.Fprintf(&b, "%s: %s\n", role, msg.Content)
	}
	b.WriteString("\nMensaje actual: ")
	b.WriteString(req.Text)
	return b.String()
}

// obtainParams drives the protocol engine and falls back to manual
// extraction when the model declines to call a tool. Both paths feed the
// same validator; the distinction is only logged.
func (o *Orchestrator) obtainParams(ctx context.Context, text string, category tools.ToolCategory) (map[string]any, error) {
	outcome, err := o.engine.Invoke(ctx, text, tools.ForIntent(category))
	if err != nil {
		return nil, err
	}

	if outcome.UsedTool {
		logger.Info("parameters from model tool call %s (attempt %d)", outcome.ToolName, outcome.Attempts)
		return outcome.RawParams, nil
	}

	logger.Warn("model declined tool use, extracting parameters manually")
	if category == tools.CategoryCalendar {
		return extractEventManually(text, o.now()), nil
	}
	return extractEmailManually(text), nil
}

// resolveAttachments maps file references to IDs. Lookup failures are
// non-fatal: the mail goes out without the file and the omission is
// reported back.
func (o *Orchestrator) resolveAttachments(ctx context.Context, token *oauth2.Token, references []string) (resolved, missing []string) {
	if o.resolver == nil {
		return nil, nil
	}
	for _, ref := range references {
		att, err := o.resolver.Resolve(ctx, token, ref)
		if err != nil {
			logger.Warn("attachment %q not resolved: %v", ref, err)
			missing = append(missing, ref)
			continue
		}
		resolved = append(resolved, att.ResolvedID)
	}
	return resolved, missing
}

func (o *Orchestrator) record(ctx context.Context, userKey, role, content string) {
	if o.conversations == nil || userKey == "" {
		return
	}
	msg := domain.Message{
		ID:      uuid.NewString(),
		Role:    role,
		Content: content,
		Time:    o.now(),
	}
	if err := o.conversations.Append(ctx, userKey, msg); err != nil {
		logger.Warn("conversation append failed: %v", err)
	}
}

// failure converts an error into a terminal result with a Spanish
// user-facing message.
func failure(err error) *domain.ActionResult {
	appErr := apperr.AsAppError(err)
	return &domain.ActionResult{
		Success: false,
		Message: userMessage(appErr),
		Error:   appErr.Code,
	}
}

func userMessage(appErr *apperr.AppError) string {
	switch appErr.Code {
	case apperr.CodeMissingRecipient:
		return "No pude identificar el destinatario. Indica una dirección de correo válida."
	case apperr.CodeMissingTitle:
		return "No pude identificar el título del evento. Dime cómo quieres llamarlo."
	case apperr.CodeInvalidDateRange:
		return "Las fechas del evento no son válidas. Revisa la hora de inicio y fin."
	case apperr.CodeModelOverloaded:
		return "El servicio está sobrecargado. Inténtalo de nuevo en unos minutos."
	case apperr.CodeDispatchFailed:
		return fmt.Sprintf("No se pudo completar la acción: %v", appErr.Err)
	default:
		return "Ocurrió un error al procesar tu solicitud. Inténtalo de nuevo."
	}
}
