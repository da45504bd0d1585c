// Package domain holds the core entities of the action engine.
package domain

import "time"

// Intent identifies which action a request targets.
type Intent string

const (
	IntentSendMessage Intent = "send_message"
	IntentCreateEvent Intent = "create_event"
	IntentNone        Intent = "none"

	// IntentAuto asks the router to resolve the intent from the text.
	IntentAuto Intent = "auto"
)

// ActionRequest is one inbound user request. Immutable for the lifetime of
// a single Execute call.
type ActionRequest struct {
	UserKey     string `json:"user_key"`
	Text        string `json:"text"`
	AccessToken string `json:"access_token"`
	Hint        Intent `json:"hint"`
}

// EmailParams holds validated parameters for a send-message action.
// To is always a non-empty slice of syntactically valid addresses.
type EmailParams struct {
	To               []string `json:"to"`
	Subject          string   `json:"subject"`
	Body             string   `json:"body"`
	DriveAttachments []string `json:"drive_attachments,omitempty"`
}

// EventParams holds validated parameters for a create-event action.
// End is always strictly after Start.
type EventParams struct {
	Summary  string    `json:"summary"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Location string    `json:"location,omitempty"`
}

// ResolvedAttachment maps a textual file reference to a storage identifier.
// Ephemeral; discarded after dispatch.
type ResolvedAttachment struct {
	ReferenceText string `json:"reference_text"`
	ResolvedID    string `json:"resolved_id"`
}

// ActionResult is the terminal value returned to the caller. Never retried
// after being produced.
type ActionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Params  any    `json:"params,omitempty"` // *EmailParams or *EventParams
	Error   string `json:"error,omitempty"`
}

// DispatchResult is returned by the side-effecting collaborators.
type DispatchResult struct {
	ExternalID string    `json:"external_id"`
	SentAt     time.Time `json:"sent_at"`
}

// Message is one entry in a per-user conversation log.
type Message struct {
	ID      string    `json:"id"`
	Role    string    `json:"role"` // user, assistant
	Content string    `json:"content"`
	Time    time.Time `json:"time"`
}

// FileCandidate is one stored file returned by a name search.
type FileCandidate struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MailSummary is a read-only inbox entry used by the digest feature.
type MailSummary struct {
	From    string `json:"from"`
	Subject string `json:"subject"`
	Snippet string `json:"snippet"`
}

// EventSummary is a read-only calendar entry used by the digest feature.
type EventSummary struct {
	Title    string    `json:"title"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Location string    `json:"location,omitempty"`
}
