package tools

const (
	ToolSendEmail   = "send_email"
	ToolCreateEvent = "create_event"
)

// SendEmailTool is the function spec the model fills in for mail requests.
func SendEmailTool() ToolDefinition {
	return ToolDefinition{
		Name:        ToolSendEmail,
		Description: "Send an email on the user's behalf. Extract recipients, subject and body from the user's message.",
		Category:    CategoryMail,
		Parameters: ToolParameters{
			Type: "object",
			Properties: map[string]ParameterProperty{
				"to": {
					Type:        "array",
					Description: "Recipient email addresses",
					Items:       &ParameterProperty{Type: "string"},
				},
				"subject": {
					Type:        "string",
					Description: "Email subject line",
				},
				"body": {
					Type:        "string",
					Description: "Email body text, written in the user's language",
				},
				"drive_attachments": {
					Type:        "array",
					Description: "Names of Drive files the user wants attached, as mentioned in the message",
					Items:       &ParameterProperty{Type: "string"},
				},
			},
			Required: []string{"to", "subject", "body"},
		},
	}
}

// CreateEventTool is the function spec the model fills in for scheduling requests.
func CreateEventTool() ToolDefinition {
	return ToolDefinition{
		Name:        ToolCreateEvent,
		Description: "Create a calendar event. Extract the title, start and end time from the user's message.",
		Category:    CategoryCalendar,
		Parameters: ToolParameters{
			Type: "object",
			Properties: map[string]ParameterProperty{
				"summary": {
					Type:        "string",
					Description: "Event title",
				},
				"start": {
					Type:        "string",
					Description: "Event start, RFC 3339 or YYYY-MM-DDTHH:MM:SS local time",
				},
				"end": {
					Type:        "string",
					Description: "Event end. Defaults to one hour after start when the user gives no duration",
				},
				"location": {
					Type:        "string",
					Description: "Event location if the user mentions one",
				},
			},
			Required: []string{"summary", "start"},
		},
	}
}

// ForIntent returns the tool set offered to the model for a resolved intent.
func ForIntent(category ToolCategory) []ToolDefinition {
	switch category {
	case CategoryMail:
		return []ToolDefinition{SendEmailTool()}
	case CategoryCalendar:
		return []ToolDefinition{CreateEventTool()}
	default:
		return nil
	}
}
