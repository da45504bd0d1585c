// Package agent drives the tool-invocation conversation with the model.
package agent

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"assistant_server/core/agent/tools"
	"assistant_server/pkg/logger"
)

// ModelClient is the slice of the LLM client the engine needs.
type ModelClient interface {
	CompleteWithTools(ctx context.Context, systemPrompt, userPrompt string, toolDefs []tools.ToolDefinition) (string, []tools.ToolCall, error)
}

// ToolInvocationOutcome is the result of coaxing the model into a tool call.
type ToolInvocationOutcome struct {
	UsedTool  bool
	ToolName  string
	RawParams map[string]any
	ModelText string
	Attempts  int
}

// ProtocolEngine runs the two-attempt tool-invocation exchange. The model
// gets one chance to call a tool on the raw text; if it answers in prose
// instead, one reinforced attempt follows with the request rephrased as a
// direct command plus any details pre-extracted from the text. There is no
// third attempt.
type ProtocolEngine struct {
	model ModelClient
}

func NewProtocolEngine(model ModelClient) *ProtocolEngine {
	return &ProtocolEngine{model: model}
}

const toolSystemPrompt = `You are an assistant that performs actions for the user by calling tools.
The user writes in Spanish. Always respond by calling the most appropriate tool
with every parameter you can extract from the message. Do not answer in prose
when a tool fits the request.`

const reinforcedSystemPrompt = `You are an assistant that performs actions for the user by calling tools.
You MUST call one of the provided tools. Never answer in plain text.
Fill every required parameter; use the details listed in the message.`

var (
	protocolEmailRe   = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	protocolSubjectRe = regexp.MustCompile(`(?i)asunto\s*[:\"']?\s*[\"']?([^\"'\n]+)[\"']?`)
)

// Invoke asks the model to call one of the given tools for the user text.
// A nil error with UsedTool=false means the model declined twice.
func (e *ProtocolEngine) Invoke(ctx context.Context, text string, toolDefs []tools.ToolDefinition) (*ToolInvocationOutcome, error) {
	modelText, toolCalls, err := e.model.CompleteWithTools(ctx, toolSystemPrompt, text, toolDefs)
	if err != nil {
		return nil, err
	}
	if len(toolCalls) > 0 {
		tc := toolCalls[0]
		return &ToolInvocationOutcome{
			UsedTool:  true,
			ToolName:  tc.Name,
			RawParams: tc.Args,
			ModelText: modelText,
			Attempts:  1,
		}, nil
	}

	logger.Debug("model answered in prose, reinforcing tool request")

	reinforced := e.reinforce(text, toolDefs)
	modelText, toolCalls, err = e.model.CompleteWithTools(ctx, reinforcedSystemPrompt, reinforced, toolDefs)
	if err != nil {
		return nil, err
	}
	if len(toolCalls) > 0 {
		tc := toolCalls[0]
		return &ToolInvocationOutcome{
			UsedTool:  true,
			ToolName:  tc.Name,
			RawParams: tc.Args,
			ModelText: modelText,
			Attempts:  2,
		}, nil
	}

	return &ToolInvocationOutcome{
		UsedTool:  false,
		ModelText: modelText,
		Attempts:  2,
	}, nil
}

// reinforce rewrites the request as an imperative command and appends any
// details already recoverable from the text, so the model cannot claim it
// lacks parameters.
func (e *ProtocolEngine) reinforce(text string, toolDefs []tools.ToolDefinition) string {
	var b strings.Builder
	b.WriteString("Ejecuta esta acción ahora: ")
	b.WriteString(text)

	var hints []string
	if addrs := protocolEmailRe.FindAllString(text, -1); len(addrs) > 0 {
		hints = append(hints, fmt.Sprintf("destinatarios: %s", strings.Join(addrs, ", ")))
	}
	if m := protocolSubjectRe.FindStringSubmatch(text); len(m) > 1 {
		hints = append(hints, fmt.Sprintf("asunto: %s", strings.TrimSpace(m[1])))
	}
	if len(hints) > 0 {
		b.WriteString("\n\nDatos ya identificados:\n")
		for _, h := range hints {
			b.WriteString("- ")
			b.WriteString(h)
			b.WriteString("\n")
		}
	}
	if len(toolDefs) > 0 {
		b.WriteString(fmt.Sprintf("\nUsa la herramienta %s.", toolDefs[0].Name))
	}

	return b.String()
}
