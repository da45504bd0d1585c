// Package http exposes the action engine over HTTP.
package http

import (
	"github.com/gofiber/fiber/v2"

	"assistant_server/core/domain"
	"assistant_server/core/port/in"
	"assistant_server/infra/middleware"
	"assistant_server/pkg/apperr"
	"assistant_server/pkg/response"
)

type ActionHandler struct {
	actions in.ActionService
	summary in.SummaryService
}

func NewActionHandler(actions in.ActionService, summary in.SummaryService) *ActionHandler {
	return &ActionHandler{actions: actions, summary: summary}
}

func (h *ActionHandler) Register(app fiber.Router) {
	assistant := app.Group("/assistant")
	assistant.Post("/execute", h.Execute)
	assistant.Get("/history", h.History)
	assistant.Get("/summary", h.Summary)
}

type executeRequest struct {
	Text        string `json:"text"`
	AccessToken string `json:"access_token"`
	Hint        string `json:"hint,omitempty"`
}

// Execute runs one free-text request through the action engine.
func (h *ActionHandler) Execute(c *fiber.Ctx) error {
	var req executeRequest
	if err := c.BodyParser(&req); err != nil {
		return response.FromError(c, apperr.BadRequest("invalid request body"))
	}
	if req.Text == "" {
		return response.FromError(c, apperr.BadRequest("text is required"))
	}
	if req.AccessToken == "" {
		return response.FromError(c, apperr.BadRequest("access_token is required"))
	}

	hint := domain.Intent(req.Hint)
	if hint == "" {
		hint = domain.IntentAuto
	}

	result := h.actions.Execute(c.Context(), &domain.ActionRequest{
		UserKey:     middleware.UserKey(c),
		Text:        req.Text,
		AccessToken: req.AccessToken,
		Hint:        hint,
	})

	return response.OK(c, result)
}

// History returns the caller's conversation log, oldest first.
func (h *ActionHandler) History(c *fiber.Ctx) error {
	history, err := h.actions.History(c.Context(), middleware.UserKey(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.OK(c, history)
}

// Summary composes the daily digest for the caller.
func (h *ActionHandler) Summary(c *fiber.Ctx) error {
	accessToken := c.Query("access_token")
	if accessToken == "" {
		return response.FromError(c, apperr.BadRequest("access_token is required"))
	}

	digest, err := h.summary.DailyDigest(c.Context(), middleware.UserKey(c), accessToken)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.OK(c, fiber.Map{"summary": digest})
}
