package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kataras/golog"
	"github.com/labstack/echo/v4"

	"github.com/postforge/postforge/internal/conversation"
)

const welcomeMessage = "Hi! Tell me what you'd like to post about and I'll research it and draft a LinkedIn post plus an Instagram/TikTok script for you."

// AuditLog records raw user inputs. Optional; nil disables auditing.
type AuditLog interface {
	SaveUserInput(ctx context.Context, conversationID, message string) error
}

// Handlers carries the dependencies of the HTTP endpoints.
type Handlers struct {
	Manager *conversation.Manager
	Audit   AuditLog
	Mermaid string
	Health  map[string]bool
	Log     *golog.Logger
}

func (h *Handlers) Register(e *echo.Echo) {
	e.GET("/welcome-message", h.welcome)
	e.POST("/user-input", h.userInput)
	e.GET("/health", h.health)
	e.GET("/graph", h.graph)
}

func (h *Handlers) welcome(c echo.Context) error {
	return c.JSON(http.StatusOK, WelcomeResponse{
		ConversationID: uuid.NewString(),
		Message:        welcomeMessage,
	})
}

func (h *Handlers) userInput(c echo.Context) error {
	var req UserInputRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "text is required")
	}
	if req.ConversationID == "" {
		req.ConversationID = uuid.NewString()
	}

	ctx := c.Request().Context()
	if h.Audit != nil {
		if err := h.Audit.SaveUserInput(ctx, req.ConversationID, req.Text); err != nil {
			h.Log.Errorf("saving user input: %v", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to record message")
		}
	}

	started := time.Now()
	reply, err := h.Manager.Turn(ctx, req.ConversationID, req.Text)
	turnDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		turnsTotal.WithLabelValues("error").Inc()
		h.Log.Errorf("turn failed for conversation %s: %v", req.ConversationID, err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to process message")
	}

	outcome := "complete"
	if reply.AwaitingInput {
		outcome = "awaiting_input"
	}
	turnsTotal.WithLabelValues(outcome).Inc()

	return c.JSON(http.StatusOK, UserInputResponse{
		ConversationID:    req.ConversationID,
		Message:           reply.Message,
		ChatComplete:      reply.Complete,
		AwaitingUserInput: reply.AwaitingInput,
	})
}

func (h *Handlers) health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok", Providers: h.Health})
}

func (h *Handlers) graph(c echo.Context) error {
	return c.String(http.StatusOK, h.Mermaid)
}
