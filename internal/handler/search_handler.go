package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/octobees/places-agent/internal/emitter"
	"github.com/octobees/places-agent/internal/entity"
	middlewarepkg "github.com/octobees/places-agent/internal/middleware"
	"github.com/octobees/places-agent/internal/service"
)

// StepRunner executes the search step against a state.
type StepRunner interface {
	Run(ctx context.Context, state *entity.AgentState, emit emitter.Emitter) (*entity.AgentState, error)
}

// SearchHandler exposes the search step to the agent runtime as a streaming remote action.
type SearchHandler struct {
	runner   StepRunner
	progress emitter.Emitter
	logger   *zap.Logger
}

// NewSearchHandler wires the handler. progress receives every emission in addition to the
// HTTP stream and may be nil.
func NewSearchHandler(runner StepRunner, progress emitter.Emitter, logger *zap.Logger) *SearchHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchHandler{runner: runner, progress: progress, logger: logger}
}

// Run handles POST /copilotkit/search. The body is the shared agent state; the response is an
// NDJSON stream of state snapshots followed by a result or error event.
func (h *SearchHandler) Run(c echo.Context) error {
	var state entity.AgentState
	if err := c.Bind(&state); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	stream := newNDJSONStream(c.Response())
	httpEmitter := emitter.Func(func(ctx context.Context, s *entity.AgentState) error {
		return stream.write(StreamEvent{Type: EventState, State: s})
	})

	log := h.logger.With(zap.String("request_id", middlewarepkg.RequestIDFromContext(c)))
	out, err := h.runner.Run(c.Request().Context(), &state, emitter.Multi(httpEmitter, h.progress))
	if err != nil {
		log.Warn("search step failed", zap.Error(err))
		if !stream.started {
			return Error(c, statusForRunError(err), err.Error())
		}
		return stream.write(StreamEvent{Type: EventError, Error: err.Error()})
	}

	return stream.write(StreamEvent{Type: EventResult, State: out})
}

// Tools handles GET /tools and lists the tool definitions the step answers to.
func (h *SearchHandler) Tools(c echo.Context) error {
	return Success(c, http.StatusOK, "available tools", []service.ToolDefinition{service.SearchForPlacesTool()})
}

func statusForRunError(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidToolCall):
		return http.StatusBadRequest
	case service.IsConfigurationError(err):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}
