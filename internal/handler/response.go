package handler

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/octobees/places-agent/internal/entity"
)

// APIResponse describes the standard envelope returned by the API.
type APIResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Success sends a successful response using the shared envelope format.
func Success(c echo.Context, status int, message string, data any) error {
	if status == 0 {
		status = http.StatusOK
	}
	payload := APIResponse{
		Status:  "success",
		Message: message,
		Data:    data,
	}
	return c.JSON(status, payload)
}

// Error sends an error response using the shared envelope format.
func Error(c echo.Context, status int, message string) error {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	payload := APIResponse{
		Status:  "error",
		Message: message,
	}
	return c.JSON(status, payload)
}

// Stream event types written by the search endpoint.
const (
	EventState  = "state"
	EventResult = "result"
	EventError  = "error"
)

// StreamEvent is one NDJSON line of a streamed step run.
type StreamEvent struct {
	Type  string             `json:"type"`
	State *entity.AgentState `json:"state,omitempty"`
	Error string             `json:"error,omitempty"`
}

// ndjsonStream writes StreamEvents to the response, committing the headers on first use.
type ndjsonStream struct {
	resp    *echo.Response
	enc     *json.Encoder
	started bool
}

func newNDJSONStream(resp *echo.Response) *ndjsonStream {
	return &ndjsonStream{resp: resp, enc: json.NewEncoder(resp)}
}

func (s *ndjsonStream) write(event StreamEvent) error {
	if !s.started {
		s.resp.Header().Set(echo.HeaderContentType, "application/x-ndjson")
		s.resp.WriteHeader(http.StatusOK)
		s.started = true
	}
	if err := s.enc.Encode(event); err != nil {
		return err
	}
	s.resp.Flush()
	return nil
}
