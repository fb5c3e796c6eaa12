package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/octobees/places-agent/internal/emitter"
	"github.com/octobees/places-agent/internal/entity"
	"github.com/octobees/places-agent/internal/metrics"
	"github.com/octobees/places-agent/internal/places"
)

const resultPrefix = "Added the following search results: "

// ClientProvider yields the provider client used for a batch.
type ClientProvider interface {
	Client() (places.Searcher, error)
}

// SearchService runs the place search step of the agent graph.
type SearchService struct {
	clients ClientProvider
	logger  *zap.Logger
	metrics *metrics.Collector
	timeout time.Duration
}

// NewSearchService wires the step. timeout bounds each provider call; zero disables it.
// logger and collector may be nil.
func NewSearchService(clients ClientProvider, logger *zap.Logger, collector *metrics.Collector, timeout time.Duration) *SearchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchService{
		clients: clients,
		logger:  logger,
		metrics: collector,
		timeout: timeout,
	}
}

type queryFailure struct {
	query string
	err   error
}

// Run executes one provider search per query of the last assistant message's tool call,
// reporting progress through emit, and appends a single tool-result message to state.
//
// A failing provider call marks its query failed and the batch continues. Invalid tool calls
// and a missing credential are returned before any progress is recorded.
func (s *SearchService) Run(ctx context.Context, state *entity.AgentState, emit emitter.Emitter) (*entity.AgentState, error) {
	if emit == nil {
		emit = emitter.Nop
	}

	call, args, err := triggeringCall(state)
	if err != nil {
		s.metrics.ObserveRun(metrics.OutcomeFailure)
		return state, err
	}

	client, err := s.clients.Client()
	if err != nil {
		s.metrics.ObserveRun(metrics.OutcomeFailure)
		return state, err
	}

	log := s.logger.With(zap.String("tool_call_id", call.ID), zap.Int("queries", len(args.Queries)))

	if state.SearchProgress == nil {
		state.SearchProgress = []entity.SearchProgress{}
	}
	base := len(state.SearchProgress)
	for _, query := range args.Queries {
		state.SearchProgress = append(state.SearchProgress, entity.NewSearchProgress(query))
	}
	s.emit(ctx, emit, state, log)

	collected := []entity.Place{}
	var failures []queryFailure
	for i, query := range args.Queries {
		if err := ctx.Err(); err != nil {
			return s.abort(ctx, emit, state, log, err)
		}

		results, err := s.search(ctx, client, query)
		entry := &state.SearchProgress[base+i]
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return s.abort(ctx, emit, state, log, ctxErr)
			}
			log.Warn("place search failed", zap.String("query", query), zap.Error(err))
			failures = append(failures, queryFailure{query: query, err: err})
			entry.Complete(entity.ProgressFailed)
		} else {
			for _, raw := range results {
				collected = append(collected, places.Normalize(raw, i))
			}
			entry.Complete(entity.ProgressDone)
		}
		s.emit(ctx, emit, state, log)
	}

	state.SearchProgress = []entity.SearchProgress{}
	s.emit(ctx, emit, state, log)

	content, err := resultContent(collected, failures)
	if err != nil {
		s.metrics.ObserveRun(metrics.OutcomeFailure)
		return state, err
	}
	state.AppendMessage(entity.Message{
		Role:       entity.RoleTool,
		ToolCallID: call.ID,
		Content:    content,
	})

	log.Info("place search completed", zap.Int("places", len(collected)), zap.Int("failed_queries", len(failures)))
	s.metrics.ObserveRun(metrics.OutcomeSuccess)
	return state, nil
}

func (s *SearchService) search(ctx context.Context, client places.Searcher, query string) ([]places.RawPlace, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	results, err := client.Search(ctx, query)
	if err != nil {
		s.metrics.ObserveProviderCall(metrics.OutcomeFailure, time.Since(start), 0)
		return nil, err
	}
	s.metrics.ObserveProviderCall(metrics.OutcomeSuccess, time.Since(start), len(results))
	return results, nil
}

// emit reports progress. Emission failures are logged and never stop the batch.
func (s *SearchService) emit(ctx context.Context, emit emitter.Emitter, state *entity.AgentState, log *zap.Logger) {
	if err := emit.Emit(ctx, state); err != nil {
		log.Warn("state emission failed", zap.Error(err))
	}
}

func (s *SearchService) abort(ctx context.Context, emit emitter.Emitter, state *entity.AgentState, log *zap.Logger, cause error) (*entity.AgentState, error) {
	state.SearchProgress = []entity.SearchProgress{}
	s.emit(context.WithoutCancel(ctx), emit, state, log)
	s.metrics.ObserveRun(metrics.OutcomeFailure)
	log.Warn("place search aborted", zap.Error(cause))
	return state, fmt.Errorf("place search aborted: %w", cause)
}

func triggeringCall(state *entity.AgentState) (entity.ToolCall, SearchArgs, error) {
	last := state.LastMessage()
	if last == nil {
		return entity.ToolCall{}, SearchArgs{}, fmt.Errorf("%w: conversation has no messages", ErrInvalidToolCall)
	}
	if len(last.ToolCalls) == 0 {
		return entity.ToolCall{}, SearchArgs{}, fmt.Errorf("%w: last message carries no tool call", ErrInvalidToolCall)
	}

	call := last.ToolCalls[0]
	if call.Name != "" && call.Name != SearchToolName {
		return entity.ToolCall{}, SearchArgs{}, fmt.Errorf("%w: unexpected tool %q", ErrInvalidToolCall, call.Name)
	}

	args, err := ValidateSearchArgs(call.Args)
	if err != nil {
		return entity.ToolCall{}, SearchArgs{}, err
	}
	return call, args, nil
}

func resultContent(collected []entity.Place, failures []queryFailure) (string, error) {
	// Place names reach the model verbatim, so '&', '<' and '>' are not HTML-escaped.
	var data bytes.Buffer
	enc := json.NewEncoder(&data)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(collected); err != nil {
		return "", fmt.Errorf("marshal places: %w", err)
	}

	var b strings.Builder
	b.WriteString(resultPrefix)
	b.Write(bytes.TrimSuffix(data.Bytes(), []byte("\n")))
	if len(failures) > 0 {
		quoted := make([]string, 0, len(failures))
		for _, f := range failures {
			quoted = append(quoted, strconv.Quote(f.query))
		}
		b.WriteString("\nThe following searches failed and returned no results: ")
		b.WriteString(strings.Join(quoted, ", "))
	}
	return b.String(), nil
}

// IsConfigurationError reports whether err comes from a missing provider credential.
func IsConfigurationError(err error) bool {
	return errors.Is(err, places.ErrMissingCredential)
}
