package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// SearchToolName is the tool name the model uses to request a place search.
const SearchToolName = "search_for_places"

// ErrInvalidToolCall is returned when the triggering tool call is missing or malformed.
var ErrInvalidToolCall = errors.New("invalid tool call")

// ToolDefinition describes a tool to the model runtime.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// SearchArgs are the arguments of a search_for_places call.
type SearchArgs struct {
	Queries []string `json:"queries"`
}

var searchArgsSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"queries": map[string]any{
			"type":        "array",
			"description": "Free-text place searches, e.g. \"coffee near Union Square\".",
			"items":       map[string]any{"type": "string"},
		},
	},
	"required": []any{"queries"},
}

var searchArgsLoader = gojsonschema.NewGoLoader(searchArgsSchema)

// SearchForPlacesTool returns the definition advertised to the model.
func SearchForPlacesTool() ToolDefinition {
	return ToolDefinition{
		Name:        SearchToolName,
		Description: "Search for places based on a query, returns a list of places including their name, address, and coordinates.",
		Parameters:  searchArgsSchema,
	}
}

// ValidateSearchArgs checks raw tool arguments against the tool schema and decodes them.
func ValidateSearchArgs(raw json.RawMessage) (SearchArgs, error) {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}

	result, err := gojsonschema.Validate(searchArgsLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return SearchArgs{}, fmt.Errorf("%w: %v", ErrInvalidToolCall, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return SearchArgs{}, fmt.Errorf("%w: %s", ErrInvalidToolCall, strings.Join(msgs, "; "))
	}

	var args SearchArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return SearchArgs{}, fmt.Errorf("%w: %v", ErrInvalidToolCall, err)
	}
	if args.Queries == nil {
		args.Queries = []string{}
	}
	return args, nil
}
