package entity

import "encoding/json"

// Message roles understood by the hosting graph.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolCall is a model-originated request to run a tool.
type ToolCall struct {
	ID   string          `json:"id"`
	Name string          `json:"name,omitempty"`
	Args json.RawMessage `json:"args,omitempty"`
}

// Message is one entry of the conversation transcript.
type Message struct {
	ID         string     `json:"id,omitempty"`
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// AgentState is the shared state handed to a step by the graph runtime. Fields the step
// does not own are preserved verbatim in Extra so a round trip through the step is lossless.
type AgentState struct {
	Messages       []Message                  `json:"messages"`
	SearchProgress []SearchProgress           `json:"search_progress"`
	Extra          map[string]json.RawMessage `json:"-"`
}

// LastMessage returns the most recent message, or nil when the transcript is empty.
func (s *AgentState) LastMessage() *Message {
	if s == nil || len(s.Messages) == 0 {
		return nil
	}
	return &s.Messages[len(s.Messages)-1]
}

// AppendMessage adds msg to the end of the transcript.
func (s *AgentState) AppendMessage(msg Message) {
	s.Messages = append(s.Messages, msg)
}

// MarshalJSON writes the known fields together with any preserved extra keys.
func (s AgentState) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Extra)+2)
	for k, v := range s.Extra {
		out[k] = v
	}
	messages := s.Messages
	if messages == nil {
		messages = []Message{}
	}
	progress := s.SearchProgress
	if progress == nil {
		progress = []SearchProgress{}
	}
	out["messages"] = messages
	out["search_progress"] = progress
	return json.Marshal(out)
}

// UnmarshalJSON reads the known fields and keeps every other key in Extra.
func (s *AgentState) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*s = AgentState{}
	if v, ok := raw["messages"]; ok {
		if err := json.Unmarshal(v, &s.Messages); err != nil {
			return err
		}
		delete(raw, "messages")
	}
	if v, ok := raw["search_progress"]; ok {
		if err := json.Unmarshal(v, &s.SearchProgress); err != nil {
			return err
		}
		delete(raw, "search_progress")
	}
	if len(raw) > 0 {
		s.Extra = raw
	}
	return nil
}
