package converters

import (
	"time"

	"trpc.group/trpc-go/trpc-a2a-go/protocol"
)

// Content represents a message content structure compatible with various LLM providers
type Content struct {
	Role  string  `json:"role"`
	Parts []*Part `json:"parts"`
}

// Part represents a message part (text, file, function call, etc.)
type Part struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// PartType constants
const (
	PartTypeText             = "text"
	PartTypeFile             = "file"
	PartTypeData             = "data"
	PartTypeFunctionCall     = "function_call"
	PartTypeFunctionResponse = "function_response"
)

// TextPartData represents text content
type TextPartData struct {
	Text string `json:"text"`
}

// FilePartData represents file content
type FilePartData struct {
	URI      string `json:"uri,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	Data     []byte `json:"data,omitempty"`
}

// FunctionCallData represents a function call emitted by the runtime
type FunctionCallData struct {
	Name string                 `json:"name"`
	Args map[string]interface{} `json:"args,omitempty"`
	ID   string                 `json:"id,omitempty"`
}

// FunctionResponseData represents a function response
type FunctionResponseData struct {
	Name     string                 `json:"name"`
	Response map[string]interface{} `json:"response,omitempty"`
	ID       string                 `json:"id,omitempty"`
}

// RunArgs represents arguments for running an agent
type RunArgs struct {
	UserID     string
	SessionID  string
	NewMessage *Content
}

// Event represents a single agent runtime event. Terminal events carry the
// task state the runtime settled on; LongRunningToolIDs lists function-call
// IDs whose execution is asynchronous relative to the event stream.
type Event struct {
	Type               string             `json:"type"`
	Content            *Content           `json:"content,omitempty"`
	Error              *ErrorInfo         `json:"error,omitempty"`
	State              protocol.TaskState `json:"state,omitempty"`
	LongRunningToolIDs []string           `json:"long_running_tool_ids,omitempty"`
	Partial            bool               `json:"partial,omitempty"`
	Timestamp          time.Time          `json:"timestamp"`
}

// EventType constants
const (
	EventTypeStart       = "start"
	EventTypeContent     = "content"
	EventTypeStateUpdate = "state_update"
	EventTypeError       = "error"
	EventTypeComplete    = "complete"
)

// LongRunningToolIDSet returns the event's long-running tool IDs as a set.
func (e *Event) LongRunningToolIDSet() map[string]bool {
	if len(e.LongRunningToolIDs) == 0 {
		return nil
	}
	set := make(map[string]bool, len(e.LongRunningToolIDs))
	for _, id := range e.LongRunningToolIDs {
		set[id] = true
	}
	return set
}

// ErrorInfo represents error information
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// RequestContext carries the identifiers and inbound message of one A2A task
// execution. It is created at request entry and discarded after the terminal
// event is emitted. UserID and SessionID are filled in by the before-execution
// callback as pure functions of ContextID.
type RequestContext struct {
	TaskID    string
	ContextID string
	UserID    string
	SessionID string
	Message   *protocol.Message
}
