package converters

import (
	"fmt"

	apperrors "github.com/kagent-dev/kagent-bridge/pkg/adk/errors"
	"trpc.group/trpc-go/trpc-a2a-go/protocol"
)

// EventConverter converts runtime events to A2A streaming events through a
// pluggable outbound part codec.
type EventConverter struct {
	convertPart func(part *Part, longRunningToolIDs map[string]bool) (protocol.Part, error)
}

// NewEventConverter creates an EventConverter using the kagent part codec.
func NewEventConverter() *EventConverter {
	return NewEventConverterWith(NewBridgeConverter().ConvertPartToA2A)
}

// NewEventConverterWith creates an EventConverter over a custom outbound part
// converter. A (nil, nil) converter result drops the part.
func NewEventConverterWith(convert func(part *Part, longRunningToolIDs map[string]bool) (protocol.Part, error)) *EventConverter {
	return &EventConverter{convertPart: convert}
}

// Convert converts a non-terminal runtime event to A2A streaming events.
// Terminal events are handled by the executor, which must emit exactly one
// final status event per task.
func (c *EventConverter) Convert(event *Event, taskID, contextID string) ([]protocol.StreamingMessageEvent, error) {
	var events []protocol.StreamingMessageEvent

	switch event.Type {
	case EventTypeStart:
		events = append(events, wrapStatusEvent(
			NewStatusEvent(taskID, contextID, protocol.TaskStateWorking, nil, false)))

	case EventTypeContent:
		if event.Content == nil {
			break
		}
		message, err := c.ConvertContentToMessage(event.Content, event.LongRunningToolIDSet(), taskID, contextID)
		if err != nil {
			return nil, err
		}
		if message == nil {
			break
		}
		events = append(events, wrapStatusEvent(
			NewStatusEvent(taskID, contextID, protocol.TaskStateWorking, message, false)))

	case EventTypeStateUpdate:
		state := event.State
		if state == "" {
			state = protocol.TaskStateWorking
		}
		events = append(events, wrapStatusEvent(
			NewStatusEvent(taskID, contextID, state, nil, false)))
	}

	return events, nil
}

// ConvertContentToMessage converts runtime content into an A2A message.
// Parts suppressed by the codec are dropped; a content whose parts all
// collapse yields a nil message and no error.
func (c *EventConverter) ConvertContentToMessage(
	content *Content,
	longRunningToolIDs map[string]bool,
	taskID, contextID string,
) (*protocol.Message, error) {
	var parts []protocol.Part
	for _, part := range content.Parts {
		a2aPart, err := c.convertPart(part, longRunningToolIDs)
		if err != nil {
			return nil, apperrors.New(apperrors.ErrCodeConversion, "failed to convert content part", err)
		}
		if a2aPart != nil {
			parts = append(parts, a2aPart)
		}
	}
	if len(parts) == 0 {
		return nil, nil
	}

	role := protocol.MessageRoleUser
	switch content.Role {
	case "assistant", "model", "agent":
		role = protocol.MessageRoleAgent
	}

	message := protocol.NewMessage(role, parts)
	message.TaskID = &taskID
	message.ContextID = &contextID
	return &message, nil
}

// ConvertErrorToMessage renders runtime error information as an agent message.
func ConvertErrorToMessage(errorInfo *ErrorInfo, taskID, contextID string) *protocol.Message {
	errorMsg := errorInfo.Message
	if errorInfo.Details != "" {
		errorMsg = fmt.Sprintf("%s: %s", errorMsg, errorInfo.Details)
	}

	message := protocol.NewMessage(protocol.MessageRoleAgent, []protocol.Part{
		&protocol.TextPart{
			Kind: protocol.KindText,
			Text: fmt.Sprintf("Error [%s]: %s", errorInfo.Code, errorMsg),
		},
	})
	message.TaskID = &taskID
	message.ContextID = &contextID
	return &message
}

// NewStatusEvent builds a task status update event.
func NewStatusEvent(
	taskID, contextID string,
	state protocol.TaskState,
	message *protocol.Message,
	final bool,
) *protocol.TaskStatusUpdateEvent {
	return &protocol.TaskStatusUpdateEvent{
		TaskID:    taskID,
		ContextID: contextID,
		Kind:      protocol.KindTaskStatusUpdate,
		Status: protocol.TaskStatus{
			State:   state,
			Message: message,
		},
		Final: final,
	}
}

func wrapStatusEvent(event *protocol.TaskStatusUpdateEvent) protocol.StreamingMessageEvent {
	return protocol.StreamingMessageEvent{Result: event}
}

// TerminalTaskState maps a terminal runtime event to the protocol task state.
func TerminalTaskState(event *Event) protocol.TaskState {
	switch {
	case event.Error != nil || event.Type == EventTypeError:
		return protocol.TaskStateFailed
	case event.Type == EventTypeStateUpdate && event.State != "":
		return event.State
	case event.Type == EventTypeComplete:
		return protocol.TaskStateCompleted
	default:
		return protocol.TaskStateWorking
	}
}
