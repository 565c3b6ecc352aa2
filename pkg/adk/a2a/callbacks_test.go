package a2a

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"trpc.group/trpc-go/trpc-a2a-go/protocol"

	"github.com/kagent-dev/kagent-bridge/pkg/adk/converters"
	"github.com/kagent-dev/kagent-bridge/pkg/adk/session"
)

type fakeSessionService struct {
	sessions  map[string]*session.Session
	createErr error
	getErr    error

	createCalls []*session.CreateSessionRequest
	getCalls    int
}

func newFakeSessionService() *fakeSessionService {
	return &fakeSessionService{sessions: make(map[string]*session.Session)}
}

func (f *fakeSessionService) CreateSession(_ context.Context, req *session.CreateSessionRequest) (*session.Session, error) {
	f.createCalls = append(f.createCalls, req)
	if f.createErr != nil {
		return nil, f.createErr
	}
	s := &session.Session{
		ID:      req.SessionID,
		AppName: req.AppName,
		UserID:  req.UserID,
		State:   req.State,
	}
	f.sessions[req.SessionID] = s
	return s, nil
}

func (f *fakeSessionService) GetSession(_ context.Context, _, _, sessionID string) (*session.Session, error) {
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	if s, ok := f.sessions[sessionID]; ok {
		return s, nil
	}
	return nil, errors.New("not found")
}

func (f *fakeSessionService) ListSessions(_ context.Context, _, _ string) ([]*session.Session, error) {
	return nil, nil
}

func (f *fakeSessionService) DeleteSession(_ context.Context, _, _, sessionID string) error {
	delete(f.sessions, sessionID)
	return nil
}

func TestDeriveUserID(t *testing.T) {
	assert.Equal(t, "a2a-user-ctx-1", DeriveUserID("ctx-1"))
	// Same context always maps to the same user
	assert.Equal(t, DeriveUserID("ctx-1"), DeriveUserID("ctx-1"))
	assert.NotEqual(t, DeriveUserID("ctx-1"), DeriveUserID("ctx-2"))
}

func TestBeforeExecution_BindsIdentity(t *testing.T) {
	svc := newFakeSessionService()
	callbacks := NewExecutionCallbacks("my-app", svc, nil, "", logr.Discard())

	reqCtx := &converters.RequestContext{TaskID: "task-1", ContextID: "ctx-1"}
	_, err := callbacks.BeforeExecution(context.Background(), reqCtx)
	require.NoError(t, err)

	assert.Equal(t, "a2a-user-ctx-1", reqCtx.UserID)
	assert.Equal(t, "ctx-1", reqCtx.SessionID)
}

func TestBeforeExecution_CreatesMissingSession(t *testing.T) {
	svc := newFakeSessionService()
	callbacks := NewExecutionCallbacks("my-app", svc, nil, "", logr.Discard())

	msg := protocol.NewMessage(protocol.MessageRoleUser, []protocol.Part{
		&protocol.TextPart{Kind: protocol.KindText, Text: "list the pods"},
	})
	reqCtx := &converters.RequestContext{TaskID: "task-1", ContextID: "ctx-1", Message: &msg}

	_, err := callbacks.BeforeExecution(context.Background(), reqCtx)
	require.NoError(t, err)

	require.Len(t, svc.createCalls, 1)
	created := svc.createCalls[0]
	assert.Equal(t, "my-app", created.AppName)
	assert.Equal(t, "a2a-user-ctx-1", created.UserID)
	assert.Equal(t, "ctx-1", created.SessionID)
	assert.Equal(t, "list the pods", created.State[session.StateKeySessionName])
}

func TestBeforeExecution_ReusesExistingSession(t *testing.T) {
	svc := newFakeSessionService()
	svc.sessions["ctx-1"] = &session.Session{ID: "ctx-1"}
	callbacks := NewExecutionCallbacks("my-app", svc, nil, "", logr.Discard())

	reqCtx := &converters.RequestContext{TaskID: "task-1", ContextID: "ctx-1"}
	_, err := callbacks.BeforeExecution(context.Background(), reqCtx)
	require.NoError(t, err)
	assert.Empty(t, svc.createCalls)
}

func TestBeforeExecution_LookupFailureMeansAbsent(t *testing.T) {
	svc := newFakeSessionService()
	svc.getErr = errors.New("backend unreachable")
	callbacks := NewExecutionCallbacks("my-app", svc, nil, "", logr.Discard())

	reqCtx := &converters.RequestContext{TaskID: "task-1", ContextID: "ctx-1"}
	_, err := callbacks.BeforeExecution(context.Background(), reqCtx)
	require.NoError(t, err)
	assert.Len(t, svc.createCalls, 1)
}

func TestBeforeExecution_CreateFailureIsHard(t *testing.T) {
	svc := newFakeSessionService()
	svc.createErr = errors.New("disk full")
	callbacks := NewExecutionCallbacks("my-app", svc, nil, "", logr.Discard())

	reqCtx := &converters.RequestContext{TaskID: "task-1", ContextID: "ctx-1"}
	_, err := callbacks.BeforeExecution(context.Background(), reqCtx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_CREATE_FAILED")
}

func TestBeforeExecution_NoSessionService(t *testing.T) {
	callbacks := NewExecutionCallbacks("my-app", nil, nil, "", logr.Discard())

	reqCtx := &converters.RequestContext{TaskID: "task-1", ContextID: "ctx-1"}
	_, err := callbacks.BeforeExecution(context.Background(), reqCtx)
	require.NoError(t, err)
	assert.Equal(t, "a2a-user-ctx-1", reqCtx.UserID)
}

func TestExtractSessionName(t *testing.T) {
	textMessage := func(texts ...string) *protocol.Message {
		parts := make([]protocol.Part, 0, len(texts))
		for _, text := range texts {
			parts = append(parts, &protocol.TextPart{Kind: protocol.KindText, Text: text})
		}
		msg := protocol.NewMessage(protocol.MessageRoleUser, parts)
		return &msg
	}

	tests := []struct {
		name string
		msg  *protocol.Message
		want string
	}{
		{
			name: "nil message",
			msg:  nil,
			want: "",
		},
		{
			name: "short text unchanged",
			msg:  textMessage("hello"),
			want: "hello",
		},
		{
			name: "exactly twenty runes unchanged",
			msg:  textMessage(strings.Repeat("a", 20)),
			want: strings.Repeat("a", 20),
		},
		{
			name: "long text truncated with ellipsis",
			msg:  textMessage(strings.Repeat("a", 21)),
			want: strings.Repeat("a", 20) + "...",
		},
		{
			name: "truncation counts runes not bytes",
			msg:  textMessage(strings.Repeat("é", 25)),
			want: strings.Repeat("é", 20) + "...",
		},
		{
			name: "first non-empty text wins",
			msg:  textMessage("", "second"),
			want: "second",
		},
		{
			name: "no text parts",
			msg: func() *protocol.Message {
				msg := protocol.NewMessage(protocol.MessageRoleUser, []protocol.Part{
					&protocol.DataPart{Kind: protocol.KindData, Data: map[string]interface{}{"k": "v"}},
				})
				return &msg
			}(),
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractSessionName(tt.msg))
		})
	}
}

func TestAfterExecution_NilFinalEvent(t *testing.T) {
	callbacks := NewExecutionCallbacks("my-app", nil, nil, "", logr.Discard())
	reqCtx := &converters.RequestContext{TaskID: "task-1", ContextID: "ctx-1"}

	assert.NoError(t, callbacks.AfterExecution(reqCtx, nil, errors.New("whatever")))
}

func TestAfterExecution_ReplacesApprovalMessage(t *testing.T) {
	callbacks := NewExecutionCallbacks("my-app", nil, nil, "", logr.Discard())
	reqCtx := &converters.RequestContext{TaskID: "task-1", ContextID: "ctx-1"}

	pending := protocol.NewMessage(protocol.MessageRoleAgent, []protocol.Part{
		longRunningCall("delete_pod", "call-1", map[string]interface{}{"pod": "api-0"}),
	})
	finalEvent := &protocol.TaskStatusUpdateEvent{
		TaskID:    "task-1",
		ContextID: "ctx-1",
		Kind:      protocol.KindTaskStatusUpdate,
		Status:    protocol.TaskStatus{State: protocol.TaskStateInputRequired, Message: &pending},
		Final:     true,
	}

	require.NoError(t, callbacks.AfterExecution(reqCtx, finalEvent, nil))

	replaced := finalEvent.Status.Message
	require.NotNil(t, replaced)
	require.NotNil(t, replaced.TaskID)
	assert.Equal(t, "task-1", *replaced.TaskID)
	require.NotNil(t, replaced.ContextID)
	assert.Equal(t, "ctx-1", *replaced.ContextID)

	// Summary text part plus one data part per pending call
	require.Len(t, replaced.Parts, 2)
	dataPart, ok := replaced.Parts[1].(*protocol.DataPart)
	require.True(t, ok)
	assert.Equal(t, "tool_approval_request", dataPart.Metadata["kagent_type"])
}

func TestAfterExecution_LeavesNonApprovalPauseAlone(t *testing.T) {
	callbacks := NewExecutionCallbacks("my-app", nil, nil, "", logr.Discard())
	reqCtx := &converters.RequestContext{TaskID: "task-1", ContextID: "ctx-1"}

	original := protocol.NewMessage(protocol.MessageRoleAgent, []protocol.Part{
		&protocol.TextPart{Kind: protocol.KindText, Text: "which cluster?"},
	})
	finalEvent := &protocol.TaskStatusUpdateEvent{
		Status: protocol.TaskStatus{State: protocol.TaskStateInputRequired, Message: &original},
	}

	require.NoError(t, callbacks.AfterExecution(reqCtx, finalEvent, nil))
	assert.Equal(t, &original, finalEvent.Status.Message)
}

func TestAfterExecution_IgnoresOtherStates(t *testing.T) {
	callbacks := NewExecutionCallbacks("my-app", nil, nil, "", logr.Discard())
	reqCtx := &converters.RequestContext{TaskID: "task-1", ContextID: "ctx-1"}

	msg := protocol.NewMessage(protocol.MessageRoleAgent, []protocol.Part{
		longRunningCall("tool", "1", nil),
	})
	finalEvent := &protocol.TaskStatusUpdateEvent{
		Status: protocol.TaskStatus{State: protocol.TaskStateCompleted, Message: &msg},
	}

	require.NoError(t, callbacks.AfterExecution(reqCtx, finalEvent, nil))
	assert.Equal(t, &msg, finalEvent.Status.Message)
}
