package a2a

import (
	"context"

	"github.com/go-logr/logr"
	"golang.org/x/text/unicode/norm"
	"trpc.group/trpc-go/trpc-a2a-go/protocol"

	"github.com/kagent-dev/kagent-bridge/pkg/adk/converters"
	apperrors "github.com/kagent-dev/kagent-bridge/pkg/adk/errors"
	"github.com/kagent-dev/kagent-bridge/pkg/adk/session"
)

const (
	// UserIDPrefix makes user identity a pure function of the A2A context.
	UserIDPrefix = "a2a-user-"

	sessionNameMaxLen = 20
	sessionNameSuffix = "..."
)

// DeriveUserID returns the stable user identifier for a context. Deriving it
// twice for the same context always yields the same value.
func DeriveUserID(contextID string) string {
	return UserIDPrefix + contextID
}

// ExecutionCallbacks provides the before/after lifecycle hooks the executor
// invokes around each task's runtime invocation.
type ExecutionCallbacks struct {
	appName        string
	sessionService session.Service
	pathManager    *session.PathManager
	skillsDir      string
	logger         logr.Logger
}

// NewExecutionCallbacks creates the lifecycle hooks. sessionService may be
// nil, in which case no session binding happens and the runtime falls back
// to its in-process session store.
func NewExecutionCallbacks(
	appName string,
	sessionService session.Service,
	pathManager *session.PathManager,
	skillsDir string,
	logger logr.Logger,
) *ExecutionCallbacks {
	return &ExecutionCallbacks{
		appName:        appName,
		sessionService: sessionService,
		pathManager:    pathManager,
		skillsDir:      skillsDir,
		logger:         logger,
	}
}

// BeforeExecution binds the task to a session and decorates the context with
// span attributes. The only hard failure is session creation; everything
// else degrades with a log line.
func (c *ExecutionCallbacks) BeforeExecution(ctx context.Context, reqCtx *converters.RequestContext) (context.Context, error) {
	reqCtx.UserID = DeriveUserID(reqCtx.ContextID)
	reqCtx.SessionID = reqCtx.ContextID

	// Span attributes go on first so traces exist even when later steps fail
	attrs := map[string]string{
		spanAttrUserID:    reqCtx.UserID,
		spanAttrTaskID:    reqCtx.TaskID,
		spanAttrContextID: reqCtx.ContextID,
	}
	if c.appName != "" {
		attrs[spanAttrAppName] = c.appName
	}
	ctx = SetSpanAttributes(ctx, attrs)

	logger := c.logger.WithValues("task_id", reqCtx.TaskID, "session_id", reqCtx.SessionID)

	if c.sessionService != nil {
		if err := c.ensureSession(ctx, reqCtx, logger); err != nil {
			return ctx, err
		}
	}

	if c.pathManager != nil {
		if _, err := c.pathManager.Initialize(reqCtx.SessionID, c.skillsDir); err != nil {
			// Skills are a best-effort enhancement, not a correctness
			// requirement
			logger.V(1).Info("failed to initialize session skills path", "error", err)
		}
	}

	return ctx, nil
}

func (c *ExecutionCallbacks) ensureSession(ctx context.Context, reqCtx *converters.RequestContext, logger logr.Logger) error {
	_, err := c.sessionService.GetSession(ctx, c.appName, reqCtx.UserID, reqCtx.SessionID)
	if err == nil {
		return nil
	}
	// Lookup failures of any kind mean "absent"; the create below settles it
	logger.V(1).Info("session lookup failed, creating session", "error", err)

	req := &session.CreateSessionRequest{
		AppName:   c.appName,
		UserID:    reqCtx.UserID,
		SessionID: reqCtx.SessionID,
	}
	if name := extractSessionName(reqCtx.Message); name != "" {
		req.State = map[string]interface{}{session.StateKeySessionName: name}
	}

	if _, err := c.sessionService.CreateSession(ctx, req); err != nil {
		return apperrors.New(apperrors.ErrCodeSessionCreate, "failed to create session", err)
	}
	return nil
}

// AfterExecution enriches the terminal event. When the task paused in
// input-required with pending tool approvals, the status message is replaced
// by a structured tool-approval message. This hook never fails the exchange.
func (c *ExecutionCallbacks) AfterExecution(reqCtx *converters.RequestContext, finalEvent *protocol.TaskStatusUpdateEvent, execErr error) error {
	if finalEvent == nil {
		return nil
	}

	logger := c.logger.WithValues(
		"task_id", reqCtx.TaskID,
		"session_id", reqCtx.SessionID,
		"state", string(finalEvent.Status.State),
	)
	if execErr != nil {
		logger = logger.WithValues("error", execErr.Error())
	}
	logger.Info("task execution finished")

	if finalEvent.Status.State != protocol.TaskStateInputRequired || finalEvent.Status.Message == nil {
		return nil
	}

	requests := ExtractApprovalRequests(finalEvent.Status.Message.Parts)
	if len(requests) == 0 {
		// A different kind of input-required pause, e.g. plain end-user
		// confirmation; leave the original message untouched
		return nil
	}

	message := BuildToolApprovalMessage(requests)
	message.TaskID = &reqCtx.TaskID
	message.ContextID = &reqCtx.ContextID
	finalEvent.Status.Message = &message
	return nil
}

// extractSessionName returns the first non-empty text of the message,
// normalized and truncated for display. Empty when the message carries no
// text.
func extractSessionName(msg *protocol.Message) string {
	if msg == nil {
		return ""
	}

	for _, part := range msg.Parts {
		var text string
		switch p := part.(type) {
		case *protocol.TextPart:
			text = p.Text
		case protocol.TextPart:
			text = p.Text
		}
		if text == "" {
			continue
		}

		text = norm.NFC.String(text)
		runes := []rune(text)
		if len(runes) > sessionNameMaxLen {
			return string(runes[:sessionNameMaxLen]) + sessionNameSuffix
		}
		return text
	}
	return ""
}
