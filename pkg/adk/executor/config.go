package executor

import (
	"context"

	"github.com/go-logr/logr"
	"trpc.group/trpc-go/trpc-a2a-go/protocol"

	"github.com/kagent-dev/kagent-bridge/pkg/adk/config"
	"github.com/kagent-dev/kagent-bridge/pkg/adk/converters"
	"github.com/kagent-dev/kagent-bridge/pkg/adk/session"
)

// RunMode selects how task results are delivered to the protocol layer.
type RunMode string

const (
	// RunModeSync buffers events and responds once the task reaches a
	// terminal state.
	RunModeSync RunMode = "sync"
	// RunModeSSE streams events as server-sent events while the task runs.
	RunModeSSE RunMode = "sse"
)

// BeforeExecutionCallback runs before the runtime invocation of a task. It
// may decorate the context; a returned error aborts the task.
type BeforeExecutionCallback func(ctx context.Context, reqCtx *converters.RequestContext) (context.Context, error)

// AfterExecutionCallback runs exactly once after the terminal event of a
// task, with the error the runtime invocation ended with (nil on success).
// It may mutate the final event in place.
type AfterExecutionCallback func(reqCtx *converters.RequestContext, finalEvent *protocol.TaskStatusUpdateEvent, execErr error) error

// PartToA2AConverter converts one runtime part to its wire form. A nil part
// with nil error means nothing is emitted for this step.
type PartToA2AConverter func(part *converters.Part, longRunningToolIDs map[string]bool) (protocol.Part, error)

// A2APartConverter converts one wire part to its runtime form.
type A2APartConverter func(part protocol.Part) (*converters.Part, error)

// Config wires the extension points of the A2A executor. The executor itself
// is generic; everything kagent-specific arrives through the callbacks and
// converters bound here.
type Config struct {
	AppName         string
	RunMode         RunMode
	SkillsDirectory string

	RunnerConfig   *config.RunnerConfig
	SessionService session.Service
	PathManager    *session.PathManager
	Logger         logr.Logger

	BeforeExecution      BeforeExecutionCallback
	AfterExecution       AfterExecutionCallback
	ConvertPartToA2A     PartToA2AConverter
	ConvertA2APartToPart A2APartConverter
}
