package executor

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"trpc.group/trpc-go/trpc-a2a-go/protocol"

	"github.com/kagent-dev/kagent-bridge/pkg/adk/converters"
	apperrors "github.com/kagent-dev/kagent-bridge/pkg/adk/errors"
)

var tasksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "kagent",
	Subsystem: "bridge",
	Name:      "tasks_total",
	Help:      "Terminal task states emitted by the A2A executor.",
}, []string{"state"})

// A2AExecutor drives one runtime invocation per inbound task and adapts the
// event stream to A2A protocol events. It holds no per-task state; many
// tasks may execute concurrently on the same executor.
type A2AExecutor struct {
	cfg              *Config
	requestConverter *converters.RequestConverter
	eventConverter   *converters.EventConverter
}

// NewA2AExecutor creates an executor from the configuration bundle. Part
// converters from the config take precedence over the default codec.
func NewA2AExecutor(cfg *Config) *A2AExecutor {
	if cfg.RunMode == "" {
		cfg.RunMode = RunModeSync
	}

	requestConverter := converters.NewRequestConverter()
	if cfg.ConvertA2APartToPart != nil {
		requestConverter = converters.NewRequestConverterWith(cfg.ConvertA2APartToPart)
	}
	eventConverter := converters.NewEventConverter()
	if cfg.ConvertPartToA2A != nil {
		eventConverter = converters.NewEventConverterWith(cfg.ConvertPartToA2A)
	}

	return &A2AExecutor{
		cfg:              cfg,
		requestConverter: requestConverter,
		eventConverter:   eventConverter,
	}
}

// ExecuteTask runs a single task to its terminal state, writing protocol
// events to queue. Exactly one final status event is written per call. The
// returned error covers execution setup only; runtime failures surface as a
// failed terminal event.
func (e *A2AExecutor) ExecuteTask(
	ctx context.Context,
	reqCtx *converters.RequestContext,
	queue chan<- protocol.StreamingMessageEvent,
) error {
	logger := e.cfg.Logger.WithValues("task_id", reqCtx.TaskID, "context_id", reqCtx.ContextID)

	if e.cfg.BeforeExecution != nil {
		decorated, err := e.cfg.BeforeExecution(ctx, reqCtx)
		if err != nil {
			logger.Error(err, "before-execution callback failed")
			e.finishTask(ctx, reqCtx, failureEvent(reqCtx, err), err, queue)
			return apperrors.New(apperrors.ErrCodeExecutorFailed, "execution setup failed", err)
		}
		ctx = decorated
	}

	runArgs, err := e.requestConverter.Convert(reqCtx)
	if err != nil {
		logger.Error(err, "failed to convert request")
		e.finishTask(ctx, reqCtx, failureEvent(reqCtx, err), err, queue)
		return apperrors.New(apperrors.ErrCodeExecutorFailed, "failed to convert request", err)
	}

	runner := e.cfg.RunnerConfig.Runner
	events, err := runner.Run(ctx, runArgs)
	if err != nil {
		logger.Error(err, "runner start failed")
		e.finishTask(ctx, reqCtx, failureEvent(reqCtx, err), err, queue)
		return apperrors.New(apperrors.ErrCodeExecutorFailed, "runner start failed", err)
	}
	// The event loop may exit before the channel closes; discard stragglers
	// so a runner that emits after its terminal marker can still close
	defer drainEvents(events)

	var (
		finalEvent *protocol.TaskStatusUpdateEvent
		runErr     error
	)

	for event := range events {
		if isTerminalEvent(event) {
			finalEvent, runErr = e.terminalStatusEvent(event, reqCtx)
			break
		}

		streamEvents, err := e.eventConverter.Convert(event, reqCtx.TaskID, reqCtx.ContextID)
		if err != nil {
			logger.Error(err, "failed to convert runtime event")
			runErr = err
			finalEvent = failureEvent(reqCtx, err)
			break
		}
		for _, streamEvent := range streamEvents {
			if err := push(ctx, queue, streamEvent); err != nil {
				return err
			}
		}
	}

	if finalEvent == nil {
		// Channel closed without an explicit terminal event
		if err := ctx.Err(); err != nil {
			finalEvent = converters.NewStatusEvent(reqCtx.TaskID, reqCtx.ContextID,
				protocol.TaskStateCanceled, nil, true)
			runErr = err
		} else {
			finalEvent = converters.NewStatusEvent(reqCtx.TaskID, reqCtx.ContextID,
				protocol.TaskStateCompleted, nil, true)
		}
	}

	return e.finishTask(ctx, reqCtx, finalEvent, runErr, queue)
}

// finishTask runs the after-execution callback and emits the final event.
func (e *A2AExecutor) finishTask(
	ctx context.Context,
	reqCtx *converters.RequestContext,
	finalEvent *protocol.TaskStatusUpdateEvent,
	runErr error,
	queue chan<- protocol.StreamingMessageEvent,
) error {
	if e.cfg.AfterExecution != nil {
		if err := e.cfg.AfterExecution(reqCtx, finalEvent, runErr); err != nil {
			e.cfg.Logger.Error(err, "after-execution callback failed", "task_id", reqCtx.TaskID)
		}
	}

	tasksTotal.WithLabelValues(string(finalEvent.Status.State)).Inc()
	return push(ctx, queue, protocol.StreamingMessageEvent{Result: finalEvent})
}

// terminalStatusEvent maps a terminal runtime event to the final protocol
// event for the task.
func (e *A2AExecutor) terminalStatusEvent(
	event *converters.Event,
	reqCtx *converters.RequestContext,
) (*protocol.TaskStatusUpdateEvent, error) {
	state := converters.TerminalTaskState(event)

	if event.Error != nil {
		message := converters.ConvertErrorToMessage(event.Error, reqCtx.TaskID, reqCtx.ContextID)
		return converters.NewStatusEvent(reqCtx.TaskID, reqCtx.ContextID, state, message, true),
			apperrors.New(event.Error.Code, event.Error.Message, nil)
	}

	var message *protocol.Message
	if event.Content != nil {
		converted, err := e.eventConverter.ConvertContentToMessage(
			event.Content, event.LongRunningToolIDSet(), reqCtx.TaskID, reqCtx.ContextID)
		if err != nil {
			message = converters.ConvertErrorToMessage(&converters.ErrorInfo{
				Code:    apperrors.ErrCodeConversion,
				Message: "failed to convert terminal content",
				Details: err.Error(),
			}, reqCtx.TaskID, reqCtx.ContextID)
			return converters.NewStatusEvent(reqCtx.TaskID, reqCtx.ContextID,
				protocol.TaskStateFailed, message, true), err
		}
		message = converted
	}

	return converters.NewStatusEvent(reqCtx.TaskID, reqCtx.ContextID, state, message, true), nil
}

func failureEvent(reqCtx *converters.RequestContext, err error) *protocol.TaskStatusUpdateEvent {
	message := converters.ConvertErrorToMessage(&converters.ErrorInfo{
		Code:    apperrors.ErrCodeExecutorFailed,
		Message: "task execution failed",
		Details: err.Error(),
	}, reqCtx.TaskID, reqCtx.ContextID)
	return converters.NewStatusEvent(reqCtx.TaskID, reqCtx.ContextID, protocol.TaskStateFailed, message, true)
}

func isTerminalEvent(event *converters.Event) bool {
	switch event.Type {
	case converters.EventTypeComplete, converters.EventTypeError:
		return true
	case converters.EventTypeStateUpdate:
		switch event.State {
		case protocol.TaskStateInputRequired, protocol.TaskStateAuthRequired,
			protocol.TaskStateCompleted, protocol.TaskStateFailed, protocol.TaskStateCanceled:
			return true
		}
	}
	return false
}

func drainEvents(events <-chan *converters.Event) {
	go func() {
		for range events {
		}
	}()
}

func push(ctx context.Context, queue chan<- protocol.StreamingMessageEvent, event protocol.StreamingMessageEvent) error {
	select {
	case queue <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
