package workflows

import (
	"errors"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/vehicle-tracker/internal/core/domain"
	"github.com/samirrijal/vehicle-tracker/internal/core/playback"
)

// FrameQuery returns the frame the replay currently shows.
const FrameQuery = "frame"

// ReplayInput is the input for the replay workflow.
type ReplayInput struct {
	VehicleID string
	Interval  time.Duration
	Pattern   playback.Pattern
}

// ReplayResult summarises a finished replay.
type ReplayResult struct {
	Records   int
	Cursor    int
	Phase     domain.Phase
	Published int
}

// ReplayWorkflow plays the stored route back durably: one timer per tick,
// one PublishFrame activity per emitted frame. A failed fetch ends the
// workflow with the state still uninitialized. Cancelling the workflow
// stops the replay.
func ReplayWorkflow(ctx workflow.Context, input ReplayInput) (ReplayResult, error) {
	logger := workflow.GetLogger(ctx)
	if input.Interval <= 0 {
		input.Interval = playback.DefaultInterval
	}

	state := playback.NewState()
	result := ReplayResult{Phase: domain.PhaseUninitialized}

	if err := workflow.SetQueryHandler(ctx, FrameQuery, func() (domain.Frame, error) {
		return state.Frame(input.Pattern), nil
	}); err != nil {
		return result, err
	}

	// A route fetch is tried once; the playback has no retry either.
	fetchCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
	})
	publishCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Second,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 3},
	})

	var route domain.Route
	if err := workflow.ExecuteActivity(fetchCtx, "FetchRoute").Get(ctx, &route); err != nil {
		logger.Warn("route fetch failed, replay stays uninitialized", "error", err)
		return result, err
	}
	state.Load(route)
	result.Records = state.Len()
	logger.Info("Starting replay", "records", result.Records, "interval", input.Interval.String())

	publish := func() {
		frame := state.Frame(input.Pattern)
		err := workflow.ExecuteActivity(publishCtx, "PublishFrame", input.VehicleID, frame).Get(ctx, nil)
		if err != nil {
			logger.Warn("frame publish failed", "cursor", frame.Cursor, "error", err)
			return
		}
		result.Published++
	}
	publish()

	for state.Len() > 0 && state.Phase() != domain.PhaseCompleted {
		if err := workflow.Sleep(ctx, input.Interval); err != nil {
			state.Stop()
			result.Cursor, result.Phase = state.Cursor(), state.Phase()
			var canceled *temporal.CanceledError
			if errors.As(err, &canceled) {
				logger.Info("Replay cancelled", "cursor", result.Cursor)
			}
			return result, err
		}
		if state.Advance() {
			publish()
		}
	}

	result.Cursor, result.Phase = state.Cursor(), state.Phase()
	logger.Info("Replay completed", "cursor", result.Cursor, "published", result.Published)
	return result, nil
}
