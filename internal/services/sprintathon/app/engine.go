package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/sprintathon/sprintathon/internal/platform/timeouts"
	"github.com/sprintathon/sprintathon/internal/services/sprintathon/render"
	"github.com/sprintathon/sprintathon/internal/services/sprintathon/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/sprintathon/sprintathon/internal/services/sprintathon/app"

// Messenger delivers text to a chat channel.
type Messenger interface {
	SendMessage(ctx context.Context, channelID, text string) error
}

// Clock supplies time and cancellable waits to session tasks.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done, returning ctx.Err() in the
	// latter case.
	Sleep(ctx context.Context, d time.Duration) error
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Timing holds the phase lengths of the session state machine.
type Timing struct {
	// CheckInWindow is how long members have to report a final count after
	// a sprint's time is up.
	CheckInWindow time.Duration
	// FinalHourWarning is how long before a sprintathon ends the warning is
	// posted. Zero disables the warning.
	FinalHourWarning time.Duration
	// SprintWait and SprintathonWait, when set, replace any positive
	// remaining wait with a fixed short one.
	SprintWait      time.Duration
	SprintathonWait time.Duration
}

// ProductionTiming returns the live-deployment phase lengths.
func ProductionTiming() Timing {
	return Timing{
		CheckInWindow:    7 * time.Minute,
		FinalHourWarning: time.Hour,
	}
}

// DebugTiming returns short phase lengths for a debug deployment.
func DebugTiming() Timing {
	return Timing{
		CheckInWindow:   15 * time.Second,
		SprintWait:      10 * time.Second,
		SprintathonWait: 90 * time.Second,
	}
}

func shorten(remaining, override time.Duration) time.Duration {
	if override > 0 && remaining > 0 {
		return override
	}
	return remaining
}

// checkInWindowMinutes rounds the window up for display.
func (t Timing) checkInWindowMinutes() int {
	return int(math.Ceil(t.CheckInWindow.Minutes()))
}

// Deps wires the engine's collaborators.
type Deps struct {
	Store     storage.Store
	Messenger Messenger
	Renderer  *render.Renderer
	Clock     Clock
	Timing    Timing
	Tracer    trace.Tracer
	// Lifetime bounds every session task; it is usually the process context.
	Lifetime context.Context
}

// Engine runs the sprint and sprintathon state machines. The store is the
// only authority on whether a session is still running; tasks re-read it
// after every wait.
type Engine struct {
	store     storage.Store
	messenger Messenger
	render    *render.Renderer
	clock     Clock
	timing    Timing
	tracer    trace.Tracer
	lifetime  context.Context

	spawn func(task func())
	wg    sync.WaitGroup
}

// NewEngine builds an engine from deps, filling defaults for optional fields.
func NewEngine(deps Deps) (*Engine, error) {
	if deps.Store == nil {
		return nil, errors.New("store is required")
	}
	if deps.Messenger == nil {
		return nil, errors.New("messenger is required")
	}
	e := &Engine{
		store:     deps.Store,
		messenger: deps.Messenger,
		render:    deps.Renderer,
		clock:     deps.Clock,
		timing:    deps.Timing,
		tracer:    deps.Tracer,
		lifetime:  deps.Lifetime,
	}
	if e.render == nil {
		e.render = render.New(nil, "!")
	}
	if e.clock == nil {
		e.clock = systemClock{}
	}
	if e.timing == (Timing{}) {
		e.timing = ProductionTiming()
	}
	if e.tracer == nil {
		e.tracer = otel.Tracer(tracerName)
	}
	if e.lifetime == nil {
		e.lifetime = context.Background()
	}
	e.spawn = e.goTask
	return e, nil
}

func (e *Engine) goTask(task func()) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		task()
	}()
}

// Wait blocks until every running session task has returned.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// send posts text to a channel, logging delivery failures.
func (e *Engine) send(ctx context.Context, channelID, text string) {
	if text == "" {
		return
	}
	sendCtx, cancel := context.WithTimeout(ctx, timeouts.MessageSend)
	defer cancel()
	if err := e.messenger.SendMessage(sendCtx, channelID, text); err != nil {
		log.Printf("send message to channel %s: %v", channelID, err)
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}

func wrapStore(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
