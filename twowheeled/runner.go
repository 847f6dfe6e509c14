package twowheeled

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"
)

var ErrRunnerStopped = errors.New("drive runner is not running")

type request struct {
	fn   func(*Controller) error
	done chan error
}

// Runner owns a Controller on a single goroutine. Callers from other goroutines
// submit work through Do and wait for the drive call to finish.
type Runner struct {
	ctrl     *Controller
	requests chan request
	stopped  chan struct{}
}

func NewRunner(ctrl *Controller, buffSize int) *Runner {
	return &Runner{
		ctrl:     ctrl,
		requests: make(chan request, buffSize),
		stopped:  make(chan struct{}),
	}
}

// Run processes requests until ctx is done, then stops both wheels.
func (r *Runner) Run(ctx context.Context) {
	defer close(r.stopped)
	for {
		select {
		case <-ctx.Done():
			if err := r.ctrl.Stop(); err != nil {
				log.WithError(err).Print("Could not stop wheels")
			}
			return
		case req := <-r.requests:
			req.done <- req.fn(r.ctrl)
		}
	}
}

// Done is closed once Run has stopped the wheels and returned.
func (r *Runner) Done() <-chan struct{} {
	return r.stopped
}

func (r *Runner) Do(ctx context.Context, fn func(*Controller) error) error {
	req := request{fn: fn, done: make(chan error, 1)}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-r.stopped:
		return ErrRunnerStopped
	case r.requests <- req:
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-r.stopped:
		return ErrRunnerStopped
	case err := <-req.done:
		return err
	}
}

func (r *Runner) Submit(ctx context.Context, left Command, right Command) error {
	return r.Do(ctx, func(c *Controller) error {
		return c.Drive(left, right)
	})
}

func (r *Runner) Stop(ctx context.Context) error {
	return r.Do(ctx, func(c *Controller) error {
		return c.Stop()
	})
}

// SetTrim returns the trim after clamping.
func (r *Runner) SetTrim(ctx context.Context, trim int) (int, error) {
	var applied int
	err := r.Do(ctx, func(c *Controller) error {
		applied = c.Settings().SetTrim(trim)
		return nil
	})
	return applied, err
}

type State struct {
	Left   Command `json:"left"`
	Right  Command `json:"right"`
	Moving bool    `json:"moving"`
	Trim   int     `json:"trim"`
}

func (r *Runner) State(ctx context.Context) (State, error) {
	var state State
	err := r.Do(ctx, func(c *Controller) error {
		state.Left, state.Right = c.Last()
		state.Moving = c.Moving()
		state.Trim = c.Settings().Trim
		return nil
	})
	return state, err
}
