package linefollow

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
	"xwkbot/beeper"
	"xwkbot/display"
	"xwkbot/input"
	"xwkbot/twowheeled"
)

var ErrNoSensors = errors.New("ir line sensors are not connected")

type Action int

const (
	Ahead Action = iota
	SteerLeft
	SteerRight
	Halt
)

func (a Action) String() string {
	switch a {
	case SteerLeft:
		return "left"
	case SteerRight:
		return "right"
	case Halt:
		return "halt"
	default:
		return "ahead"
	}
}

// Decide steers toward the side whose sensor sees the dark line.
func Decide(darkLeft bool, darkRight bool) Action {
	switch {
	case darkLeft && darkRight:
		return Halt
	case darkLeft:
		return SteerLeft
	case darkRight:
		return SteerRight
	default:
		return Ahead
	}
}

type Driver interface {
	Drive(left twowheeled.Command, right twowheeled.Command) error
	Stop() error
}

type Follower struct {
	Speed     int
	TurnSpeed int
	driver    Driver
	poller    *input.Poller
	display   display.Display
	beeper    beeper.Beeper
}

func New(driver Driver, poller *input.Poller, d display.Display, b beeper.Beeper) *Follower {
	return &Follower{
		Speed:     10,
		TurnSpeed: 20,
		driver:    driver,
		poller:    poller,
		display:   d,
		beeper:    b,
	}
}

// Step reads the IR sensors once and performs one drive call. IR inputs are active on reflection, so
// an inactive sensor is over the line.
func (f *Follower) Step() (Action, error) {
	snapshot := f.poller.Poll()
	action := Decide(!snapshot.Pressed(input.IRLeft), !snapshot.Pressed(input.IRRight))
	switch action {
	case Halt:
		return action, f.driver.Stop()
	case SteerLeft:
		return action, f.driver.Drive(twowheeled.TurnLeft(f.TurnSpeed))
	case SteerRight:
		return action, f.driver.Drive(twowheeled.TurnRight(f.TurnSpeed))
	default:
		return action, f.driver.Drive(twowheeled.GoForward(f.Speed))
	}
}

// Run follows the line until ctx is done. Crossing a dark bar stops and waits for A.
func (f *Follower) Run(ctx context.Context) error {
	if !f.poller.Has(input.IRLeft) || !f.poller.Has(input.IRRight) {
		return ErrNoSensors
	}
	f.display.Write("linefollow", display.Magenta)
	defer func() {
		if err := f.driver.Stop(); err != nil {
			log.WithError(err).Print("Could not stop motors")
		}
	}()
	last := Action(-1)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		action, err := f.Step()
		if err != nil {
			return err
		}
		if action != last {
			f.report(action)
			last = action
		}
		if action == Halt {
			if err := f.beeper.Beep(1000, 250*time.Millisecond); err != nil {
				log.WithError(err).Debug("Beep failed")
			}
			f.display.Write("Press A to continue", display.White)
			if err := f.poller.WaitFor(ctx, input.ButtonA, input.POLL_PERIOD); err != nil {
				return err
			}
			last = Action(-1)
		}
	}
}

func (f *Follower) report(action Action) {
	switch action {
	case Halt:
		f.display.Write("IR both DARK => STOP", display.Magenta)
	case SteerLeft:
		f.display.Write("IR LEFT  detected DARK", display.Green)
	case SteerRight:
		f.display.Write("IR RIGHT detected DARK", display.Red)
	}
}
