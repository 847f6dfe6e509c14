// Package calibration runs the interactive motor alignment loop.
//
// The robot drives straight at a low speed while the operator nudges the trim with
// the left and right buttons until it tracks a straight line, then confirms with A.
package calibration

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"xwkbot/beeper"
	"xwkbot/display"
	"xwkbot/input"
	"xwkbot/twowheeled"
)

const (
	CONFIG_KEY    = "MOTOR_ALIGNMENT"
	DEFAULT_SPEED = 15
	LOOP_PERIOD   = 50 * time.Millisecond
)

type State int

const (
	Idle State = iota
	Adjusting
	Saved
)

func (s State) String() string {
	switch s {
	case Adjusting:
		return "adjusting"
	case Saved:
		return "saved"
	default:
		return "idle"
	}
}

type Store interface {
	GetInt(key string, def int) int
	Set(key string, value any)
	Save() error
}

type Driver interface {
	Drive(left twowheeled.Command, right twowheeled.Command) error
	Stop() error
	Settings() *twowheeled.Settings
}

type Result struct {
	Trim    int
	SaveErr error
}

type Loop struct {
	Speed   int
	Period  time.Duration
	driver  Driver
	poller  *input.Poller
	store   Store
	display display.Display
	beeper  beeper.Beeper
	sleep   func(time.Duration)
	state   State
}

func New(driver Driver, poller *input.Poller, store Store, d display.Display, b beeper.Beeper) *Loop {
	return &Loop{
		Speed:   DEFAULT_SPEED,
		Period:  LOOP_PERIOD,
		driver:  driver,
		poller:  poller,
		store:   store,
		display: d,
		beeper:  b,
		sleep:   time.Sleep,
	}
}

func (l *Loop) SetSleep(sleep func(time.Duration)) {
	l.sleep = sleep
}

func (l *Loop) State() State {
	return l.state
}

// Run blocks until A is pressed. The adjusted trim stays live in the driver settings
// even when saving fails; the save error is reported in Result.
func (l *Loop) Run(ctx context.Context) (Result, error) {
	settings := l.driver.Settings()
	trim := settings.SetTrim(l.store.GetInt(CONFIG_KEY, 0))
	l.state = Adjusting

	l.display.Clear()
	l.display.Write("Motor Alignment", display.Cyan)
	l.display.Write("Press LEFT/RIGHT to adjust", display.White)
	l.display.Write("LEFT = more to the left", display.Grey)
	l.display.Write("RIGHT = more to the right", display.Grey)
	l.display.Write("Press A to finish", display.Grey)
	display.Writef(l.display, display.Yellow, "Alignment: %+d", trim)

	l.poller.Prime()
	for {
		if err := ctx.Err(); err != nil {
			l.stop()
			l.state = Idle
			return Result{Trim: trim}, err
		}
		snapshot := l.poller.Poll()
		if snapshot.Edge(input.ButtonA) {
			break
		}
		switch {
		case snapshot.Edge(input.ButtonLeft):
			trim = settings.SetTrim(trim - 1)
			l.display.Write("LEFT", display.Grey)
			display.Writef(l.display, display.Yellow, "Alignment: %+d", trim)
			l.beep(1000, 100*time.Millisecond)
		case snapshot.Edge(input.ButtonRight):
			trim = settings.SetTrim(trim + 1)
			l.display.Write("RIGHT", display.Grey)
			display.Writef(l.display, display.Yellow, "Alignment: %+d", trim)
			l.beep(1500, 100*time.Millisecond)
		}
		if err := l.driver.Drive(twowheeled.GoForward(l.Speed)); err != nil {
			l.stop()
			l.state = Idle
			return Result{Trim: trim}, err
		}
		l.sleep(l.Period)
	}

	if err := l.driver.Stop(); err != nil {
		return Result{Trim: trim}, err
	}
	l.display.Clear()
	l.beep(1300, 250*time.Millisecond)
	l.display.Write("Alignment complete!", display.Green)
	display.Writef(l.display, display.Yellow, "Alignment: %+3d", trim)

	result := Result{Trim: trim}
	l.store.Set(CONFIG_KEY, trim)
	if err := l.store.Save(); err != nil {
		log.WithError(err).WithField("trim", trim).Print("Could not save motor alignment")
		l.display.Write("Error saving config", display.Red)
		result.SaveErr = err
	} else {
		l.display.Write("Saved in config.ini", display.Green)
	}
	l.state = Saved
	return result, nil
}

func (l *Loop) stop() {
	if err := l.driver.Stop(); err != nil {
		log.WithError(err).Print("Could not stop motors")
	}
}

func (l *Loop) beep(freq int, duration time.Duration) {
	if err := l.beeper.Beep(freq, duration); err != nil {
		log.WithError(err).Debug("Beep failed")
	}
}
