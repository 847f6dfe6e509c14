package selftest

import (
	"context"
	"sort"
	"time"

	"xwkbot/beeper"
	"xwkbot/display"
	"xwkbot/input"
	"xwkbot/twowheeled"
)

const MOTOR_TEST_SPEED = 40

type Driver interface {
	Drive(left twowheeled.Command, right twowheeled.Command) error
	Stop() error
}

type Ranger interface {
	Distance() (int, bool)
}

type Report struct {
	IRLeft     string       `json:"irLeft"`
	IRRight    string       `json:"irRight"`
	Distance   int          `json:"distance"`
	DistanceOK bool         `json:"distanceOk"`
	Motors     []string     `json:"motors"`
	Buttons    []input.Name `json:"buttons,omitempty"`
	Missing    []input.Name `json:"missing,omitempty"`
}

type Runner struct {
	Buttons []input.Name
	driver  Driver
	ranger  Ranger
	poller  *input.Poller
	display display.Display
	beeper  beeper.Beeper
	sleep   func(time.Duration)
}

func New(driver Driver, ranger Ranger, poller *input.Poller, d display.Display, b beeper.Beeper) *Runner {
	return &Runner{
		driver:  driver,
		ranger:  ranger,
		poller:  poller,
		display: d,
		beeper:  b,
		sleep:   time.Sleep,
	}
}

func (r *Runner) SetSleep(sleep func(time.Duration)) {
	r.sleep = sleep
}

// Run checks every peripheral once. When Buttons is set it also waits for each listed button.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	report := Report{}
	r.display.Write("selftest", display.Magenta)

	r.display.Write("Testing IR sensors...", display.Cyan)
	snapshot := r.poller.Poll()
	report.IRLeft = brightness(snapshot.Pressed(input.IRLeft))
	report.IRRight = brightness(snapshot.Pressed(input.IRRight))
	display.Writef(r.display, display.Yellow, "Left: %s Right: %s", report.IRLeft, report.IRRight)

	r.display.Write("Testing ultrasonic sensor...", display.Cyan)
	report.Distance, report.DistanceOK = r.ranger.Distance()
	if report.DistanceOK {
		display.Writef(r.display, display.Yellow, "Distance: %d cm", report.Distance)
	} else {
		r.display.Write("Error reading distance", display.Red)
	}

	r.display.Write("Testing motors...", display.Cyan)
	steps := []struct {
		name        string
		left, right twowheeled.Command
	}{
		{"Left motor forward", twowheeled.Command{Direction: twowheeled.Forward, Speed: MOTOR_TEST_SPEED}, twowheeled.Command{}},
		{"Left motor backward", twowheeled.Command{Direction: twowheeled.Backward, Speed: MOTOR_TEST_SPEED}, twowheeled.Command{}},
		{"Right motor forward", twowheeled.Command{}, twowheeled.Command{Direction: twowheeled.Forward, Speed: MOTOR_TEST_SPEED}},
		{"Right motor backward", twowheeled.Command{}, twowheeled.Command{Direction: twowheeled.Backward, Speed: MOTOR_TEST_SPEED}},
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		r.display.Write(step.name, display.Yellow)
		if err := r.driver.Drive(step.left, step.right); err != nil {
			r.driver.Stop()
			return report, err
		}
		r.sleep(200 * time.Millisecond)
		if err := r.driver.Stop(); err != nil {
			return report, err
		}
		report.Motors = append(report.Motors, step.name)
		r.sleep(500 * time.Millisecond)
	}
	r.display.Write("Motor test complete", display.Green)

	r.display.Write("1 - 2 - 3, let's make some noise!", display.Cyan)
	if err := Sweep(r.beeper); err != nil {
		return report, err
	}

	if len(r.Buttons) > 0 {
		pressed, missing, err := r.waitForButtons(ctx)
		report.Buttons = pressed
		report.Missing = missing
		if err != nil {
			return report, err
		}
		if len(missing) == 0 {
			r.display.Write("All buttons are working!", display.Green)
		}
	}
	r.display.Write("Test complete!", display.Magenta)
	return report, nil
}

// waitForButtons returns once every connected button in Buttons has been pressed.
func (r *Runner) waitForButtons(ctx context.Context) ([]input.Name, []input.Name, error) {
	wanted := make(map[input.Name]bool)
	var missing []input.Name
	for _, name := range r.Buttons {
		if !r.poller.Has(name) {
			display.Writef(r.display, display.Red, "%s is not connected", name)
			missing = append(missing, name)
			continue
		}
		wanted[name] = true
	}
	r.display.Write("Press all buttons", display.Cyan)
	seen := make(map[input.Name]bool)
	r.poller.Prime()
	for len(seen) < len(wanted) {
		if err := ctx.Err(); err != nil {
			return names(seen), missing, err
		}
		for _, name := range r.poller.Poll().Edges() {
			if wanted[name] && !seen[name] {
				seen[name] = true
				display.Writef(r.display, display.Yellow, "%s pressed", name)
			}
		}
		r.sleep(input.POLL_PERIOD)
	}
	return names(seen), missing, nil
}

// Sweep plays a rising then falling tone from 500Hz to 2kHz.
func Sweep(b beeper.Beeper) error {
	for freq := 500; freq <= 2000; freq += 100 {
		if err := b.Beep(freq, 25*time.Millisecond); err != nil {
			return err
		}
	}
	for freq := 2000; freq >= 500; freq -= 100 {
		if err := b.Beep(freq, 25*time.Millisecond); err != nil {
			return err
		}
	}
	return nil
}

func brightness(active bool) string {
	if active {
		return "bright"
	}
	return "dark"
}

func names(set map[input.Name]bool) []input.Name {
	var out []input.Name
	for name := range set {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
