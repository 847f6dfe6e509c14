package twowheeled

import (
	"errors"
	"math"
	"time"

	log "github.com/sirupsen/logrus"
	"xwkbot/battery"
	"xwkbot/pwm"
)

var ErrDirectionRequired = errors.New("direction is required for a nonzero speed")

// Wheel is an H-bridge half: one PWM channel per rotation direction.
type Wheel struct {
	Forward  pwm.Channel
	Backward pwm.Channel
}

type Controller struct {
	settings  *Settings
	left      Wheel
	right     Wheel
	battery   battery.VoltageReader
	sleep     func(time.Duration)
	leftOn    bool
	rightOn   bool
	lastLeft  Command
	lastRight Command
}

func NewController(settings *Settings, left Wheel, right Wheel, reader battery.VoltageReader) *Controller {
	return &Controller{
		settings: settings,
		left:     left,
		right:    right,
		battery:  reader,
		sleep:    time.Sleep,
	}
}

func (c *Controller) Settings() *Settings {
	return c.settings
}

// SetSleep replaces the blocking delay used for kick-start and hold.
func (c *Controller) SetSleep(sleep func(time.Duration)) {
	c.sleep = sleep
}

func (c *Controller) Last() (Command, Command) {
	return c.lastLeft, c.lastRight
}

func (c *Controller) Moving() bool {
	return c.leftOn || c.rightOn
}

// Drive sets both wheels. It blocks for up to KickStartDuration+MinActiveDuration
// while a wheel is moving and returns at once when both wheels stop.
func (c *Controller) Drive(left Command, right Command) error {
	if (left.Direction == Stop && left.Speed > 0) || (right.Direction == Stop && right.Speed > 0) {
		return ErrDirectionRequired
	}
	leftSpeed := float64(min(max(left.Speed, 0), 100))
	rightSpeed := float64(min(max(right.Speed, 0), 100))

	if leftSpeed > 0 && rightSpeed > 0 {
		leftSpeed, rightSpeed = applyTrim(leftSpeed, rightSpeed, c.settings.Trim)
	}

	if leftSpeed > 0 || rightSpeed > 0 {
		voltage, err := c.battery.ReadVoltage()
		if err != nil {
			return err
		}
		factor := Compensation(voltage, c.settings)
		leftSpeed = min(100, leftSpeed*factor)
		rightSpeed = min(100, rightSpeed*factor)
	}

	leftDuty := Duty(leftSpeed, c.settings.MaxDuty)
	rightDuty := Duty(rightSpeed, c.settings.MaxDuty)
	leftKick := leftDuty > 0 && !c.leftOn
	rightKick := rightDuty > 0 && !c.rightOn
	kickDuty := Duty(float64(c.settings.KickStartSpeed), c.settings.MaxDuty)

	log.WithFields(log.Fields{
		"left":      left,
		"right":     right,
		"leftDuty":  leftDuty,
		"rightDuty": rightDuty,
	}).Debug("Drive")

	if leftKick || rightKick {
		if err := c.setLeft(left, pick(leftKick, kickDuty, leftDuty)); err != nil {
			return err
		}
		if err := c.setRight(right, pick(rightKick, kickDuty, rightDuty)); err != nil {
			return err
		}
		c.sleep(c.settings.KickStartDuration)
	}
	if err := c.setLeft(left, leftDuty); err != nil {
		return err
	}
	if err := c.setRight(right, rightDuty); err != nil {
		return err
	}

	if c.leftOn || c.rightOn {
		c.sleep(c.settings.MinActiveDuration)
	}
	return nil
}

func (c *Controller) Stop() error {
	return c.Drive(Halt())
}

// setLeft and setRight record a wheel as moving only once its write succeeded.
func (c *Controller) setLeft(cmd Command, duty int) error {
	if err := c.write(c.left, cmd.Direction, duty); err != nil {
		return err
	}
	c.leftOn = duty > 0
	c.lastLeft = cmd
	return nil
}

func (c *Controller) setRight(cmd Command, duty int) error {
	if err := c.write(c.right, cmd.Direction, duty); err != nil {
		return err
	}
	c.rightOn = duty > 0
	c.lastRight = cmd
	return nil
}

// write drives the idle channel low before raising the active one.
func (c *Controller) write(w Wheel, direction Direction, duty int) error {
	if duty == 0 {
		if err := w.Forward.SetDuty(0); err != nil {
			return err
		}
		return w.Backward.SetDuty(0)
	}
	active, idle := w.Forward, w.Backward
	if direction == Backward {
		active, idle = w.Backward, w.Forward
	}
	if err := idle.SetDuty(0); err != nil {
		return err
	}
	return active.SetDuty(duty)
}

func applyTrim(left float64, right float64, trim int) (float64, float64) {
	trim = ClampTrim(trim)
	if trim < 0 {
		left = max(0, left*(1+float64(trim)/100))
	} else if trim > 0 {
		right = max(0, right*(1-float64(trim)/100))
	}
	return left, right
}

func Duty(speed float64, maxDuty int) int {
	return int(math.Round(speed * float64(maxDuty) / 100))
}

func pick(kick bool, kickDuty int, duty int) int {
	if kick {
		return kickDuty
	}
	return duty
}
