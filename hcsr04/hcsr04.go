package hcsr04

import (
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
	"xwkbot/boterrors"
	"xwkbot/gpio"
)

// 500cm and back at the speed of sound
const ECHO_TIMEOUT = 30 * time.Millisecond

var ErrOutOfRange = errors.New("echo timed out, out of range")

type Trigger interface {
	SetValue(value gpio.Value) error
}

type Echo interface {
	Value() (gpio.Value, error)
}

type Sensor struct {
	trigger Trigger
	echo    Echo
	timeout time.Duration
	now     func() time.Time
	sleep   func(time.Duration)
}

func New(trigger Trigger, echo Echo) *Sensor {
	return &Sensor{
		trigger: trigger,
		echo:    echo,
		timeout: ECHO_TIMEOUT,
		now:     time.Now,
		sleep:   time.Sleep,
	}
}

// Measure returns the distance in centimeters.
func (s *Sensor) Measure() (int, error) {
	if err := s.trigger.SetValue(gpio.LOW); err != nil {
		return 0, err
	}
	s.sleep(5 * time.Microsecond)
	if err := s.trigger.SetValue(gpio.HIGH); err != nil {
		return 0, err
	}
	s.sleep(10 * time.Microsecond)
	if err := s.trigger.SetValue(gpio.LOW); err != nil {
		return 0, err
	}

	start, err := s.waitFor(gpio.HIGH, s.now())
	if err != nil {
		return 0, err
	}
	end, err := s.waitFor(gpio.LOW, start)
	if err != nil {
		return 0, err
	}
	// sound travels 1cm in 29.1us, the pulse covers the way there and back
	pulse := end.Sub(start)
	return int(float64(pulse.Microseconds()) / 2 / 29.1), nil
}

func (s *Sensor) waitFor(level gpio.Value, since time.Time) (time.Time, error) {
	for {
		value, err := s.echo.Value()
		if err != nil {
			return time.Time{}, err
		}
		now := s.now()
		if value == level {
			return now, nil
		}
		if now.Sub(since) > s.timeout {
			return time.Time{}, ErrOutOfRange
		}
	}
}

// Distance degrades every failure to a missing reading.
func (s *Sensor) Distance() (int, bool) {
	cm, err := s.Measure()
	if err != nil {
		log.WithError(boterrors.SensorReadError{Sensor: "hcsr04", Err: err}).Print("Error measuring distance")
		return 0, false
	}
	return cm, true
}
