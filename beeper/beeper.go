package beeper

import (
	"time"
)

type Beeper interface {
	Beep(freq int, duration time.Duration) error
}

// Tone is the PWM side of a passive buzzer.
type Tone interface {
	SetFrequency(hz int) error
	SetDuty(value int) error
	MaxDuty() int
	Enable() error
	Disable() error
}

type PWMBeeper struct {
	tone  Tone
	sleep func(time.Duration)
}

func New(tone Tone) *PWMBeeper {
	return &PWMBeeper{tone: tone, sleep: time.Sleep}
}

// Beep plays a square wave at half duty, blocks for duration and leaves the channel disabled.
func (b *PWMBeeper) Beep(freq int, duration time.Duration) error {
	if err := b.tone.SetFrequency(freq); err != nil {
		return err
	}
	if err := b.tone.Enable(); err != nil {
		return err
	}
	if err := b.tone.SetDuty(b.tone.MaxDuty() / 2); err != nil {
		b.tone.Disable()
		return err
	}
	b.sleep(duration)
	if err := b.tone.SetDuty(0); err != nil {
		b.tone.Disable()
		return err
	}
	return b.tone.Disable()
}

// Silent is used when the board profile has no buzzer.
type Silent struct{}

func (Silent) Beep(freq int, duration time.Duration) error {
	return nil
}
