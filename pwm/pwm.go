package pwm

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"xwkbot/boterrors"
)

type Bus int

const (
	Bus0 Bus = 0
	Bus1 Bus = 1
	Bus2 Bus = 2
)

type Output string

const (
	OutputA Output = "a"
	OutputB Output = "b"
)

type Polarity string

const (
	PolarityNormal   Polarity = "normal"
	PolarityInversed Polarity = "inversed"
)

const DUTY_MAX_DEFAULT = 1023

// Channel is a single PWM output driven with a duty value in 0..MaxDuty.
type Channel interface {
	SetDuty(value int) error
}

type PWM struct {
	mu        sync.Mutex
	dir       string
	maxDuty   int
	period    time.Duration
	enable    string
	dutyCycle string
	periodF   string
	polarity  string
}

func BonePath(bus Bus, output Output) string {
	return fmt.Sprintf("/dev/bone/pwm/%d/%s", bus, output)
}

func ChipPath(chip int, index int) string {
	return fmt.Sprintf("/sys/class/pwm/pwmchip%d/pwm%d", chip, index)
}

func NewPWM(dir string, maxDuty int) *PWM {
	if maxDuty <= 0 {
		maxDuty = DUTY_MAX_DEFAULT
	}
	return &PWM{
		dir:       dir,
		maxDuty:   maxDuty,
		enable:    filepath.Join(dir, "enable"),
		dutyCycle: filepath.Join(dir, "duty_cycle"),
		periodF:   filepath.Join(dir, "period"),
		polarity:  filepath.Join(dir, "polarity"),
	}
}

// Open configures the channel at dir for frequency and leaves it enabled at duty 0.
func Open(dir string, maxDuty int, frequency int) (*PWM, error) {
	pwm := NewPWM(dir, maxDuty)
	if err := pwm.SetFrequency(frequency); err != nil {
		log.Print("Could not set pwm period: ", err)
		return nil, err
	}
	if err := pwm.Polarity(PolarityNormal); err != nil {
		log.Print("Could not set pwm polarity: ", err)
		return nil, err
	}
	if err := pwm.Enable(); err != nil {
		log.Print("Could not enable pwm: ", err)
		return nil, err
	}
	if err := pwm.SetDuty(0); err != nil {
		return nil, err
	}
	return pwm, nil
}

func (pwm *PWM) MaxDuty() int {
	return pwm.maxDuty
}

func (pwm *PWM) Enable() error {
	return pwm.write(pwm.enable, "1")
}

func (pwm *PWM) Disable() error {
	return pwm.write(pwm.enable, "0")
}

func (pwm *PWM) Polarity(polarity Polarity) error {
	return pwm.write(pwm.polarity, string(polarity))
}

func (pwm *PWM) Period(period time.Duration) error {
	pwm.mu.Lock()
	defer pwm.mu.Unlock()
	// the kernel rejects a period shorter than the current duty cycle
	if err := pwm.write(pwm.dutyCycle, "0"); err != nil {
		return err
	}
	if err := pwm.write(pwm.periodF, fmt.Sprintf("%d", period.Nanoseconds())); err != nil {
		return err
	}
	pwm.period = period
	return nil
}

func (pwm *PWM) SetFrequency(hz int) error {
	if hz <= 0 {
		return boterrors.PeripheralWriteError{
			Peripheral: pwm.dir,
			Err:        fmt.Errorf("invalid frequency %d", hz),
		}
	}
	return pwm.Period(time.Second / time.Duration(hz))
}

func (pwm *PWM) DutyCycle(dutyCycle time.Duration) error {
	return pwm.write(pwm.dutyCycle, fmt.Sprintf("%d", dutyCycle.Nanoseconds()))
}

// SetDuty scales value from 0..MaxDuty onto the configured period.
func (pwm *PWM) SetDuty(value int) error {
	value = min(max(value, 0), pwm.maxDuty)
	pwm.mu.Lock()
	period := pwm.period
	pwm.mu.Unlock()
	return pwm.DutyCycle(period * time.Duration(value) / time.Duration(pwm.maxDuty))
}

func (pwm *PWM) write(path string, value string) error {
	if err := os.WriteFile(path, []byte(value), 0666); err != nil {
		return boterrors.PeripheralWriteError{Peripheral: pwm.dir, Err: err}
	}
	return nil
}
