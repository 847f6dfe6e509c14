// Package robot wires config.ini, the board profile and the environment into live peripherals.
package robot

import (
	"errors"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
	"xwkbot/battery"
	"xwkbot/beeper"
	"xwkbot/board"
	"xwkbot/calibration"
	"xwkbot/display"
	"xwkbot/gpio"
	"xwkbot/hcsr04"
	"xwkbot/i2c"
	"xwkbot/ina219"
	"xwkbot/input"
	"xwkbot/kvconf"
	"xwkbot/pwm"
	"xwkbot/settings"
	"xwkbot/twowheeled"
)

const (
	KEY_LEFT_FORWARD   = "LEFT_FORWARD_PIN"
	KEY_LEFT_BACKWARD  = "LEFT_BACKWARD_PIN"
	KEY_RIGHT_FORWARD  = "RIGHT_FORWARD_PIN"
	KEY_RIGHT_BACKWARD = "RIGHT_BACKWARD_PIN"
	KEY_TRIGGER        = "TRIGGER_PIN"
	KEY_ECHO           = "ECHO_PIN"
	KEY_IR_LEFT        = "IR_LEFT_PIN"
	KEY_IR_RIGHT       = "IR_RIGHT_PIN"
	KEY_UP             = "UP_PIN"
	KEY_DOWN           = "DOWN_PIN"
	KEY_LEFT           = "LEFT_PIN"
	KEY_RIGHT          = "RIGHT_PIN"
	KEY_A              = "A_PIN"
	KEY_BEEPER         = "BEEPER_PIN"
	KEY_BATTERY        = "BATTERY_PIN"
	KEY_MAX_DUTY       = "MOTOR_MAX_DUTY"
	KEY_FREQUENCY      = "MOTOR_FREQUENCY"
)

// Pins are board-independent pin numbers as stored in config.ini.
type Pins struct {
	LeftForward   int
	LeftBackward  int
	RightForward  int
	RightBackward int
	Trigger       int
	Echo          int
	IRLeft        int
	IRRight       int
	Up            int
	Down          int
	Left          int
	Right         int
	A             int
	Beeper        int
	Battery       int
}

func DefaultPins() Pins {
	return Pins{
		LeftForward:   12,
		LeftBackward:  13,
		RightForward:  14,
		RightBackward: 15,
		Trigger:       5,
		Echo:          18,
		IRLeft:        32,
		IRRight:       33,
		Up:            21,
		Down:          22,
		Left:          23,
		Right:         19,
		A:             4,
		Beeper:        26,
		Battery:       35,
	}
}

type Reader interface {
	GetInt(key string, def int) int
}

func PinsFrom(config Reader) Pins {
	d := DefaultPins()
	return Pins{
		LeftForward:   config.GetInt(KEY_LEFT_FORWARD, d.LeftForward),
		LeftBackward:  config.GetInt(KEY_LEFT_BACKWARD, d.LeftBackward),
		RightForward:  config.GetInt(KEY_RIGHT_FORWARD, d.RightForward),
		RightBackward: config.GetInt(KEY_RIGHT_BACKWARD, d.RightBackward),
		Trigger:       config.GetInt(KEY_TRIGGER, d.Trigger),
		Echo:          config.GetInt(KEY_ECHO, d.Echo),
		IRLeft:        config.GetInt(KEY_IR_LEFT, d.IRLeft),
		IRRight:       config.GetInt(KEY_IR_RIGHT, d.IRRight),
		Up:            config.GetInt(KEY_UP, d.Up),
		Down:          config.GetInt(KEY_DOWN, d.Down),
		Left:          config.GetInt(KEY_LEFT, d.Left),
		Right:         config.GetInt(KEY_RIGHT, d.Right),
		A:             config.GetInt(KEY_A, d.A),
		Beeper:        config.GetInt(KEY_BEEPER, d.Beeper),
		Battery:       config.GetInt(KEY_BATTERY, d.Battery),
	}
}

// SettingsFrom applies the stored trim and motor tuning on top of the defaults.
func SettingsFrom(config Reader) *twowheeled.Settings {
	s := twowheeled.DefaultSettings()
	s.MaxDuty = config.GetInt(KEY_MAX_DUTY, s.MaxDuty)
	s.Frequency = config.GetInt(KEY_FREQUENCY, s.Frequency)
	s.SetTrim(config.GetInt(calibration.CONFIG_KEY, 0))
	return s
}

type Robot struct {
	Config     *kvconf.Store
	Board      *board.Profile
	Pins       Pins
	Settings   *twowheeled.Settings
	Controller *twowheeled.Controller
	Battery    battery.VoltageReader
	Poller     *input.Poller
	Ranger     Ranger
	Beeper     beeper.Beeper
	Display    display.Display
	closers    []io.Closer
}

type Ranger interface {
	Distance() (int, bool)
}

type noRanger struct{}

func (noRanger) Distance() (int, bool) {
	return 0, false
}

// Open loads config.ini and the board profile named by e and opens every peripheral.
// Motors and the battery are required, the rest degrade with a log line.
func Open(e *settings.Env) (*Robot, error) {
	config, err := kvconf.Load(e.CONFIG_FILE)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	profile, err := board.Load(e.BOARD_FILE)
	if err != nil {
		return nil, fmt.Errorf("board: %w", err)
	}
	r := &Robot{
		Config:   config,
		Board:    profile,
		Pins:     PinsFrom(config),
		Settings: SettingsFrom(config),
		Display:  display.NewConsole(log.StandardLogger()),
	}

	left, right, err := OpenWheels(profile, r.Pins, r.Settings)
	if err != nil {
		return nil, err
	}
	if r.Battery, err = r.openBattery(e); err != nil {
		r.Close()
		return nil, err
	}
	r.Controller = twowheeled.NewController(r.Settings, left, right, r.Battery)
	r.Beeper = r.openBeeper()
	r.Poller = r.openPoller()
	r.Ranger = r.openRanger()
	return r, nil
}

func OpenWheels(profile *board.Profile, pins Pins, s *twowheeled.Settings) (twowheeled.Wheel, twowheeled.Wheel, error) {
	channels := make([]pwm.Channel, 0, 4)
	for _, pin := range []int{pins.LeftForward, pins.LeftBackward, pins.RightForward, pins.RightBackward} {
		dir, err := profile.PWMDir(pin)
		if err != nil {
			return twowheeled.Wheel{}, twowheeled.Wheel{}, err
		}
		ch, err := pwm.Open(dir, s.MaxDuty, s.Frequency)
		if err != nil {
			return twowheeled.Wheel{}, twowheeled.Wheel{}, fmt.Errorf("motor pin %d: %w", pin, err)
		}
		channels = append(channels, ch)
	}
	left := twowheeled.Wheel{Forward: channels[0], Backward: channels[1]}
	right := twowheeled.Wheel{Forward: channels[2], Backward: channels[3]}
	return left, right, nil
}

func (r *Robot) openBattery(e *settings.Env) (battery.VoltageReader, error) {
	switch e.BATTERY_SOURCE {
	case settings.BatterySourceINA219:
		bus, err := i2c.Open(i2c.BusNumber(e.I2C_BUS))
		if err != nil {
			return nil, fmt.Errorf("i2c bus %d: %w", e.I2C_BUS, err)
		}
		r.closers = append(r.closers, bus)
		ina, err := ina219.New(bus, ina219.ADDRESS_DEFAULT)
		if err != nil {
			return nil, err
		}
		return battery.NewINA219Sensor(ina), nil
	case settings.BatterySourceADC, "":
		ch, err := r.Board.ADCChannel(r.Pins.Battery)
		if err != nil {
			return nil, err
		}
		return battery.NewSensor(ch.Open(), battery.DefaultSensorConfig()), nil
	default:
		return nil, errors.New("unknown battery source " + e.BATTERY_SOURCE)
	}
}

func (r *Robot) openBeeper() beeper.Beeper {
	dir, err := r.Board.PWMDir(r.Pins.Beeper)
	if err != nil {
		log.Print("Beeper disabled: ", err)
		return beeper.Silent{}
	}
	tone, err := pwm.Open(dir, pwm.DUTY_MAX_DEFAULT, 1000)
	if err != nil {
		log.Print("Beeper disabled: ", err)
		return beeper.Silent{}
	}
	return beeper.New(tone)
}

func (r *Robot) openPoller() *input.Poller {
	poller := input.NewPoller()
	for name, pin := range map[input.Name]int{
		input.ButtonUp:    r.Pins.Up,
		input.ButtonDown:  r.Pins.Down,
		input.ButtonLeft:  r.Pins.Left,
		input.ButtonRight: r.Pins.Right,
		input.ButtonA:     r.Pins.A,
		input.IRLeft:      r.Pins.IRLeft,
		input.IRRight:     r.Pins.IRRight,
	} {
		in, err := gpio.OpenInput(r.Board.GPIONumber(pin), true)
		if err != nil {
			log.WithField("input", name).Print("Could not open input: ", err)
			continue
		}
		poller.Add(name, in)
	}
	return poller
}

func (r *Robot) openRanger() Ranger {
	trigger, err := gpio.OpenOutput(r.Board.GPIONumber(r.Pins.Trigger))
	if err != nil {
		log.Print("Ultrasonic sensor disabled: ", err)
		return noRanger{}
	}
	echo, err := gpio.Export(r.Board.GPIONumber(r.Pins.Echo))
	if err == nil {
		err = echo.SetDirection(gpio.IN)
	}
	if err != nil {
		log.Print("Ultrasonic sensor disabled: ", err)
		return noRanger{}
	}
	return hcsr04.New(trigger, echo)
}

// Close stops the motors and releases the buses.
func (r *Robot) Close() error {
	var errs []error
	if r.Controller != nil {
		errs = append(errs, r.Controller.Stop())
	}
	for _, c := range r.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
