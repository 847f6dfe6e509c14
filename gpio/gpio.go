package gpio

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"xwkbot/boterrors"
)

const SYSFS_ROOT = "/sys/class/gpio"

type Number int

type Value int

const (
	LOW  Value = 0
	HIGH Value = 1
)

type Direction string

const (
	IN  Direction = "in"
	OUT Direction = "out"
)

type Gpio struct {
	root      string
	number    Number
	direction string
	value     string
}

func (g *Gpio) Number() Number {
	return g.number
}

func (g *Gpio) Value() (Value, error) {
	data, err := os.ReadFile(g.value)
	if err != nil {
		return LOW, boterrors.SensorReadError{Sensor: g.name(), Err: err}
	}
	value, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return LOW, boterrors.SensorReadError{Sensor: g.name(), Err: err}
	}
	return Value(value), nil
}

func (g *Gpio) SetValue(value Value) error {
	data := fmt.Sprintf("%d", value)
	if err := os.WriteFile(g.value, []byte(data), 0666); err != nil {
		return boterrors.PeripheralWriteError{Peripheral: g.name(), Err: err}
	}
	return nil
}

func (g *Gpio) Direction() (Direction, error) {
	data, err := os.ReadFile(g.direction)
	if err != nil {
		return IN, err
	}
	return Direction(strings.TrimSpace(string(data))), nil
}

func (g *Gpio) SetDirection(direction Direction) error {
	if err := os.WriteFile(g.direction, []byte(direction), 0666); err != nil {
		return boterrors.PeripheralWriteError{Peripheral: g.name(), Err: err}
	}
	return nil
}

func (g *Gpio) Unexport() error {
	value := fmt.Sprintf("%d", g.number)
	return os.WriteFile(filepath.Join(g.root, "unexport"), []byte(value), 0666)
}

func (g *Gpio) name() string {
	return fmt.Sprintf("gpio%d", g.number)
}

func Export(number Number) (*Gpio, error) {
	return ExportAt(SYSFS_ROOT, number)
}

// ExportAt exports the line under root unless it is already exported.
func ExportAt(root string, number Number) (*Gpio, error) {
	dir := filepath.Join(root, fmt.Sprintf("gpio%d", number))
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		value := fmt.Sprintf("%d", number)
		if err := os.WriteFile(filepath.Join(root, "export"), []byte(value), 0666); err != nil {
			return nil, err
		}
	}
	return &Gpio{
		root:      root,
		number:    number,
		value:     filepath.Join(dir, "value"),
		direction: filepath.Join(dir, "direction"),
	}, nil
}

// Input is a digital input that reports whether it is active.
// Buttons and IR sensors on the robot pull the line low when active.
type Input struct {
	gpio      *Gpio
	activeLow bool
}

func NewInput(g *Gpio, activeLow bool) *Input {
	return &Input{gpio: g, activeLow: activeLow}
}

func OpenInput(number Number, activeLow bool) (*Input, error) {
	g, err := Export(number)
	if err != nil {
		return nil, err
	}
	if err := g.SetDirection(IN); err != nil {
		return nil, err
	}
	return NewInput(g, activeLow), nil
}

// Read treats a failed read as inactive.
func (i *Input) Read() bool {
	value, err := i.gpio.Value()
	if err != nil {
		log.WithError(err).Warn("Could not read input")
		return false
	}
	return (value == HIGH) != i.activeLow
}

func OpenOutput(number Number) (*Gpio, error) {
	g, err := Export(number)
	if err != nil {
		return nil, err
	}
	if err := g.SetDirection(OUT); err != nil {
		return nil, err
	}
	return g, nil
}
