package twowheeled

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

type Direction int

const (
	Stop Direction = iota
	Forward
	Backward
)

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	default:
		return "stop"
	}
}

func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "forward", "f":
		return Forward, nil
	case "backward", "b":
		return Backward, nil
	case "stop", "s", "":
		return Stop, nil
	}
	return Stop, fmt.Errorf("unknown direction %q", s)
}

func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Command is one wheel's share of a drive call. Speed is a percentage.
type Command struct {
	Direction Direction `json:"direction"`
	Speed     int       `json:"speed"`
}

func (c Command) Moving() bool {
	return c.Speed > 0
}

func (c Command) String() string {
	return fmt.Sprintf("%s %d", c.Direction, c.Speed)
}

// ParseCommand reads the short form used on the command line: a direction followed by a
// speed, such as "f50", "backward30" or "s".
func ParseCommand(s string) (Command, error) {
	split := strings.IndexFunc(s, func(r rune) bool { return r >= '0' && r <= '9' })
	if split < 0 {
		split = len(s)
	}
	direction, err := ParseDirection(s[:split])
	if err != nil {
		return Command{}, err
	}
	c := Command{Direction: direction}
	if split < len(s) {
		if c.Speed, err = strconv.Atoi(s[split:]); err != nil {
			return Command{}, fmt.Errorf("invalid speed in %q", s)
		}
	}
	if c.Direction == Stop && c.Speed > 0 {
		return Command{}, ErrDirectionRequired
	}
	return c, nil
}

func GoForward(speed int) (Command, Command) {
	return Command{Forward, speed}, Command{Forward, speed}
}

func GoBackward(speed int) (Command, Command) {
	return Command{Backward, speed}, Command{Backward, speed}
}

// TurnLeft pivots on the stopped left wheel.
func TurnLeft(speed int) (Command, Command) {
	return Command{Forward, 0}, Command{Forward, speed}
}

func TurnRight(speed int) (Command, Command) {
	return Command{Forward, speed}, Command{Forward, 0}
}

func Halt() (Command, Command) {
	return Command{}, Command{}
}

// Mix converts joystick steering and throttle, both in -1..1, into wheel commands.
func Mix(steering float64, throttle float64) (Command, Command) {
	steering = mgl64.Clamp(steering, -1, 1)
	throttle = mgl64.Clamp(throttle, -1, 1)
	left := mgl64.Clamp(-steering+throttle, -1, 1)
	right := mgl64.Clamp(steering+throttle, -1, 1)
	return commandOf(left), commandOf(right)
}

func commandOf(value float64) Command {
	speed := int(math.Round(math.Abs(value) * 100))
	switch {
	case speed == 0:
		return Command{}
	case value > 0:
		return Command{Forward, speed}
	default:
		return Command{Backward, speed}
	}
}
