// Package serialctl drives the robot from single-byte commands on a serial link.
package serialctl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
	"go.bug.st/serial"
	"xwkbot/command"
	"xwkbot/twowheeled"
)

type Target interface {
	command.Target
	State(ctx context.Context) (twowheeled.State, error)
}

type Command struct {
	Flag        byte
	InputSize   uint
	Run         func(context.Context, Target, []byte) error
	Description string
}

var errInvalidInput = errors.New("invalid input")

var (
	ForwardCommand = &Command{
		Flag:      'F',
		InputSize: 1,
		Run: func(ctx context.Context, t Target, input []byte) error {
			speed, err := speedOf(input[0])
			if err != nil {
				return err
			}
			left, right := twowheeled.GoForward(speed)
			return t.Submit(ctx, left, right)
		},
		Description: "Drive forward. Input: speed 1-9 in tens of percent.",
	}
	BackwardCommand = &Command{
		Flag:      'B',
		InputSize: 1,
		Run: func(ctx context.Context, t Target, input []byte) error {
			speed, err := speedOf(input[0])
			if err != nil {
				return err
			}
			left, right := twowheeled.GoBackward(speed)
			return t.Submit(ctx, left, right)
		},
		Description: "Drive backward. Input: speed 1-9 in tens of percent.",
	}
	LeftCommand = &Command{
		Flag:      'L',
		InputSize: 1,
		Run: func(ctx context.Context, t Target, input []byte) error {
			speed, err := speedOf(input[0])
			if err != nil {
				return err
			}
			left, right := twowheeled.TurnLeft(speed)
			return t.Submit(ctx, left, right)
		},
		Description: "Turn left on the left wheel. Input: speed 1-9.",
	}
	RightCommand = &Command{
		Flag:      'R',
		InputSize: 1,
		Run: func(ctx context.Context, t Target, input []byte) error {
			speed, err := speedOf(input[0])
			if err != nil {
				return err
			}
			left, right := twowheeled.TurnRight(speed)
			return t.Submit(ctx, left, right)
		},
		Description: "Turn right on the right wheel. Input: speed 1-9.",
	}
	StopCommand = &Command{
		Flag:      'S',
		InputSize: 0,
		Run: func(ctx context.Context, t Target, input []byte) error {
			return t.Stop(ctx)
		},
		Description: "Stop both motors.",
	}
	TrimCommand = &Command{
		Flag:      'T',
		InputSize: 2,
		Run: func(ctx context.Context, t Target, input []byte) error {
			sign := 1
			switch input[0] {
			case '+':
			case '-':
				sign = -1
			default:
				return errInvalidInput
			}
			step := int(input[1] - '0')
			if step < 0 || step > 9 {
				return errInvalidInput
			}
			state, err := t.State(ctx)
			if err != nil {
				return err
			}
			_, err = t.SetTrim(ctx, state.Trim+sign*step)
			return err
		},
		Description: "Adjust the motor alignment. Input: '+' or '-', then step 0-9.",
	}
)

var commands = []*Command{
	ForwardCommand,
	BackwardCommand,
	LeftCommand,
	RightCommand,
	StopCommand,
	TrimCommand,
}

func speedOf(b byte) (int, error) {
	v := int(b - '0')
	if v < 1 || v > 9 {
		return 0, errInvalidInput
	}
	return v * 10, nil
}

// Help writes one line per command.
func Help(w io.Writer) {
	fmt.Fprintln(w, "Available Commands:")
	fmt.Fprintln(w, "H: Show all available commands and their descriptions.")
	for _, cmd := range commands {
		fmt.Fprintf(w, "%c: %s\n", cmd.Flag, cmd.Description)
	}
}

// Run executes commands read from r until r is exhausted or ctx is done. Unknown flags are skipped.
// Command errors are reported on w and do not end the loop.
func Run(ctx context.Context, r io.Reader, w io.Writer, t Target) error {
	cmdMap := map[byte]*Command{}
	for _, cmd := range commands {
		cmdMap[cmd.Flag] = cmd
	}
	reader := bufio.NewReader(r)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		cmdIn, err := reader.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if cmdIn == 'H' {
			Help(w)
			continue
		}
		cmd, ok := cmdMap[cmdIn]
		if !ok {
			continue
		}
		in := make([]byte, cmd.InputSize)
		if _, err := io.ReadFull(reader, in); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return err
		}
		if err := cmd.Run(ctx, t, in); err != nil {
			log.WithField("flag", string(cmdIn)).Debug("Serial command failed: ", err)
			fmt.Fprintln(w, "error:", err.Error())
		}
	}
}

func Open(port string, baudRate int) (serial.Port, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
	}
	p, err := serial.Open(port, mode)
	if err != nil {
		return nil, fmt.Errorf("serial port %s: %w", port, err)
	}
	return p, nil
}
