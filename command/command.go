package command

import (
	"context"
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"xwkbot/twowheeled"
)

var json jsoniter.API = jsoniter.ConfigCompatibleWithStandardLibrary

type CommandType string

const (
	Drive CommandType = "drive"
	Stop  CommandType = "stop"
	Mix   CommandType = "mix"
	Trim  CommandType = "trim"
)

var ErrMixValues = errors.New("mix needs steering and throttle values")

// Command is one remote control frame. Mix carries Values as [steering, throttle] in -1..1.
type Command struct {
	Type   CommandType        `json:"type"`
	Left   twowheeled.Command `json:"left"`
	Right  twowheeled.Command `json:"right"`
	Values []float64          `json:"values,omitempty"`
	Trim   int                `json:"trim,omitempty"`
}

// Target is what a Command is applied to, normally a twowheeled.Runner.
type Target interface {
	Submit(ctx context.Context, left twowheeled.Command, right twowheeled.Command) error
	Stop(ctx context.Context) error
	SetTrim(ctx context.Context, trim int) (int, error)
}

func Unmarshal(raw []byte) (cmd *Command, err error) {
	cmd = &Command{}
	if err = json.Unmarshal(raw, cmd); err != nil {
		return nil, err
	}
	return cmd, cmd.Validate()
}

func (c *Command) Validate() error {
	switch c.Type {
	case Drive, Stop, Trim:
		return nil
	case Mix:
		if len(c.Values) < 2 {
			return ErrMixValues
		}
		return nil
	default:
		return fmt.Errorf("unknown command type %q", c.Type)
	}
}

func (c *Command) Apply(ctx context.Context, target Target) error {
	switch c.Type {
	case Drive:
		return target.Submit(ctx, c.Left, c.Right)
	case Stop:
		return target.Stop(ctx)
	case Mix:
		if len(c.Values) < 2 {
			return ErrMixValues
		}
		left, right := twowheeled.Mix(c.Values[0], c.Values[1])
		return target.Submit(ctx, left, right)
	case Trim:
		_, err := target.SetTrim(ctx, c.Trim)
		return err
	default:
		return c.Validate()
	}
}
