package display

import (
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
)

type Color string

const (
	White   Color = "white"
	Grey    Color = "grey"
	Red     Color = "red"
	Green   Color = "green"
	Yellow  Color = "yellow"
	Cyan    Color = "cyan"
	Magenta Color = "magenta"
	Blue    Color = "blue"
)

type Display interface {
	Write(text string, color Color)
	Clear()
}

// Writef formats a line for any display.
func Writef(d Display, color Color, format string, args ...any) {
	d.Write(fmt.Sprintf(format, args...), color)
}

type Line struct {
	Text  string
	Color Color
}

// Console renders display lines through the logger and keeps the last screenful.
type Console struct {
	mu     sync.Mutex
	logger log.FieldLogger
	height int
	lines  []Line
}

const CONSOLE_HEIGHT = 16

func NewConsole(logger log.FieldLogger) *Console {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Console{logger: logger, height: CONSOLE_HEIGHT}
}

func (c *Console) Write(text string, color Color) {
	c.mu.Lock()
	c.lines = append(c.lines, Line{Text: text, Color: color})
	if len(c.lines) > c.height {
		c.lines = c.lines[len(c.lines)-c.height:]
	}
	c.mu.Unlock()
	c.logger.WithField("color", color).Info(text)
}


func (c *Console) Clear() {
	c.mu.Lock()
	c.lines = nil
	c.mu.Unlock()
}

func (c *Console) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Line(nil), c.lines...)
}
