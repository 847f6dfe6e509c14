package adc

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const IIO_ROOT = "/sys/bus/iio/devices"

// Reader returns raw conversion counts.
type Reader interface {
	Read() (int, error)
}

type Channel struct {
	path string
}

func NewChannel(device int, channel int) *Channel {
	return NewChannelAt(IIO_ROOT, device, channel)
}

func NewChannelAt(root string, device int, channel int) *Channel {
	return &Channel{
		path: fmt.Sprintf("%s/iio:device%d/in_voltage%d_raw", root, device, channel),
	}
}

func (c *Channel) Read() (int, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return 0, err
	}
	value, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", c.path, err)
	}
	return value, nil
}
