//go:build !linux

package i2c

import (
	"errors"
)

var errNoImplementation = errors.New("there is no implementation of i2c bus for this platform")

func Open(busNumber BusNumber) (*Bus, error) {
	return nil, errNoImplementation
}

func (b *Bus) Close() error {
	return errNoImplementation
}

func (b *Bus) ReadByte(address uint8, offset uint8) (uint8, error) {
	return 0, errNoImplementation
}

func (b *Bus) ReadWord(address uint8, offset uint8) (uint16, error) {
	return 0, errNoImplementation
}

func (b *Bus) WriteByte(address uint8, offset uint8, data uint8) error {
	return errNoImplementation
}

func (b *Bus) WriteWord(address uint8, offset uint8, data uint16) error {
	return errNoImplementation
}
