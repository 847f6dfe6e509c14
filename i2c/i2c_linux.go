//go:build linux

package i2c

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	_I2C_RDWR = 0x0707
	_I2C_M_RD = 0x0001
)

type i2cMsg struct {
	addr    uint16
	flags   uint16
	len     uint16
	padding uint16
	buf     uintptr
}

type i2cRdwrIoctlData struct {
	msgs  uintptr
	nmsgs uint32
}

func Open(busNumber BusNumber) (*Bus, error) {
	path := fmt.Sprintf(DevicePath, busNumber)
	f, err := os.OpenFile(path, unix.O_RDWR, 0666)
	if err != nil {
		return nil, err
	}
	return &Bus{f: f}, nil
}

func (b *Bus) Close() error {
	return b.f.Close()
}

func (b *Bus) ReadByte(address uint8, offset uint8) (uint8, error) {
	buf := []uint8{0}
	if err := b.read(address, offset, buf); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (b *Bus) ReadWord(address uint8, offset uint8) (uint16, error) {
	buf := []uint8{0, 0}
	if err := b.read(address, offset, buf); err != nil {
		return 0, err
	}
	return (uint16(buf[0]) << 8) | uint16(buf[1]), nil
}

func (b *Bus) WriteByte(address uint8, offset uint8, data uint8) error {
	return b.write(address, []uint8{offset, data})
}

func (b *Bus) WriteWord(address uint8, offset uint8, data uint16) error {
	return b.write(address, []uint8{offset, uint8(data >> 8), uint8(data)})
}

func (b *Bus) read(address uint8, offset uint8, buf []uint8) error {
	msgs := []i2cMsg{
		{
			addr: uint16(address),
			len:  1,
			buf:  uintptr(unsafe.Pointer(&offset)),
		},
		{
			addr:  uint16(address),
			flags: _I2C_M_RD,
			len:   uint16(len(buf)),
			buf:   uintptr(unsafe.Pointer(&buf[0])),
		},
	}
	return b.transfer(msgs)
}

func (b *Bus) write(address uint8, buf []uint8) error {
	msgs := []i2cMsg{
		{
			addr: uint16(address),
			len:  uint16(len(buf)),
			buf:  uintptr(unsafe.Pointer(&buf[0])),
		},
	}
	return b.transfer(msgs)
}

func (b *Bus) transfer(msgs []i2cMsg) error {
	data := i2cRdwrIoctlData{
		msgs:  uintptr(unsafe.Pointer(&msgs[0])),
		nmsgs: uint32(len(msgs)),
	}
	_, _, errno := unix.Syscall(
		unix.SYS_IOCTL,
		b.f.Fd(),
		uintptr(_I2C_RDWR),
		uintptr(unsafe.Pointer(&data)),
	)
	if errno != 0 {
		return errno
	}
	return nil
}
