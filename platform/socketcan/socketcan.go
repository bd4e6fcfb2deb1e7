//go:build linux

// Package socketcan binds a Transport to a Linux AF_CAN raw socket. It is
// the hosted platform's CAN controller driver: the concrete transmit
// callable and a blocking receive loop, both left out of scope by the
// core transport engine.
package socketcan

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"

	isotp "github.com/rob-gra/go-isotp"
)

// Conn is one bound AF_CAN raw socket.
type Conn struct {
	fd int
}

// Dial opens and binds a raw CAN socket on the named interface (e.g. "can0").
func Dial(channel string) (*Conn, error) {
	iface, err := net.InterfaceByName(channel)
	if err != nil {
		return nil, fmt.Errorf("socketcan: %s: %w", channel, err)
	}

	fd, err := unix.Socket(unix.AF_CAN, unix.SOCK_RAW, unix.CAN_RAW)
	if err != nil {
		return nil, fmt.Errorf("socketcan: socket: %w", err)
	}

	if err := unix.Bind(fd, &unix.SockaddrCAN{Ifindex: iface.Index}); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("socketcan: bind %s: %w", channel, err)
	}

	return &Conn{fd: fd}, nil
}

// Close releases the underlying socket.
func (c *Conn) Close() error {
	return unix.Close(c.fd)
}

// Send implements isotp.Sink: it marshals f to the kernel struct can_frame
// wire layout and writes it. Any non-*isotp.CANFrame is copied field by
// field first, since the library's core never assumes a particular Frame
// implementation.
func (c *Conn) Send(f isotp.Frame) bool {
	cf, ok := f.(*isotp.CANFrame)
	if !ok {
		cf = &isotp.CANFrame{}
		copyFrame(f, cf)
	}

	buf, err := cf.MarshalBinary()
	if err != nil {
		return false
	}

	_, err = unix.Write(c.fd, buf)
	return err == nil
}

// Receive blocks until one frame arrives and decodes it.
func (c *Conn) Receive() (*isotp.CANFrame, error) {
	buf := make([]byte, 16)
	n, err := unix.Read(c.fd, buf)
	if err != nil {
		return nil, err
	}
	if n < 16 {
		return nil, isotp.ErrFrameTooShort
	}

	f := &isotp.CANFrame{}
	if err := f.UnmarshalBinary(buf[:16]); err != nil {
		return nil, err
	}
	return f, nil
}

func copyFrame(src isotp.Frame, dst *isotp.CANFrame) {
	dst.SetID(src.ID())
	dst.SetExtended(src.Extended())
	dst.SetDLC(src.DLC())
	for i := 0; i < 8; i++ {
		dst.SetByte(i, src.Byte(i))
	}
}
