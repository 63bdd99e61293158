package dbc

import (
	"fmt"

	"go.einride.tech/can"
)

// Frame is a raw CAN frame tagged with the bus it goes out on.
type Frame struct {
	Bus int
	can.Frame
}

func NewFrame(bus int, id uint32, data []byte) Frame {
	f := Frame{Bus: bus}
	f.ID = id
	f.Length = uint8(copy(f.Data[:], data))
	return f
}

// Bytes returns the payload trimmed to the frame length.
func (f Frame) Bytes() []byte {
	return f.Data[:f.Length]
}

func (f Frame) String() string {
	return fmt.Sprintf("0x%03X [%d] bus %d: % X", f.ID, f.Length, f.Bus, f.Bytes())
}
