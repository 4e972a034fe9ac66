// Package can provides the frame and signal value types shared by the log
// parser, the frame database and the series aggregator.
package can

import "fmt"

// Frame is a single CAN frame recovered from one log line.
type Frame struct {
	ID   uint32 // identifier as logged, flags included
	Data []byte // payload, 0..64 bytes
}

// String renders the frame in candump -l compact form, e.g. "1F0#00001BC1".
func (f Frame) String() string {
	return fmt.Sprintf("%03X#%X", f.ID, f.Data)
}
