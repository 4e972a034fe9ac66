package database

import (
	"errors"
	"fmt"
)

// ErrUnknownFrame is matched by errors for frame ids missing from the database.
var ErrUnknownFrame = errors.New("unknown frame id")

// UnknownFrameError reports a frame id with no message in the database.
type UnknownFrameError struct {
	FrameID uint32
}

func (e *UnknownFrameError) Error() string {
	return fmt.Sprintf("unknown frame id %d (0x%x)", e.FrameID, e.FrameID)
}

// Is reports ErrUnknownFrame for every UnknownFrameError.
func (e *UnknownFrameError) Is(target error) bool {
	return target == ErrUnknownFrame
}

// DecodeError reports a payload that does not fit its message.
type DecodeError struct {
	Message string
	Reason  string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s: %s", e.Message, e.Reason)
}
