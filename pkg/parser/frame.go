package parser

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/ccollicutt/canplot/pkg/can"
)

// ErrMalformedHex reports frame id or payload text that is not valid hex.
var ErrMalformedHex = errors.New("malformed hex")

// HexError describes which field of a line failed hex decoding.
type HexError struct {
	Field string // "frame id" or "data"
	Text  string
	Err   error
}

func (e *HexError) Error() string {
	return fmt.Sprintf("%s %q: %v: %v", e.Field, e.Text, ErrMalformedHex, e.Err)
}

// Is reports ErrMalformedHex for every HexError.
func (e *HexError) Is(target error) bool {
	return target == ErrMalformedHex
}

func (e *HexError) Unwrap() error {
	return e.Err
}

// ParseFrame builds a frame from the hex id and hex payload captured by a
// line grammar. The id is left padded to 8 hex digits and read as a
// big-endian uint32; spaces between payload bytes are ignored.
func ParseFrame(idHex, dataHex string) (can.Frame, error) {
	if len(idHex) > 8 {
		return can.Frame{}, &HexError{Field: "frame id", Text: idHex, Err: errors.New("longer than 8 digits")}
	}

	padded := strings.Repeat("0", 8-len(idHex)) + idHex
	raw, err := hex.DecodeString(padded)
	if err != nil {
		return can.Frame{}, &HexError{Field: "frame id", Text: idHex, Err: err}
	}

	data, err := hex.DecodeString(strings.ReplaceAll(dataHex, " ", ""))
	if err != nil {
		return can.Frame{}, &HexError{Field: "data", Text: dataHex, Err: err}
	}

	return can.Frame{
		ID:   binary.BigEndian.Uint32(raw),
		Data: data,
	}, nil
}

// FormatCandump renders a frame the way candump prints it by default.
func FormatCandump(channel string, f can.Frame) string {
	parts := make([]string, len(f.Data))
	for i, b := range f.Data {
		parts[i] = fmt.Sprintf("%02X", b)
	}
	return fmt.Sprintf("%s  %03X   [%d]  %s", channel, f.ID, len(f.Data), strings.Join(parts, " "))
}

// FormatCandumpLog renders a frame in candump -l form. seconds is the
// capture time in seconds since the epoch.
func FormatCandumpLog(seconds float64, channel string, f can.Frame) string {
	return fmt.Sprintf("(%.6f) %s %s", seconds, channel, f.String())
}
