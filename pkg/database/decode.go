package database

import (
	"fmt"

	"github.com/ccollicutt/canplot/pkg/can"
)

// Decode unpacks every signal of m from data. With decodeChoices set, raw
// values listed in a signal's choices decode to their label.
func (m *Message) Decode(data []byte, decodeChoices bool) (map[string]can.Value, error) {
	if len(data) < m.length {
		return nil, &DecodeError{
			Message: m.name,
			Reason:  fmt.Sprintf("wrong data size: %d instead of %d bytes", len(data), m.length),
		}
	}

	values := make(map[string]can.Value, len(m.signals))
	for _, sig := range m.signals {
		v, err := sig.decode(data, decodeChoices)
		if err != nil {
			return nil, &DecodeError{Message: m.name, Reason: err.Error()}
		}
		values[sig.Name] = v
	}
	return values, nil
}

func (s *Signal) decode(data []byte, decodeChoices bool) (can.Value, error) {
	raw, err := s.extract(data)
	if err != nil {
		return can.Value{}, err
	}

	// choices are keyed by the raw integer value
	key := int64(raw)
	num := float64(raw)
	if s.Signed {
		shift := 64 - uint(s.Length)
		key = int64(raw<<shift) >> shift
		num = float64(key)
	}
	scaled := num*s.scale() + s.Offset

	if decodeChoices {
		if label, ok := s.Choices[key]; ok {
			return can.LabelValue(scaled, label), nil
		}
	}
	return can.NumberValue(scaled), nil
}

func (s *Signal) scale() float64 {
	if s.Scale == 0 {
		return 1
	}
	return s.Scale
}

// extract returns the raw unsigned bits of the signal.
func (s *Signal) extract(data []byte) (uint64, error) {
	positions, err := s.bitPositions(len(data))
	if err != nil {
		return 0, err
	}

	var raw uint64
	for i, p := range positions {
		if data[p/8]>>(p%8)&1 == 0 {
			continue
		}
		if s.ByteOrder == BigEndian {
			raw |= 1 << uint(len(positions)-1-i)
		} else {
			raw |= 1 << uint(i)
		}
	}
	return raw, nil
}

// bitPositions lists the payload bits of the signal as byte*8+bit (bit 0 is
// the least significant bit of a byte). Little endian signals are listed
// from their least significant bit, big endian ones from their most
// significant bit.
func (s *Signal) bitPositions(size int) ([]int, error) {
	if s.Length < 1 || s.Length > 64 {
		return nil, fmt.Errorf("signal %s: length %d out of range 1..64", s.Name, s.Length)
	}
	if s.Start < 0 {
		return nil, fmt.Errorf("signal %s: negative start bit %d", s.Name, s.Start)
	}

	positions := make([]int, s.Length)
	if s.ByteOrder == BigEndian {
		// Walk the payload as one big-endian bit stream.
		msb := s.Start/8*8 + 7 - s.Start%8
		for i := range positions {
			q := msb + i
			positions[i] = q/8*8 + 7 - q%8
		}
	} else {
		for i := range positions {
			positions[i] = s.Start + i
		}
	}

	for _, p := range positions {
		if p/8 >= size {
			return nil, fmt.Errorf("signal %s: bit %d outside %d byte payload", s.Name, p, size)
		}
	}
	return positions, nil
}
