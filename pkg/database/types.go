package database

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ByteOrder is the bit layout of a signal inside the payload.
type ByteOrder string

const (
	// LittleEndian (Intel) signals start at their least significant bit.
	LittleEndian ByteOrder = "little_endian"
	// BigEndian (Motorola) signals start at their most significant bit,
	// using DBC sawtooth bit numbering.
	BigEndian ByteOrder = "big_endian"
)

// UnmarshalYAML accepts the canonical names plus "intel" and "motorola".
func (b *ByteOrder) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	switch strings.ToLower(s) {
	case "", "little_endian", "intel":
		*b = LittleEndian
	case "big_endian", "motorola":
		*b = BigEndian
	default:
		return fmt.Errorf("invalid byte_order %q (must be little_endian or big_endian)", s)
	}
	return nil
}

// fileDef is the root of a YAML frame database.
type fileDef struct {
	Messages []messageDef `yaml:"messages"`
}

type messageDef struct {
	Name     string    `yaml:"name"`
	FrameID  uint32    `yaml:"frame_id"`
	Extended bool      `yaml:"extended,omitempty"`
	Length   int       `yaml:"length"`
	Comment  string    `yaml:"comment,omitempty"`
	Signals  []*Signal `yaml:"signals"`
}

// Signal describes how to extract and scale one value from a payload.
type Signal struct {
	Name      string           `yaml:"name"`
	Start     int              `yaml:"start"`
	Length    int              `yaml:"length"` // bits
	ByteOrder ByteOrder        `yaml:"byte_order,omitempty"`
	Signed    bool             `yaml:"signed,omitempty"`
	Scale     float64          `yaml:"scale,omitempty"` // 0 means 1
	Offset    float64          `yaml:"offset,omitempty"`
	Minimum   *float64         `yaml:"minimum,omitempty"`
	Maximum   *float64         `yaml:"maximum,omitempty"`
	Unit      string           `yaml:"unit,omitempty"`
	Choices   map[int64]string `yaml:"choices,omitempty"`
}

// Message describes one frame id and the signals packed in its payload.
type Message struct {
	name     string
	frameID  uint32
	extended bool
	length   int
	comment  string
	signals  []*Signal
}

// NewMessage builds a message from its parts. length is in bytes.
func NewMessage(name string, frameID uint32, length int, signals ...*Signal) *Message {
	return &Message{
		name:    name,
		frameID: frameID,
		length:  length,
		signals: signals,
	}
}

// Name returns the message name.
func (m *Message) Name() string { return m.name }

// FrameID returns the frame id as defined in the database.
func (m *Message) FrameID() uint32 { return m.frameID }

// Extended reports whether the message uses a 29-bit identifier.
func (m *Message) Extended() bool { return m.extended }

// Length returns the payload length in bytes.
func (m *Message) Length() int { return m.length }

// Comment returns the optional message description.
func (m *Message) Comment() string { return m.comment }

// Signals returns the message signals in definition order.
func (m *Message) Signals() []*Signal { return m.signals }
