// Package database loads CAN frame databases and decodes frame payloads
// into named signal values.
package database

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
	"gopkg.in/yaml.v3"

	"github.com/ccollicutt/canplot/pkg/can"
)

// Defaults for Load.
const (
	DefaultEncoding    = "utf-8"
	DefaultFrameIDMask = 0xFFFFFFFF
)

// Decoder decodes the payload of one message.
type Decoder interface {
	// Name returns the message name used to qualify signal names.
	Name() string

	// Decode unpacks data into signal name -> value. It fails with a
	// *DecodeError when the payload does not fit the message.
	Decode(data []byte, decodeChoices bool) (map[string]can.Value, error)
}

// Resolver finds the decoder of a frame id.
type Resolver interface {
	// MessageByFrameID fails with an error matching ErrUnknownFrame when
	// no message uses the id.
	MessageByFrameID(id uint32) (Decoder, error)
}

// DB is an in-memory frame database.
type DB struct {
	messages    []*Message
	byFrameID   map[uint32]*Message
	byName      map[string]*Message
	frameIDMask uint32
	strict      bool
}

var _ Resolver = (*DB)(nil)

// LoadOption configures Load and New.
type LoadOption func(*loadOptions)

type loadOptions struct {
	encoding    string
	frameIDMask uint32
	strict      bool
}

// WithEncoding sets the text encoding of the database file, using WHATWG
// names such as "utf-8", "windows-1252" or "latin1".
func WithEncoding(name string) LoadOption {
	return func(o *loadOptions) {
		if name != "" {
			o.encoding = name
		}
	}
}

// WithFrameIDMask makes lookups compare only the masked bits of frame ids.
func WithFrameIDMask(mask uint32) LoadOption {
	return func(o *loadOptions) {
		if mask != 0 {
			o.frameIDMask = mask
		}
	}
}

// WithStrict toggles the consistency checks run on load (default on).
func WithStrict(strict bool) LoadOption {
	return func(o *loadOptions) {
		o.strict = strict
	}
}

func newLoadOptions(opts []LoadOption) *loadOptions {
	o := &loadOptions{
		encoding:    DefaultEncoding,
		frameIDMask: DefaultFrameIDMask,
		strict:      true,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Load reads a YAML frame database from path.
func Load(ctx context.Context, path string, opts ...LoadOption) (*DB, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided database path is expected
	if err != nil {
		return nil, fmt.Errorf("reading database file: %w", err)
	}
	return Parse(ctx, data, opts...)
}

// Parse builds a database from YAML bytes in the configured encoding.
func Parse(_ context.Context, data []byte, opts ...LoadOption) (*DB, error) {
	o := newLoadOptions(opts)

	text, err := decodeText(data, o.encoding)
	if err != nil {
		return nil, err
	}

	var def fileDef
	if err := yaml.Unmarshal(text, &def); err != nil {
		return nil, fmt.Errorf("parsing database file: %w", err)
	}

	messages := make([]*Message, 0, len(def.Messages))
	for _, md := range def.Messages {
		messages = append(messages, &Message{
			name:     md.Name,
			frameID:  md.FrameID,
			extended: md.Extended,
			length:   md.Length,
			comment:  md.Comment,
			signals:  md.Signals,
		})
	}

	return New(messages, opts...)
}

// New builds a database from messages. Encoding options are ignored.
func New(messages []*Message, opts ...LoadOption) (*DB, error) {
	o := newLoadOptions(opts)

	db := &DB{
		messages:    messages,
		byFrameID:   make(map[uint32]*Message, len(messages)),
		byName:      make(map[string]*Message, len(messages)),
		frameIDMask: o.frameIDMask,
		strict:      o.strict,
	}

	for i, m := range messages {
		if err := validateMessage(m, o.strict); err != nil {
			return nil, fmt.Errorf("messages[%d] (%s): %w", i, m.name, err)
		}

		key := m.frameID & db.frameIDMask
		if prev, ok := db.byFrameID[key]; ok && o.strict {
			return nil, fmt.Errorf("messages[%d] (%s): frame id 0x%x already used by %s",
				i, m.name, m.frameID, prev.name)
		}
		if _, ok := db.byName[m.name]; ok && o.strict {
			return nil, fmt.Errorf("messages[%d]: duplicate message name %q", i, m.name)
		}
		db.byFrameID[key] = m
		db.byName[m.name] = m
	}

	return db, nil
}

func decodeText(data []byte, name string) ([]byte, error) {
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("database encoding %q: %w", name, err)
	}

	text, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), enc.NewDecoder()))
	if err != nil {
		return nil, fmt.Errorf("decoding database file as %s: %w", name, err)
	}
	return text, nil
}

// MessageByFrameID returns the message whose masked frame id equals the
// masked id.
func (db *DB) MessageByFrameID(id uint32) (Decoder, error) {
	m, ok := db.byFrameID[id&db.frameIDMask]
	if !ok {
		return nil, &UnknownFrameError{FrameID: id}
	}
	return m, nil
}

// MessageByName returns the named message.
func (db *DB) MessageByName(name string) (*Message, error) {
	m, ok := db.byName[name]
	if !ok {
		return nil, fmt.Errorf("unknown message %q", name)
	}
	return m, nil
}

// Messages returns all messages in definition order.
func (db *DB) Messages() []*Message {
	out := make([]*Message, len(db.messages))
	copy(out, db.messages)
	return out
}

// FrameIDMask returns the mask applied to frame ids on lookup.
func (db *DB) FrameIDMask() uint32 {
	return db.frameIDMask
}

// Strict reports whether consistency checks ran on load.
func (db *DB) Strict() bool {
	return db.strict
}

// validateMessage fills signal defaults and, in strict mode, checks that
// every signal fits the payload and no two signals share a bit.
func validateMessage(m *Message, strict bool) error {
	if m.name == "" {
		return errors.New("name is required")
	}
	if m.length < 0 || m.length > 64 {
		return fmt.Errorf("length %d out of range 0..64", m.length)
	}

	owner := make(map[int]string)
	names := make(map[string]bool, len(m.signals))

	for i, sig := range m.signals {
		if sig == nil || strings.TrimSpace(sig.Name) == "" {
			return fmt.Errorf("signals[%d]: name is required", i)
		}
		if sig.ByteOrder == "" {
			sig.ByteOrder = LittleEndian
		}
		if names[sig.Name] {
			return fmt.Errorf("duplicate signal name %q", sig.Name)
		}
		names[sig.Name] = true

		positions, err := sig.bitPositions(m.length)
		if err != nil {
			if strict {
				return err
			}
			// Non-strict databases may describe bits past the payload;
			// decoding such frames fails per frame instead.
			if sig.Length < 1 || sig.Length > 64 || sig.Start < 0 {
				return err
			}
			continue
		}

		if !strict {
			continue
		}
		for _, p := range positions {
			if other, ok := owner[p]; ok {
				return fmt.Errorf("signals %s and %s overlap at bit %d", other, sig.Name, p)
			}
			owner[p] = sig.Name
		}
	}

	return nil
}
