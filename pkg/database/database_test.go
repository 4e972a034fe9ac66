package database

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ccollicutt/canplot/pkg/can"
)

func loadTestDB(t *testing.T, opts ...LoadOption) *DB {
	t.Helper()
	db, err := Load(context.Background(), filepath.Join("testdata", "engine.yaml"), opts...)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return db
}

func TestLoad_ValidDatabase(t *testing.T) {
	db := loadTestDB(t)

	msgs := db.Messages()
	if len(msgs) != 2 {
		t.Fatalf("len(Messages()) = %d, want 2", len(msgs))
	}
	if msgs[0].Name() != "Engine" || msgs[0].FrameID() != 0x1F0 || msgs[0].Length() != 8 {
		t.Errorf("Messages()[0] = %s 0x%x len %d", msgs[0].Name(), msgs[0].FrameID(), msgs[0].Length())
	}
	if msgs[0].Comment() != "Engine status broadcast" {
		t.Errorf("Comment() = %q", msgs[0].Comment())
	}
	if got := msgs[0].Signals()[2].ByteOrder; got != BigEndian {
		t.Errorf("ByteOrder = %q, want big_endian", got)
	}
	if got := msgs[0].Signals()[0].ByteOrder; got != LittleEndian {
		t.Errorf("default ByteOrder = %q, want little_endian", got)
	}
	if !db.Strict() {
		t.Error("Strict() = false, want default true")
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	if _, err := Load(context.Background(), "/nonexistent/db.yaml"); err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	if _, err := Parse(context.Background(), []byte("messages: [")); err == nil {
		t.Error("Parse() expected error for invalid YAML")
	}
}

func TestParse_InvalidByteOrder(t *testing.T) {
	content := `
messages:
  - name: M
    frame_id: 1
    length: 1
    signals:
      - {name: S, start: 0, length: 8, byte_order: middle}
`
	if _, err := Parse(context.Background(), []byte(content)); err == nil {
		t.Error("Parse() expected error for invalid byte order")
	}
}

func TestParse_UnknownEncoding(t *testing.T) {
	_, err := Parse(context.Background(), []byte("messages: []"), WithEncoding("klingon"))
	if err == nil {
		t.Error("Parse() expected error for unknown encoding")
	}
}

func TestParse_Windows1252(t *testing.T) {
	// "Temperatur°" with the degree sign as a single cp1252 byte.
	content := []byte("messages:\n  - name: Climate\n    frame_id: 0x10\n    length: 1\n    signals:\n      - {name: T, start: 0, length: 8, unit: \"\xb0C\"}\n")

	db, err := Parse(context.Background(), content, WithEncoding("windows-1252"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	m, err := db.MessageByName("Climate")
	if err != nil {
		t.Fatalf("MessageByName() error = %v", err)
	}
	if got := m.Signals()[0].Unit; got != "°C" {
		t.Errorf("Unit = %q, want °C", got)
	}
}

func TestDB_MessageByFrameID(t *testing.T) {
	db := loadTestDB(t)

	dec, err := db.MessageByFrameID(0x1F0)
	if err != nil {
		t.Fatalf("MessageByFrameID() error = %v", err)
	}
	if dec.Name() != "Engine" {
		t.Errorf("Name() = %q, want Engine", dec.Name())
	}

	_, err = db.MessageByFrameID(0x123)
	if !errors.Is(err, ErrUnknownFrame) {
		t.Fatalf("MessageByFrameID() error = %v, want ErrUnknownFrame", err)
	}
	if !strings.Contains(err.Error(), "291") || !strings.Contains(err.Error(), "0x123") {
		t.Errorf("error %q should name the id in decimal and hex", err)
	}
}

func TestDB_FrameIDMask(t *testing.T) {
	db := loadTestDB(t, WithFrameIDMask(0x7FF))
	if db.FrameIDMask() != 0x7FF {
		t.Errorf("FrameIDMask() = 0x%x, want 0x7ff", db.FrameIDMask())
	}

	dec, err := db.MessageByFrameID(0x801F0)
	if err != nil {
		t.Fatalf("MessageByFrameID() error = %v", err)
	}
	if dec.Name() != "Engine" {
		t.Errorf("Name() = %q, want Engine", dec.Name())
	}

	unmasked := loadTestDB(t)
	if _, err := unmasked.MessageByFrameID(0x801F0); !errors.Is(err, ErrUnknownFrame) {
		t.Errorf("unmasked lookup error = %v, want ErrUnknownFrame", err)
	}
}

func TestMessage_Decode(t *testing.T) {
	db := loadTestDB(t)
	engine, _ := db.MessageByName("Engine")

	data := []byte{0x01, 0xFF, 0xFF, 0x00, 0x00, 0x00, 0x1B, 0xC1}

	got, err := engine.Decode(data, true)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	want := map[string]can.Value{
		"Status": can.LabelValue(1, "Running"),
		"Torque": can.NumberValue(-0.1),
		"Speed":  can.NumberValue(7105),
	}
	approx := cmp.Comparer(func(a, b float64) bool { return math.Abs(a-b) < 1e-9 })
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("Decode() mismatch (-want +got):\n%s", diff)
	}
}

func TestMessage_Decode_NoChoices(t *testing.T) {
	db := loadTestDB(t)
	engine, _ := db.MessageByName("Engine")

	got, err := engine.Decode([]byte{2, 0, 0, 0, 0, 0, 0, 0}, false)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got["Status"].IsLabel() || got["Status"].Number != 2 {
		t.Errorf("Status = %+v, want raw 2", got["Status"])
	}
}

func TestMessage_Decode_UnlistedChoice(t *testing.T) {
	db := loadTestDB(t)
	engine, _ := db.MessageByName("Engine")

	got, err := engine.Decode([]byte{9, 0, 0, 0, 0, 0, 0, 0}, true)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got["Status"].IsLabel() || got["Status"].Number != 9 {
		t.Errorf("Status = %+v, want numeric 9", got["Status"])
	}
}

func TestMessage_Decode_ScaleAndOffset(t *testing.T) {
	db := loadTestDB(t)
	wheel, _ := db.MessageByName("Wheel")

	got, err := wheel.Decode([]byte{0x10, 0x27}, true) // 10000 raw
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if v := got["Speed"].Number; math.Abs(v-90) > 1e-9 {
		t.Errorf("Speed = %v, want 90", v)
	}
}

func TestMessage_Decode_ShortPayload(t *testing.T) {
	db := loadTestDB(t)
	engine, _ := db.MessageByName("Engine")

	_, err := engine.Decode([]byte{1, 2, 3}, true)
	var decErr *DecodeError
	if !errors.As(err, &decErr) {
		t.Fatalf("Decode() error = %v, want *DecodeError", err)
	}
	if decErr.Message != "Engine" {
		t.Errorf("Message = %q, want Engine", decErr.Message)
	}
	if !strings.Contains(err.Error(), "3 instead of 8") {
		t.Errorf("error = %q", err)
	}
}

func TestMessage_Decode_LongPayloadAccepted(t *testing.T) {
	db := loadTestDB(t)
	wheel, _ := db.MessageByName("Wheel")

	if _, err := wheel.Decode([]byte{0, 0, 0xFF}, true); err != nil {
		t.Errorf("Decode() error = %v", err)
	}
}

func TestSignal_Decode_BigEndianAcrossBytes(t *testing.T) {
	// 12 bits starting at bit 3 of byte 0 (MSB), ending in byte 1.
	sig := &Signal{Name: "S", Start: 3, Length: 12, ByteOrder: BigEndian}

	v, err := sig.decode([]byte{0x0A, 0xBC}, false)
	if err != nil {
		t.Fatalf("decode() error = %v", err)
	}
	// bits: byte0[3..0]=1010, byte1[7..0]=10111100 -> 1010 1011 1100 = 0xABC
	if v.Number != 0xABC {
		t.Errorf("Number = %#x, want 0xabc", int(v.Number))
	}
}

func TestSignal_Decode_Signed64(t *testing.T) {
	sig := &Signal{Name: "S", Start: 0, Length: 64, Signed: true}
	v, err := sig.decode([]byte{0xFE, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, false)
	if err != nil {
		t.Fatalf("decode() error = %v", err)
	}
	if v.Number != -2 {
		t.Errorf("Number = %v, want -2", v.Number)
	}
}

func TestNew_StrictChecks(t *testing.T) {
	tests := []struct {
		name    string
		signals []*Signal
		length  int
	}{
		{
			name:   "overlap",
			length: 2,
			signals: []*Signal{
				{Name: "A", Start: 0, Length: 8},
				{Name: "B", Start: 4, Length: 8},
			},
		},
		{
			name:    "outside payload",
			length:  1,
			signals: []*Signal{{Name: "A", Start: 4, Length: 8}},
		},
		{
			name:    "big endian outside payload",
			length:  1,
			signals: []*Signal{{Name: "A", Start: 7, Length: 16, ByteOrder: BigEndian}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := NewMessage("M", 1, tt.length, tt.signals...)
			if _, err := New([]*Message{msg}); err == nil {
				t.Error("New() expected strict error")
			}
			if _, err := New([]*Message{msg}, WithStrict(false)); err != nil {
				t.Errorf("New() with strict off error = %v", err)
			}
		})
	}
}

func TestNew_DuplicateFrameID(t *testing.T) {
	a := NewMessage("A", 0x100, 0)
	b := NewMessage("B", 0x100, 0)

	if _, err := New([]*Message{a, b}); err == nil {
		t.Error("New() expected error for duplicate frame id")
	}

	db, err := New([]*Message{a, b}, WithStrict(false))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	dec, _ := db.MessageByFrameID(0x100)
	if dec.Name() != "B" {
		t.Errorf("Name() = %q, want last definition B", dec.Name())
	}
}

func TestNew_InvalidSignalAlwaysRejected(t *testing.T) {
	msg := NewMessage("M", 1, 8, &Signal{Name: "A", Start: 0, Length: 0})
	if _, err := New([]*Message{msg}, WithStrict(false)); err == nil {
		t.Error("New() expected error for zero length signal")
	}
}

func TestNonStrict_DecodeFailsPerFrame(t *testing.T) {
	msg := NewMessage("M", 1, 1, &Signal{Name: "A", Start: 4, Length: 8})
	db, err := New([]*Message{msg}, WithStrict(false))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	dec, _ := db.MessageByFrameID(1)
	_, err = dec.Decode([]byte{0xFF}, true)
	var decErr *DecodeError
	if !errors.As(err, &decErr) {
		t.Errorf("Decode() error = %v, want *DecodeError", err)
	}
}

func TestLoad_TempFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.yaml")
	content := "messages:\n  - name: Only\n    frame_id: 42\n    length: 0\n    signals: []\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	db, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	dec, err := db.MessageByFrameID(42)
	if err != nil {
		t.Fatalf("MessageByFrameID() error = %v", err)
	}
	values, err := dec.Decode(nil, true)
	if err != nil || len(values) != 0 {
		t.Errorf("Decode() = %v, %v", values, err)
	}
}
