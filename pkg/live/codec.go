package live

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// maxStringLen bounds decoded strings.
const maxStringLen = 1 << 16

var errShortFrame = errors.New("live: frame too short")

// Encoder handles encoding of live protocol messages
type Encoder struct {
	w   io.Writer
	err error
}

// NewEncoder creates a new encoder
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Err returns the first write error.
func (e *Encoder) Err() error { return e.err }

func (e *Encoder) write(b []byte) error {
	if e.err != nil {
		return e.err
	}
	_, e.err = e.w.Write(b)
	return e.err
}

// WriteUvarint writes an unsigned varint
func (e *Encoder) WriteUvarint(v uint64) error {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], v)
	return e.write(buf[:n])
}

// WriteString writes a length-prefixed string
func (e *Encoder) WriteString(s string) error {
	if err := e.WriteUvarint(uint64(len(s))); err != nil {
		return err
	}
	return e.write([]byte(s))
}

// WriteFloat64 writes v as 8 little-endian bytes.
func (e *Encoder) WriteFloat64(v float64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
	return e.write(buf[:])
}

// WriteBytes writes raw bytes
func (e *Encoder) WriteBytes(b []byte) error {
	return e.write(b)
}

// Decoder handles decoding of live protocol messages
type Decoder struct {
	r   io.Reader
	buf []byte
}

// NewDecoder creates a new decoder
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		r:   r,
		buf: make([]byte, 64),
	}
}

// ReadUvarint reads an unsigned varint
func (d *Decoder) ReadUvarint() (uint64, error) {
	return binary.ReadUvarint(d)
}

// ReadByte implements io.ByteReader
func (d *Decoder) ReadByte() (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(d.r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadString reads a length-prefixed string
func (d *Decoder) ReadString() (string, error) {
	length, err := d.ReadUvarint()
	if err != nil {
		return "", err
	}
	if length > maxStringLen {
		return "", fmt.Errorf("live: string length %d exceeds limit", length)
	}
	if length > uint64(len(d.buf)) {
		d.buf = make([]byte, length)
	}
	n, err := io.ReadFull(d.r, d.buf[:length])
	if err != nil {
		return "", err
	}
	return string(d.buf[:n]), nil
}

// ReadFloat64 reads 8 little-endian bytes.
func (d *Decoder) ReadFloat64() (float64, error) {
	var b [8]byte
	if _, err := io.ReadFull(d.r, b[:]); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b[:])), nil
}

// ReadBytes reads n bytes
func (d *Decoder) ReadBytes(n int) ([]byte, error) {
	result := make([]byte, n)
	if _, err := io.ReadFull(d.r, result); err != nil {
		return nil, err
	}
	return result, nil
}

// EncodeEvent encodes an event to binary format
func EncodeEvent(evt Event) []byte {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	enc.WriteBytes([]byte{byte(FrameEvent), byte(evt.Type)})
	enc.WriteFloat64(evt.X)
	enc.WriteFloat64(evt.Y)
	enc.WriteFloat64(evt.Delta)
	return buf.Bytes()
}

// DecodeEvent decodes an event from binary format
func DecodeEvent(data []byte) (*Event, error) {
	if len(data) < 2+3*8 {
		return nil, errShortFrame
	}
	if data[0] != byte(FrameEvent) {
		return nil, errors.New("live: not an event frame")
	}
	evt := &Event{Type: EventType(data[1])}
	dec := NewDecoder(bytes.NewReader(data[2:]))
	var err error
	if evt.X, err = dec.ReadFloat64(); err != nil {
		return nil, err
	}
	if evt.Y, err = dec.ReadFloat64(); err != nil {
		return nil, err
	}
	if evt.Delta, err = dec.ReadFloat64(); err != nil {
		return nil, err
	}
	return evt, nil
}

// EncodeControl encodes a control message with optional uvarint arguments.
func EncodeControl(name string, args ...uint64) []byte {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	enc.WriteBytes([]byte{byte(FrameControl)})
	enc.WriteString(name)
	for _, a := range args {
		enc.WriteUvarint(a)
	}
	return buf.Bytes()
}

// DecodeControl returns the control message name and a decoder positioned
// at its arguments.
func DecodeControl(data []byte) (string, *Decoder, error) {
	if len(data) < 2 {
		return "", nil, errShortFrame
	}
	if data[0] != byte(FrameControl) {
		return "", nil, errors.New("live: not a control frame")
	}
	dec := NewDecoder(bytes.NewReader(data[1:]))
	name, err := dec.ReadString()
	if err != nil {
		return "", nil, fmt.Errorf("live: decode control: %w", err)
	}
	return name, dec, nil
}

// EncodeSnapshot encodes a snapshot frame:
//
//	0x00 seq:uvarint zoom panX panY:f64 selected hovered:string
//	count:uvarint { id:string x y radius:f64 rgba:4 }*
func EncodeSnapshot(s Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(64 + len(s.Nodes)*40)
	enc := NewEncoder(&buf)
	enc.WriteBytes([]byte{byte(FrameSnapshot)})
	enc.WriteUvarint(s.Seq)
	enc.WriteFloat64(s.Zoom)
	enc.WriteFloat64(s.PanX)
	enc.WriteFloat64(s.PanY)
	enc.WriteString(s.Selected)
	enc.WriteString(s.Hovered)
	enc.WriteUvarint(uint64(len(s.Nodes)))
	for _, n := range s.Nodes {
		enc.WriteString(n.ID)
		enc.WriteFloat64(n.X)
		enc.WriteFloat64(n.Y)
		enc.WriteFloat64(n.Radius)
		enc.WriteBytes(n.Fill[:])
	}
	if err := enc.Err(); err != nil {
		return nil, fmt.Errorf("live: encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeSnapshot decodes a frame written by EncodeSnapshot.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	if len(data) == 0 {
		return nil, errShortFrame
	}
	if data[0] != byte(FrameSnapshot) {
		return nil, errors.New("live: not a snapshot frame")
	}
	dec := NewDecoder(bytes.NewReader(data[1:]))
	s := &Snapshot{}
	var err error
	fail := func(what string, err error) (*Snapshot, error) {
		return nil, fmt.Errorf("live: decode snapshot %s: %w", what, err)
	}
	if s.Seq, err = dec.ReadUvarint(); err != nil {
		return fail("seq", err)
	}
	for _, p := range []*float64{&s.Zoom, &s.PanX, &s.PanY} {
		if *p, err = dec.ReadFloat64(); err != nil {
			return fail("transform", err)
		}
	}
	if s.Selected, err = dec.ReadString(); err != nil {
		return fail("selection", err)
	}
	if s.Hovered, err = dec.ReadString(); err != nil {
		return fail("hover", err)
	}
	count, err := dec.ReadUvarint()
	if err != nil {
		return fail("node count", err)
	}
	// Every node takes at least 29 bytes.
	if count > uint64(len(data))/29 {
		return fail("node count", fmt.Errorf("%d nodes in %d bytes", count, len(data)))
	}
	s.Nodes = make([]NodePosition, count)
	for i := range s.Nodes {
		n := &s.Nodes[i]
		if n.ID, err = dec.ReadString(); err != nil {
			return fail("node id", err)
		}
		for _, p := range []*float64{&n.X, &n.Y, &n.Radius} {
			if *p, err = dec.ReadFloat64(); err != nil {
				return fail("node position", err)
			}
		}
		fill, err := dec.ReadBytes(4)
		if err != nil {
			return fail("node fill", err)
		}
		copy(n.Fill[:], fill)
	}
	return s, nil
}
