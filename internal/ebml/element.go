package ebml

import (
	"bytes"
	"encoding/binary"
	"math"
	"time"
)

// Element is a decoded EBML element. Leaves keep their raw payload in Data so that values
// survive a decode/encode cycle byte for byte; masters keep their children in order.
type Element struct {
	ID       ID
	Data     []byte
	Children []*Element
}

// dateEpoch is the zero point of EBML date values.
var dateEpoch = time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)

func NewMaster(id ID, children ...*Element) *Element {
	return &Element{ID: id, Children: children}
}

func NewUint(id ID, value uint64) *Element {
	return &Element{ID: id, Data: unsignedBytes(value)}
}

func NewInt(id ID, value int64) *Element {
	return &Element{ID: id, Data: signedBytes(value)}
}

func NewFloat(id ID, value float64) *Element {
	data := make([]byte, 8)
	binary.BigEndian.PutUint64(data, math.Float64bits(value))
	return &Element{ID: id, Data: data}
}

func NewString(id ID, value string) *Element {
	return &Element{ID: id, Data: []byte(value)}
}

func NewBinary(id ID, value []byte) *Element {
	return &Element{ID: id, Data: append([]byte(nil), value...)}
}

func NewDate(id ID, value time.Time) *Element {
	data := make([]byte, 8)
	binary.BigEndian.PutUint64(data, uint64(value.Sub(dateEpoch).Nanoseconds()))
	return &Element{ID: id, Data: data}
}

// NewSeek builds a Seek entry pointing at an element relative to the segment data start.
func NewSeek(target ID, relative uint64) *Element {
	return NewMaster(IDSeek,
		NewBinary(IDSeekID, target.Bytes()),
		NewUint(IDSeekPosition, relative),
	)
}

func (e *Element) IsMaster() bool {
	return len(e.Children) > 0 || TypeOf(e.ID) == TypeMaster
}

func (e *Element) Uint() uint64 {
	value, _ := readUnsigned(e.Data)
	return value
}

func (e *Element) Int() int64 {
	value, _ := readSigned(e.Data)
	return value
}

func (e *Element) Float() float64 {
	switch len(e.Data) {
	case 4:
		return float64(math.Float32frombits(binary.BigEndian.Uint32(e.Data)))
	case 8:
		return math.Float64frombits(binary.BigEndian.Uint64(e.Data))
	}
	return 0
}

// Text returns the payload as a string with trailing NUL padding removed.
func (e *Element) Text() string {
	return string(bytes.TrimRight(e.Data, "\x00"))
}

func (e *Element) Date() time.Time {
	return dateEpoch.Add(time.Duration(e.Int()))
}

// Child returns the first direct child with the given id.
func (e *Element) Child(id ID) *Element {
	for _, child := range e.Children {
		if child.ID == id {
			return child
		}
	}
	return nil
}

func (e *Element) ChildrenWithID(id ID) []*Element {
	var out []*Element
	for _, child := range e.Children {
		if child.ID == id {
			out = append(out, child)
		}
	}
	return out
}

func (e *Element) Append(children ...*Element) {
	e.Children = append(e.Children, children...)
}

// Set replaces the first child sharing child's id, or appends it.
func (e *Element) Set(child *Element) {
	for i, existing := range e.Children {
		if existing.ID == child.ID {
			e.Children[i] = child
			return
		}
	}
	e.Children = append(e.Children, child)
}

// RemoveChildren drops every direct child for which drop returns true and reports how many went.
func (e *Element) RemoveChildren(drop func(*Element) bool) int {
	kept := e.Children[:0]
	removed := 0
	for _, child := range e.Children {
		if drop(child) {
			removed++
			continue
		}
		kept = append(kept, child)
	}
	for i := len(kept); i < len(e.Children); i++ {
		e.Children[i] = nil
	}
	e.Children = kept
	return removed
}

func (e *Element) Clone() *Element {
	out := &Element{ID: e.ID}
	if e.Data != nil {
		out.Data = append([]byte(nil), e.Data...)
	}
	for _, child := range e.Children {
		out.Children = append(out.Children, child.Clone())
	}
	return out
}

// IsDefault reports whether a leaf carries its schema default value.
func (e *Element) IsDefault() bool {
	if e.IsMaster() {
		return false
	}
	def, ok := schema[e.ID]
	if !ok || def.def == nil {
		return false
	}
	switch value := def.def.(type) {
	case uint64:
		return len(e.Data) <= 8 && e.Uint() == value
	case int64:
		return len(e.Data) <= 8 && e.Int() == value
	case float64:
		return (len(e.Data) == 4 || len(e.Data) == 8) && e.Float() == value
	case string:
		return e.Text() == value
	}
	return false
}

// DataSize is the payload length when rendered.
func (e *Element) DataSize(writeDefaults bool) uint64 {
	if !e.IsMaster() {
		return uint64(len(e.Data))
	}
	var total uint64
	for _, child := range e.Children {
		if !writeDefaults && child.IsDefault() {
			continue
		}
		total += child.Size(writeDefaults)
	}
	return total
}

// Size is the full rendered length including the header.
func (e *Element) Size(writeDefaults bool) uint64 {
	data := e.DataSize(writeDefaults)
	return uint64(e.ID.Len()+SizeLength(data)) + data
}

// Encode renders the element with the shortest size fields.
func (e *Element) Encode(writeDefaults bool) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(int(e.Size(writeDefaults)))
	if err := e.encode(&buf, writeDefaults); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *Element) encode(buf *bytes.Buffer, writeDefaults bool) error {
	head, err := EncodeHeader(e.ID, e.DataSize(writeDefaults), 0)
	if err != nil {
		return err
	}
	buf.Write(head)
	if !e.IsMaster() {
		buf.Write(e.Data)
		return nil
	}
	for _, child := range e.Children {
		if !writeDefaults && child.IsDefault() {
			continue
		}
		if err := child.encode(buf, writeDefaults); err != nil {
			return err
		}
	}
	return nil
}
