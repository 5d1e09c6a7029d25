package ebml

import (
	"errors"
	"fmt"
)

var ErrUnknownSizeChild = errors.New("ebml: unknown-size element inside a finite master")

// Decode parses a sequence of sibling elements. Masters are descended into according to the
// schema; CRC-32 children are dropped because any rewrite would leave them stale.
func Decode(buf []byte) ([]*Element, error) {
	var out []*Element
	pos := 0
	for pos < len(buf) {
		element, n, err := DecodeOne(buf[pos:])
		if err != nil {
			return out, fmt.Errorf("at offset %d: %w", pos, err)
		}
		pos += n
		if element.ID == IDCRC32 {
			continue
		}
		out = append(out, element)
	}
	return out, nil
}

// DecodeOne parses the element at the start of buf and returns it with its encoded length.
func DecodeOne(buf []byte) (*Element, int, error) {
	id, idLen, err := ParseID(buf)
	if err != nil {
		return nil, 0, err
	}
	size, sizeLen, err := ParseSize(buf[idLen:])
	if err != nil {
		return nil, 0, err
	}
	if size == UnknownSize {
		return nil, 0, ErrUnknownSizeChild
	}
	start := idLen + sizeLen
	if uint64(len(buf)-start) < size {
		return nil, 0, fmt.Errorf("%w: %s needs %d bytes, %d left", ErrShortBuffer, id, size, len(buf)-start)
	}
	data := buf[start : start+int(size)]
	element := &Element{ID: id}
	if TypeOf(id) == TypeMaster {
		children, err := Decode(data)
		if err != nil {
			return nil, 0, fmt.Errorf("in %s: %w", id, err)
		}
		element.Children = children
	} else {
		element.Data = append([]byte{}, data...)
	}
	return element, start + int(size), nil
}
