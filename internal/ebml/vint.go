package ebml

import (
	"errors"
	"fmt"
)

// MaxSizeLength is the longest coded-size field EBML allows.
const MaxSizeLength = 8

// UnknownSize is returned by the size parsers for the all-ones "unknown/streaming" value.
const UnknownSize = ^uint64(0)

var (
	ErrInvalidVint = errors.New("ebml: invalid variable-length integer")
	ErrShortBuffer = errors.New("ebml: buffer too short")
	ErrSizeTooBig  = errors.New("ebml: value does not fit in coded size length")
)

// vintLength returns the encoded length announced by the leading bits of first, or 0.
func vintLength(first byte) int {
	for i := 0; i < 8; i++ {
		if first&(1<<(7-uint(i))) != 0 {
			return i + 1
		}
	}
	return 0
}

// ParseID reads an element id (marker bits kept) at the start of buf.
func ParseID(buf []byte) (ID, int, error) {
	if len(buf) == 0 {
		return 0, 0, ErrShortBuffer
	}
	length := vintLength(buf[0])
	if length == 0 || length > 4 {
		return 0, 0, ErrInvalidVint
	}
	if len(buf) < length {
		return 0, 0, ErrShortBuffer
	}
	var value uint32
	for i := 0; i < length; i++ {
		value = (value << 8) | uint32(buf[i])
	}
	return ID(value), length, nil
}

// ParseSize reads a coded size at the start of buf. The all-ones value maps to UnknownSize.
func ParseSize(buf []byte) (uint64, int, error) {
	if len(buf) == 0 {
		return 0, 0, ErrShortBuffer
	}
	length := vintLength(buf[0])
	if length == 0 {
		return 0, 0, ErrInvalidVint
	}
	if len(buf) < length {
		return 0, 0, ErrShortBuffer
	}
	mask := byte(0xFF >> length)
	value := uint64(buf[0] & mask)
	for i := 1; i < length; i++ {
		value = (value << 8) | uint64(buf[i])
	}
	if value == maxSizeValue(length)+1 {
		return UnknownSize, length, nil
	}
	return value, length, nil
}

// maxSizeValue is the largest finite size a field of length bytes can carry.
func maxSizeValue(length int) uint64 {
	return (uint64(1) << uint(7*length)) - 2
}

// SizeLength returns the shortest coded-size length able to carry value.
func SizeLength(value uint64) int {
	for length := 1; length < MaxSizeLength; length++ {
		if value <= maxSizeValue(length) {
			return length
		}
	}
	return MaxSizeLength
}

// EncodeSize encodes value in exactly length bytes.
func EncodeSize(value uint64, length int) ([]byte, error) {
	if length < 1 || length > MaxSizeLength {
		return nil, fmt.Errorf("%w: length %d", ErrSizeTooBig, length)
	}
	if value > maxSizeValue(length) {
		return nil, fmt.Errorf("%w: %d in %d bytes", ErrSizeTooBig, value, length)
	}
	out := make([]byte, length)
	for i := length - 1; i >= 0; i-- {
		out[i] = byte(value)
		value >>= 8
	}
	out[0] |= 0x80 >> uint(length-1)
	return out, nil
}

// EncodeUnknownSize returns the all-ones size marker in length bytes.
func EncodeUnknownSize(length int) []byte {
	out := make([]byte, length)
	for i := range out {
		out[i] = 0xFF
	}
	out[0] = 0xFF >> uint(length-1)
	return out
}

// EncodeHeader renders an element header. A sizeLength of 0 selects the shortest field.
func EncodeHeader(id ID, size uint64, sizeLength int) ([]byte, error) {
	minimal := SizeLength(size)
	if sizeLength < minimal {
		sizeLength = minimal
	}
	coded, err := EncodeSize(size, sizeLength)
	if err != nil {
		return nil, err
	}
	return append(id.Bytes(), coded...), nil
}

func readUnsigned(buf []byte) (uint64, bool) {
	if len(buf) > 8 {
		return 0, false
	}
	var value uint64
	for _, b := range buf {
		value = (value << 8) | uint64(b)
	}
	return value, true
}

func readSigned(buf []byte) (int64, bool) {
	if len(buf) > 8 {
		return 0, false
	}
	if len(buf) == 0 {
		return 0, true
	}
	value := int64(int8(buf[0]))
	for _, b := range buf[1:] {
		value = (value << 8) | int64(b)
	}
	return value, true
}

func unsignedBytes(value uint64) []byte {
	length := 1
	for v := value >> 8; v != 0; v >>= 8 {
		length++
	}
	out := make([]byte, length)
	for i := length - 1; i >= 0; i-- {
		out[i] = byte(value)
		value >>= 8
	}
	return out
}

func signedBytes(value int64) []byte {
	length := 1
	for length < 8 {
		shift := uint(8*length - 1)
		if value >= -(int64(1)<<shift) && value < int64(1)<<shift {
			break
		}
		length++
	}
	out := make([]byte, length)
	v := uint64(value)
	for i := length - 1; i >= 0; i-- {
		out[i] = byte(v)
		v >>= 8
	}
	return out
}
