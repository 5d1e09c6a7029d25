package ebml

import "fmt"

// MinVoidSize is the smallest Void element: one id byte plus a one-byte size of zero.
const MinVoidSize = 2

// VoidHeader renders the header of a Void element occupying exactly total bytes. The size
// field is widened when the shortest encoding would leave the element one byte short.
func VoidHeader(total uint64) ([]byte, error) {
	if total < MinVoidSize {
		return nil, fmt.Errorf("ebml: void of %d bytes is below the minimum of %d", total, MinVoidSize)
	}
	for length := 1; length <= MaxSizeLength; length++ {
		if total < uint64(1+length) {
			break
		}
		data := total - uint64(1+length)
		if data > maxSizeValue(length) {
			continue
		}
		coded, err := EncodeSize(data, length)
		if err != nil {
			return nil, err
		}
		return append(IDVoid.Bytes(), coded...), nil
	}
	return nil, fmt.Errorf("%w: void of %d bytes", ErrSizeTooBig, total)
}
