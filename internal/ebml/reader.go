package ebml

import (
	"bufio"
	"io"
)

// Reader walks element headers sequentially. Payloads are skipped by seeking, never by
// reading bytes just to drop them.
type Reader struct {
	r   *bufio.Reader
	rs  io.ReadSeeker
	pos int64
}

// Header describes one element header as found on disk.
type Header struct {
	ID      ID
	IDLen   int
	Size    uint64
	SizeLen int
	Pos     int64
}

// HeadLen is the number of bytes taken by the id and size fields.
func (h Header) HeadLen() int64 {
	return int64(h.IDLen + h.SizeLen)
}

// Total is the full element length, or -1 when the size is unknown.
func (h Header) Total() int64 {
	if h.Size == UnknownSize {
		return -1
	}
	return h.HeadLen() + int64(h.Size)
}

func NewReader(rs io.ReadSeeker) *Reader {
	return NewReaderWithBufSize(rs, 64*1024)
}

func NewReaderWithBufSize(rs io.ReadSeeker, bufSize int) *Reader {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	return &Reader{
		rs: rs,
		r:  bufio.NewReaderSize(rs, bufSize),
	}
}

func (er *Reader) Pos() int64 {
	return er.pos
}

// Seek repositions the reader at an absolute offset and drops buffered bytes.
func (er *Reader) Seek(pos int64) error {
	if _, err := er.rs.Seek(pos, io.SeekStart); err != nil {
		return err
	}
	er.pos = pos
	er.r.Reset(er.rs)
	return nil
}

func (er *Reader) readByte() (byte, error) {
	b, err := er.r.ReadByte()
	if err != nil {
		return 0, err
	}
	er.pos++
	return b, nil
}

// Skip advances n bytes, consuming what is buffered and seeking past the rest.
func (er *Reader) Skip(n int64) error {
	if n <= 0 {
		return nil
	}
	if buffered := er.r.Buffered(); buffered > 0 {
		toDiscard := int64(buffered)
		if toDiscard > n {
			toDiscard = n
		}
		discarded, err := er.r.Discard(int(toDiscard))
		er.pos += int64(discarded)
		n -= int64(discarded)
		if err != nil && err != bufio.ErrBufferFull {
			return err
		}
		if n <= 0 {
			return nil
		}
	}
	return er.Seek(er.pos + n)
}

func (er *Reader) ReadID() (ID, int, error) {
	first, length, err := er.readVintHeader()
	if err != nil {
		return 0, 0, err
	}
	if length > 4 {
		return 0, 0, ErrInvalidVint
	}
	value, err := er.readVintTail(uint64(first), length)
	return ID(value), length, err
}

func (er *Reader) ReadSize() (uint64, int, error) {
	first, length, err := er.readVintHeader()
	if err != nil {
		return 0, 0, err
	}
	mask := byte(0xFF >> length)
	value, err := er.readVintTail(uint64(first&mask), length)
	if err != nil {
		return 0, 0, err
	}
	if value == maxSizeValue(length)+1 {
		return UnknownSize, length, nil
	}
	return value, length, nil
}

// ReadHeader reads an id and a size at the current position.
func (er *Reader) ReadHeader() (Header, error) {
	h := Header{Pos: er.pos}
	var err error
	if h.ID, h.IDLen, err = er.ReadID(); err != nil {
		return h, err
	}
	if h.Size, h.SizeLen, err = er.ReadSize(); err != nil {
		return h, err
	}
	return h, nil
}

func (er *Reader) readVintHeader() (byte, int, error) {
	first, err := er.readByte()
	if err != nil {
		return 0, 0, err
	}
	length := vintLength(first)
	if length == 0 {
		return 0, 0, ErrInvalidVint
	}
	return first, length, nil
}

func (er *Reader) readVintTail(value uint64, length int) (uint64, error) {
	for i := 1; i < length; i++ {
		b, err := er.readByte()
		if err != nil {
			return 0, err
		}
		value = (value << 8) | uint64(b)
	}
	return value, nil
}

// ReadHeaderAt parses the element header stored at pos without disturbing any reader.
func ReadHeaderAt(r io.ReaderAt, pos int64) (Header, error) {
	buf := make([]byte, 4+MaxSizeLength)
	n, err := r.ReadAt(buf, pos)
	if n == 0 && err != nil {
		return Header{}, err
	}
	buf = buf[:n]
	h := Header{Pos: pos}
	if h.ID, h.IDLen, err = ParseID(buf); err != nil {
		return h, err
	}
	if h.Size, h.SizeLen, err = ParseSize(buf[h.IDLen:]); err != nil {
		return h, err
	}
	return h, nil
}
