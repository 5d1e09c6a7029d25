// Package analyzer indexes the level-1 elements of a Matroska file and edits them in place:
// elements are replaced, removed and re-indexed without re-muxing, freed space is covered
// with Void elements, and the seek heads and the Segment size are kept consistent.
//
// An Analyzer owns one file handle for a single-threaded scan-and-mutate session. Nothing
// locks the file; callers must make sure no other writer touches it.
package analyzer

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/exp/mmap"

	"github.com/autobrr/go-mkvedit/internal/ebml"
)

// File is the byte-addressable handle the analyzer works on. *os.File satisfies it.
type File interface {
	io.ReaderAt
	io.WriterAt
	Truncate(size int64) error
	Stat() (fs.FileInfo, error)
}

type segmentInfo struct {
	pos     int64
	idLen   int
	sizeLen int
	size    uint64
}

func (s segmentInfo) dataStart() int64 {
	return s.pos + int64(s.idLen+s.sizeLen)
}

func (s segmentInfo) finite() bool {
	return s.size != ebml.UnknownSize
}

type Analyzer struct {
	name      string
	file      File
	closeFile bool

	cfg     Config
	log     hclog.Logger
	metrics *Metrics

	scanned bool
	segment segmentInfo
	entries []Entry
}

// Probe reports whether the file at path starts with the EBML magic.
func Probe(path string) bool {
	r, err := mmap.Open(path)
	if err != nil {
		return false
	}
	defer r.Close()

	if r.Len() < 4 {
		return false
	}
	magic := make([]byte, 4)
	if _, err := r.ReadAt(magic, 0); err != nil {
		return false
	}
	return bytes.Equal(magic, ebml.IDEBML.Bytes())
}

// Open opens path for reading and writing (reading only with cfg.ReadOnly). The returned
// analyzer owns the handle; Close releases it.
func Open(path string, cfg Config) (*Analyzer, error) {
	flag := os.O_RDWR
	if cfg.ReadOnly {
		flag = os.O_RDONLY
	}
	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %w", path, err)
	}
	a := New(f, cfg)
	a.name = path
	a.closeFile = true
	return a, nil
}

// New wraps a caller-owned handle. Close will not close it.
func New(f File, cfg Config) *Analyzer {
	cfg = cfg.normalize()
	name := ""
	if named, ok := f.(interface{ Name() string }); ok {
		name = named.Name()
	}
	return &Analyzer{
		name:    name,
		file:    f,
		cfg:     cfg,
		log:     cfg.Logger.Named("analyzer"),
		metrics: cfg.Metrics,
	}
}

func (a *Analyzer) Close() error {
	if !a.closeFile || a.file == nil {
		return nil
	}
	closer, ok := a.file.(io.Closer)
	a.file = nil
	if !ok {
		return nil
	}
	return closer.Close()
}

func (a *Analyzer) Name() string {
	return a.name
}

// Entries returns a copy of the directory in on-disk order.
func (a *Analyzer) Entries() []Entry {
	return append([]Entry(nil), a.entries...)
}

// Find returns the index of the first entry with the given id, or -1.
func (a *Analyzer) Find(id ebml.ID) int {
	for i, entry := range a.entries {
		if entry.ID == id {
			return i
		}
	}
	return -1
}

// SegmentDataStart is the absolute offset seek positions are relative to.
func (a *Analyzer) SegmentDataStart() int64 {
	return a.segment.dataStart()
}

// SegmentSize returns the Segment's coded size and false when it is unknown.
func (a *Analyzer) SegmentSize() (uint64, bool) {
	return a.segment.size, a.segment.finite()
}

// ReadElement decodes the full tree of the element an entry points at. The tree is owned by
// the caller and never cached.
func (a *Analyzer) ReadElement(entry Entry) (*ebml.Element, error) {
	element, _, err := a.readElementAt(entry)
	return element, err
}

func (a *Analyzer) readElementAt(entry Entry) (*ebml.Element, ebml.Header, error) {
	h, err := ebml.ReadHeaderAt(a.file, entry.Pos)
	if err != nil {
		return nil, h, fmt.Errorf("reading header of %s: %w", entry, err)
	}
	if h.ID != entry.ID {
		return nil, h, fmt.Errorf("expected %s at %d, found %s", entry.ID, entry.Pos, h.ID)
	}
	if h.Size == ebml.UnknownSize {
		return nil, h, fmt.Errorf("%s at %d has an unknown size", entry.ID, entry.Pos)
	}
	buf := make([]byte, h.Total())
	if _, err := a.file.ReadAt(buf, entry.Pos); err != nil {
		return nil, h, fmt.Errorf("reading %s: %w", entry, err)
	}
	element, _, err := ebml.DecodeOne(buf)
	if err != nil {
		return nil, h, fmt.Errorf("decoding %s: %w", entry, err)
	}
	return element, h, nil
}

// ReadAll decodes every entry with the given id and merges their children into the first
// one. It returns nil when there is no such entry or the merged element is empty.
func (a *Analyzer) ReadAll(id ebml.ID) (*ebml.Element, error) {
	var master *ebml.Element
	for _, entry := range a.entries {
		if entry.ID != id {
			continue
		}
		element, err := a.ReadElement(entry)
		if err != nil {
			return nil, err
		}
		if master == nil {
			master = element
			continue
		}
		master.Append(element.Children...)
	}
	if master == nil || len(master.Children) == 0 {
		return nil, nil
	}
	return master, nil
}

func (a *Analyzer) fileSize() (int64, error) {
	info, err := a.file.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (a *Analyzer) writeAt(data []byte, pos int64) error {
	n, err := a.file.WriteAt(data, pos)
	if err != nil {
		return err
	}
	if n != len(data) {
		return io.ErrShortWrite
	}
	return nil
}

// renderAt encodes e at pos and returns the number of bytes written.
func (a *Analyzer) renderAt(e *ebml.Element, pos int64, writeDefaults bool) (int64, error) {
	data, err := e.Encode(writeDefaults)
	if err != nil {
		return 0, err
	}
	if err := a.writeAt(data, pos); err != nil {
		return 0, err
	}
	return int64(len(data)), nil
}

func (a *Analyzer) truncate(size int64) error {
	if err := a.file.Truncate(size); err != nil {
		return err
	}
	a.metrics.truncation()
	return nil
}

func (a *Analyzer) writable() error {
	if !a.scanned {
		return ErrNotScanned
	}
	if a.cfg.ReadOnly {
		return ErrReadOnly
	}
	return nil
}
