package analyzer

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/autobrr/go-mkvedit/internal/ebml"
)

// child is one level-1 element of a test file, already rendered.
type child struct {
	id   ebml.ID
	data []byte
}

type segmentLayout struct {
	// sizeLen is the length of the Segment size field, 8 when zero.
	sizeLen     int
	unknownSize bool
	// trailing is appended after the Segment.
	trailing []byte
}

type fixture struct {
	path      string
	dataStart int64
	children  []child
	offsets   []int64
}

// pos is the absolute position of child i.
func (f fixture) pos(i int) int64 {
	return f.dataStart + f.offsets[i]
}

func (f fixture) entries() []Entry {
	out := make([]Entry, len(f.children))
	for i, c := range f.children {
		out[i] = Entry{ID: c.id, Pos: f.pos(i), Size: int64(len(c.data))}
	}
	return out
}

func (f fixture) size() int64 {
	info, err := os.Stat(f.path)
	if err != nil {
		return -1
	}
	return info.Size()
}

func encodeElement(t testing.TB, e *ebml.Element) []byte {
	t.Helper()
	data, err := e.Encode(true)
	require.NoError(t, err)
	return data
}

func elementChild(t testing.TB, e *ebml.Element) child {
	return child{id: e.ID, data: encodeElement(t, e)}
}

func ebmlHead() *ebml.Element {
	return ebml.NewMaster(ebml.IDEBML,
		ebml.NewUint(ebml.IDEBMLVersion, 1),
		ebml.NewUint(ebml.IDEBMLReadVersion, 1),
		ebml.NewUint(ebml.IDEBMLMaxIDLength, 4),
		ebml.NewUint(ebml.IDEBMLMaxSizeLength, 8),
		ebml.NewString(ebml.IDDocType, "matroska"),
		ebml.NewUint(ebml.IDDocTypeVersion, 4),
		ebml.NewUint(ebml.IDDocTypeReadVersion, 2),
	)
}

func voidChild(t testing.TB, total int) child {
	t.Helper()
	header, err := ebml.VoidHeader(uint64(total))
	require.NoError(t, err)
	data := make([]byte, total)
	copy(data, header)
	return child{id: ebml.IDVoid, data: data}
}

// titledInfo returns an Info element holding only a Title, sized to total bytes (8 to 131).
func titledInfo(total int) *ebml.Element {
	return ebml.NewMaster(ebml.IDInfo, ebml.NewString(ebml.IDTitle, strings.Repeat("t", total-8)))
}

func sampleTracks() *ebml.Element {
	return ebml.NewMaster(ebml.IDTracks,
		ebml.NewMaster(ebml.IDTrackEntry,
			ebml.NewUint(ebml.IDTrackNumber, 1),
			ebml.NewUint(ebml.IDTrackUID, 0x1234),
			ebml.NewUint(ebml.IDTrackType, 1),
			ebml.NewString(ebml.IDCodecID, "V_MPEG4/ISO/AVC"),
		),
	)
}

func sampleTags(pairs ...string) *ebml.Element {
	tag := ebml.NewMaster(ebml.IDTag, ebml.NewMaster(ebml.IDTargets, ebml.NewUint(ebml.IDTargetTypeVal, 50)))
	for i := 0; i+1 < len(pairs); i += 2 {
		tag.Append(ebml.NewMaster(ebml.IDSimpleTag,
			ebml.NewString(ebml.IDTagName, pairs[i]),
			ebml.NewString(ebml.IDTagString, pairs[i+1]),
		))
	}
	return ebml.NewMaster(ebml.IDTags, tag)
}

// clusterChild returns a Cluster with a timecode and one SimpleBlock of payload bytes.
func clusterChild(t testing.TB, payload int) child {
	t.Helper()
	block := make([]byte, payload)
	for i := range block {
		block[i] = byte(i)
	}
	return elementChild(t, ebml.NewMaster(ebml.IDCluster,
		ebml.NewUint(ebml.IDTimecode, 0),
		ebml.NewBinary(ebml.IDSimpleBlock, block),
	))
}

// rawChild renders a master with a size field of sizeLen bytes.
func rawChild(t testing.TB, e *ebml.Element, sizeLen int) child {
	t.Helper()
	var body []byte
	for _, c := range e.Children {
		body = append(body, encodeElement(t, c)...)
	}
	header, err := ebml.EncodeHeader(e.ID, uint64(len(body)), sizeLen)
	require.NoError(t, err)
	return child{id: e.ID, data: append(header, body...)}
}

type seekRef struct {
	id  ebml.ID
	pos int64
}

func seekHeadChild(t testing.TB, refs ...seekRef) child {
	t.Helper()
	head := ebml.NewMaster(ebml.IDSeekHead)
	for _, ref := range refs {
		head.Append(ebml.NewSeek(ref.id, uint64(ref.pos)))
	}
	return elementChild(t, head)
}

// writeSegment renders an EBML head and a Segment holding the children build returns. build
// gets the offsets (relative to the Segment data start) of the previous pass so seek heads
// can point at later children; passes repeat until the layout no longer moves.
func writeSegment(t testing.TB, layout segmentLayout, build func(rel func(int) int64) []child) fixture {
	t.Helper()

	var offsets []int64
	rel := func(i int) int64 {
		if i < len(offsets) {
			return offsets[i]
		}
		return 0
	}

	var children []child
	stable := false
	for pass := 0; pass < 8 && !stable; pass++ {
		children = build(rel)
		next := make([]int64, len(children))
		var off int64
		for i, c := range children {
			next[i] = off
			off += int64(len(c.data))
		}
		stable = slices.Equal(next, offsets)
		offsets = next
	}
	require.True(t, stable, "layout did not settle")

	var body []byte
	for _, c := range children {
		body = append(body, c.data...)
	}

	sizeLen := layout.sizeLen
	if sizeLen == 0 {
		sizeLen = 8
	}
	var segment []byte
	if layout.unknownSize {
		segment = append(ebml.IDSegment.Bytes(), ebml.EncodeUnknownSize(sizeLen)...)
	} else {
		var err error
		segment, err = ebml.EncodeHeader(ebml.IDSegment, uint64(len(body)), sizeLen)
		require.NoError(t, err)
	}

	file := encodeElement(t, ebmlHead())
	dataStart := int64(len(file) + len(segment))
	file = append(file, segment...)
	file = append(file, body...)
	file = append(file, layout.trailing...)

	path := filepath.Join(t.TempDir(), "test.mkv")
	require.NoError(t, os.WriteFile(path, file, 0644))

	return fixture{path: path, dataStart: dataStart, children: children, offsets: offsets}
}

// testConfig checks the directory against the file after every mutation step.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.StrictGaps = true
	cfg.VerifyCheckpoints = true
	return cfg
}

func openScanned(t testing.TB, path string, cfg Config) *Analyzer {
	t.Helper()
	a, err := Open(path, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	require.NoError(t, a.Scan())
	return a
}

func readFile(t testing.TB, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

// rescan derives the directory of path from scratch.
func rescan(t testing.TB, path string, mode ParseMode) []Entry {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	entries, err := Derive(f, mode)
	require.NoError(t, err)
	return entries
}

func ids(entries []Entry) []ebml.ID {
	out := make([]ebml.ID, len(entries))
	for i, entry := range entries {
		out[i] = entry.ID
	}
	return out
}

// assertConsistent checks that the file on disk matches a's directory, has no gaps and that
// every seek entry resolves.
func assertConsistent(t *testing.T, a *Analyzer, path string) {
	t.Helper()
	require.NoError(t, ValidateEntries(a.Entries(), true))
	require.Equal(t, a.Entries(), rescan(t, path, ParseFull))
	problems, err := a.CheckSeekEntries()
	require.NoError(t, err)
	require.Empty(t, problems)

	size, finite := a.SegmentSize()
	if finite {
		info, err := os.Stat(path)
		require.NoError(t, err)
		require.Equal(t, uint64(info.Size()-a.SegmentDataStart()), size)
	}
}
