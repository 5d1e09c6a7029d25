package analyzer

import (
	"errors"
	"os"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/go-mkvedit/internal/ebml"
)

// seekSize is the length of a Seek entry whose position fits into n bytes.
func seekSize(n int) int64 {
	return int64(ebml.NewSeek(ebml.IDInfo, 0).Size(true)) - 1 + int64(n)
}

func TestRemoveElementsLeavesVoidAndIsIdempotent(t *testing.T) {
	f := writeSegment(t, segmentLayout{}, func(rel func(int) int64) []child {
		return []child{
			seekHeadChild(t, seekRef{ebml.IDInfo, rel(1)}, seekRef{ebml.IDTags, rel(2)}, seekRef{ebml.IDTracks, rel(3)}),
			elementChild(t, titledInfo(40)),
			elementChild(t, sampleTags("TITLE", "remove me")),
			elementChild(t, sampleTracks()),
			clusterChild(t, 100),
		}
	})
	size := f.size()
	before := f.entries()

	a := openScanned(t, f.path, testConfig())
	require.NoError(t, a.RemoveElements(ebml.IDTags))

	seek := seekSize(1)
	want := []Entry{
		{ID: ebml.IDSeekHead, Pos: before[0].Pos, Size: before[0].Size - seek},
		{ID: ebml.IDVoid, Pos: before[0].End() - seek, Size: seek},
		before[1],
		{ID: ebml.IDVoid, Pos: before[2].Pos, Size: before[2].Size},
		before[3],
		before[4],
	}
	assert.Equal(t, want, a.Entries())
	assert.Equal(t, size, f.size())
	assertConsistent(t, a, f.path)

	data := readFile(t, f.path)
	require.NoError(t, a.RemoveElements(ebml.IDTags))
	assert.Equal(t, want, a.Entries())
	assert.Equal(t, data, readFile(t, f.path))
}

func TestRemoveLastElementTruncates(t *testing.T) {
	f := writeSegment(t, segmentLayout{}, func(rel func(int) int64) []child {
		return []child{
			seekHeadChild(t, seekRef{ebml.IDInfo, rel(1)}, seekRef{ebml.IDTags, rel(3)}),
			elementChild(t, titledInfo(40)),
			clusterChild(t, 100),
			elementChild(t, sampleTags("TITLE", "x")),
			voidChild(t, 30),
		}
	})
	before := f.entries()

	reg := prometheus.NewRegistry()
	cfg := testConfig()
	cfg.Metrics = NewMetrics(reg)
	a := openScanned(t, f.path, cfg)
	require.NoError(t, a.RemoveElements(ebml.IDTags))

	assert.Equal(t, []ebml.ID{ebml.IDSeekHead, ebml.IDVoid, ebml.IDInfo, ebml.IDCluster}, ids(a.Entries()))
	assert.Equal(t, before[2].End(), f.size())
	assertConsistent(t, a, f.path)
	assert.Equal(t, float64(1), testutil.ToFloat64(cfg.Metrics.Truncations))
	assert.Equal(t, float64(1), testutil.ToFloat64(cfg.Metrics.Mutations.WithLabelValues(opRemove, "success")))

	// the new size is on disk, not only in memory
	reopened := openScanned(t, f.path, DefaultConfig())
	size, finite := reopened.SegmentSize()
	assert.True(t, finite)
	assert.Equal(t, uint64(before[2].End()-f.dataStart), size)
}

func TestUpdateElementGrowsIntoFollowingVoid(t *testing.T) {
	f := writeSegment(t, segmentLayout{}, func(rel func(int) int64) []child {
		return []child{
			seekHeadChild(t, seekRef{ebml.IDInfo, rel(1)}, seekRef{ebml.IDTracks, rel(3)}),
			elementChild(t, titledInfo(50)),
			voidChild(t, 100),
			elementChild(t, sampleTracks()),
			clusterChild(t, 100),
		}
	})
	size := f.size()
	before := f.entries()

	a := openScanned(t, f.path, testConfig())
	info := titledInfo(80)
	require.NoError(t, a.UpdateElement(info, false))

	want := []Entry{
		before[0],
		{ID: ebml.IDInfo, Pos: before[1].Pos, Size: 80},
		{ID: ebml.IDVoid, Pos: before[1].Pos + 80, Size: 70},
		before[3],
		before[4],
	}
	assert.Equal(t, want, a.Entries())
	assert.Equal(t, size, f.size())
	assertConsistent(t, a, f.path)

	got, err := a.ReadAll(ebml.IDInfo)
	require.NoError(t, err)
	assert.Equal(t, info.Child(ebml.IDTitle).Text(), got.Child(ebml.IDTitle).Text())
}

func TestUpdateElementMovesToEndAndForwardsSeekHead(t *testing.T) {
	f := writeSegment(t, segmentLayout{}, func(rel func(int) int64) []child {
		return []child{
			elementChild(t, titledInfo(50)),
			seekHeadChild(t, seekRef{ebml.IDInfo, rel(0)}, seekRef{ebml.IDCluster, rel(2)}),
			clusterChild(t, 980),
		}
	})
	size := f.size()
	before := f.entries()
	require.Equal(t, int64(33), before[1].Size)

	reg := prometheus.NewRegistry()
	cfg := testConfig()
	cfg.Metrics = NewMetrics(reg)
	a := openScanned(t, f.path, cfg)
	require.NoError(t, a.UpdateElement(titledInfo(80), false))

	// 80 bytes of Info plus the old seek head moved behind it with a second entry
	clone := before[1].Size + seekSize(2) - seekSize(1)
	want := []Entry{
		{ID: ebml.IDVoid, Pos: before[0].Pos, Size: 50},
		{ID: ebml.IDSeekHead, Pos: before[1].Pos, Size: 20},
		{ID: ebml.IDVoid, Pos: before[1].Pos + 20, Size: 13},
		before[2],
		{ID: ebml.IDInfo, Pos: before[2].End(), Size: 80},
		{ID: ebml.IDSeekHead, Pos: before[2].End() + 80, Size: clone},
	}
	assert.Equal(t, want, a.Entries())
	assert.Equal(t, size+80+clone, f.size())
	assertConsistent(t, a, f.path)
	assert.Equal(t, want, rescan(t, f.path, ParseFast))

	assert.Equal(t, float64(1), testutil.ToFloat64(cfg.Metrics.SeekHeadWrites.WithLabelValues("shrunk")))
	assert.Equal(t, float64(1), testutil.ToFloat64(cfg.Metrics.SeekHeadWrites.WithLabelValues("appended")))
	assert.Equal(t, float64(1), testutil.ToFloat64(cfg.Metrics.SeekHeadWrites.WithLabelValues("forwarded")))
	assert.Equal(t, float64(80+clone), testutil.ToFloat64(cfg.Metrics.BytesAppended))
}

func TestVoidBoundaries(t *testing.T) {
	tests := []struct {
		name    string
		shrink  int
		wantIDs []ebml.ID
	}{
		{"no gap", 0, []ebml.ID{ebml.IDSeekHead, ebml.IDInfo, ebml.IDTracks, ebml.IDCluster}},
		{"one byte", 1, []ebml.ID{ebml.IDSeekHead, ebml.IDInfo, ebml.IDTracks, ebml.IDCluster}},
		{"two bytes", 2, []ebml.ID{ebml.IDSeekHead, ebml.IDInfo, ebml.IDVoid, ebml.IDTracks, ebml.IDCluster}},
		{"ten bytes", 10, []ebml.ID{ebml.IDSeekHead, ebml.IDInfo, ebml.IDVoid, ebml.IDTracks, ebml.IDCluster}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := writeSegment(t, segmentLayout{}, func(rel func(int) int64) []child {
				return []child{
					seekHeadChild(t, seekRef{ebml.IDInfo, rel(1)}, seekRef{ebml.IDTracks, rel(2)}),
					elementChild(t, titledInfo(50)),
					elementChild(t, sampleTracks()),
					clusterChild(t, 100),
				}
			})
			size := f.size()
			before := f.entries()

			reg := prometheus.NewRegistry()
			cfg := testConfig()
			cfg.Metrics = NewMetrics(reg)
			a := openScanned(t, f.path, cfg)
			require.NoError(t, a.UpdateElement(titledInfo(50-tt.shrink), false))

			entries := a.Entries()
			assert.Equal(t, tt.wantIDs, ids(entries))
			assert.Equal(t, size, f.size())
			assertConsistent(t, a, f.path)
			assert.Equal(t, before[0], entries[0])
			assert.Equal(t, Entry{ID: ebml.IDInfo, Pos: before[1].Pos, Size: int64(50 - tt.shrink)}, entries[1])

			switch {
			case tt.shrink == 1:
				// the Tracks header moved one byte back and got a longer size field
				assert.Equal(t, Entry{ID: ebml.IDTracks, Pos: before[2].Pos - 1, Size: before[2].Size + 1}, entries[2])
				assert.Equal(t, float64(1), testutil.ToFloat64(cfg.Metrics.HeaderShifts))
				h, err := ebml.ReadHeaderAt(a.file, entries[2].Pos)
				require.NoError(t, err)
				assert.Equal(t, 2, h.SizeLen)
			case tt.shrink >= 2:
				assert.Equal(t, Entry{ID: ebml.IDVoid, Pos: before[1].Pos + int64(50-tt.shrink), Size: int64(tt.shrink)}, entries[2])
				assert.Equal(t, before[2], entries[3])
			default:
				assert.Equal(t, before[2], entries[2])
				assert.Equal(t, float64(0), testutil.ToFloat64(cfg.Metrics.HeaderShifts))
			}
		})
	}
}

func TestOneByteGapWidensElementBeforeFullHeader(t *testing.T) {
	f := writeSegment(t, segmentLayout{}, func(rel func(int) int64) []child {
		return []child{
			seekHeadChild(t, seekRef{ebml.IDInfo, rel(1)}, seekRef{ebml.IDTracks, rel(2)}),
			elementChild(t, titledInfo(50)),
			rawChild(t, sampleTracks(), 8),
			clusterChild(t, 100),
		}
	})
	before := f.entries()

	reg := prometheus.NewRegistry()
	cfg := testConfig()
	cfg.Metrics = NewMetrics(reg)
	a := openScanned(t, f.path, cfg)
	info := titledInfo(49)
	require.NoError(t, a.UpdateElement(info, false))

	entries := a.Entries()
	assert.Equal(t, Entry{ID: ebml.IDInfo, Pos: before[1].Pos, Size: 50}, entries[1])
	assert.Equal(t, before[2], entries[2])
	assertConsistent(t, a, f.path)
	assert.Equal(t, float64(1), testutil.ToFloat64(cfg.Metrics.HeaderShifts))
	assert.Equal(t, float64(0), testutil.ToFloat64(cfg.Metrics.LeakedBytes))

	got, err := a.ReadElement(entries[1])
	require.NoError(t, err)
	assert.Equal(t, info.Child(ebml.IDTitle).Text(), got.Child(ebml.IDTitle).Text())
}

func TestOneByteGapPolicy(t *testing.T) {
	layout := func(t *testing.T) fixture {
		return writeSegment(t, segmentLayout{}, func(rel func(int) int64) []child {
			return []child{
				rawChild(t, sampleTracks(), 8),
				{id: 0, data: []byte{0xFF}},
				rawChild(t, sampleTags("TITLE", "x"), 8),
			}
		})
	}

	t.Run("leak", func(t *testing.T) {
		f := layout(t)
		reg := prometheus.NewRegistry()
		cfg := DefaultConfig()
		cfg.Metrics = NewMetrics(reg)
		a := openScanned(t, f.path, cfg)

		created, err := a.handleVoidElements(0)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, float64(1), testutil.ToFloat64(cfg.Metrics.LeakedBytes))
		assert.Equal(t, byte(0), readFile(t, f.path)[f.pos(1)])
		assert.Equal(t, a.Entries(), rescan(t, f.path, ParseFull))
	})

	t.Run("error", func(t *testing.T) {
		f := layout(t)
		before := readFile(t, f.path)
		cfg := DefaultConfig()
		cfg.OneByteGap = GapError
		a := openScanned(t, f.path, cfg)

		_, err := a.handleVoidElements(0)
		assert.ErrorIs(t, err, ErrOneByteGap)
		assert.Equal(t, before, readFile(t, f.path))
	})

	t.Run("widen", func(t *testing.T) {
		f := writeSegment(t, segmentLayout{}, func(rel func(int) int64) []child {
			return []child{
				elementChild(t, sampleTracks()),
				{id: 0, data: []byte{0xFF}},
				rawChild(t, sampleTags("TITLE", "x"), 8),
			}
		})
		a := openScanned(t, f.path, DefaultConfig())
		tracks, err := a.ReadElement(a.Entries()[0])
		require.NoError(t, err)

		_, err = a.handleVoidElements(0)
		require.NoError(t, err)

		want := f.entries()
		want[0].Size++
		want = append(want[:1], want[2:]...)
		assert.Equal(t, want, a.Entries())
		assert.Equal(t, want, rescan(t, f.path, ParseFull))

		moved, err := a.ReadElement(a.Entries()[0])
		require.NoError(t, err)
		assert.Equal(t, tracks, moved)
	})
}

func TestMoveRightInChunks(t *testing.T) {
	f := writeSegment(t, segmentLayout{}, func(rel func(int) int64) []child {
		return []child{elementChild(t, titledInfo(40))}
	})
	a := openScanned(t, f.path, DefaultConfig())

	payload := make([]byte, moveChunkSize+100)
	for i := range payload {
		payload[i] = byte(i % 251)
	}
	pos := f.size()
	require.NoError(t, a.writeAt(payload, pos))
	require.NoError(t, a.moveRight(pos, int64(len(payload))))

	data := readFile(t, f.path)
	assert.Equal(t, payload, data[pos+1:])
}

func TestUpdateElementAppendsTagsAndGrowsSeekHead(t *testing.T) {
	f := writeSegment(t, segmentLayout{}, func(rel func(int) int64) []child {
		return []child{
			seekHeadChild(t, seekRef{ebml.IDInfo, rel(2)}),
			voidChild(t, 60),
			elementChild(t, titledInfo(40)),
			clusterChild(t, 100),
		}
	})
	size := f.size()
	before := f.entries()

	a := openScanned(t, f.path, testConfig())
	tags := sampleTags("TITLE", "appended", "ENCODER", "test")
	require.NoError(t, a.UpdateElement(tags, true))

	tagsSize := int64(tags.Size(true))
	seek := seekSize(1)
	want := []Entry{
		{ID: ebml.IDSeekHead, Pos: before[0].Pos, Size: before[0].Size + seek},
		{ID: ebml.IDVoid, Pos: before[0].End() + seek, Size: 60 - seek},
		before[2],
		before[3],
		{ID: ebml.IDTags, Pos: size, Size: tagsSize},
	}
	assert.Equal(t, want, a.Entries())
	assert.Equal(t, size+tagsSize, f.size())
	assertConsistent(t, a, f.path)

	got, err := a.ReadAll(ebml.IDTags)
	require.NoError(t, err)
	assert.Equal(t, tags, got)
}

func TestUpdateElementGrowsLastSeekHeadInPlace(t *testing.T) {
	f := writeSegment(t, segmentLayout{}, func(rel func(int) int64) []child {
		return []child{
			voidChild(t, 80),
			elementChild(t, titledInfo(40)),
			clusterChild(t, 100),
			seekHeadChild(t, seekRef{ebml.IDInfo, rel(1)}),
		}
	})
	size := f.size()
	before := f.entries()

	cfg := testConfig()
	cfg.Placement = func(ebml.ID) PlacementStrategy { return PlaceAnywhere }
	a := openScanned(t, f.path, cfg)
	tags := sampleTags("TITLE", "x")
	require.NoError(t, a.UpdateElement(tags, false))

	tagsSize := int64(tags.Size(false))
	seek := seekSize(1)
	want := []Entry{
		{ID: ebml.IDTags, Pos: before[0].Pos, Size: tagsSize},
		{ID: ebml.IDVoid, Pos: before[0].Pos + tagsSize, Size: 80 - tagsSize},
		before[1],
		before[2],
		{ID: ebml.IDSeekHead, Pos: before[3].Pos, Size: before[3].Size + seek},
	}
	assert.Equal(t, want, a.Entries())
	assert.Equal(t, size+seek, f.size())
	assertConsistent(t, a, f.path)
}

func TestUpdateElementCreatesSeekHeadInVoid(t *testing.T) {
	f := writeSegment(t, segmentLayout{}, func(rel func(int) int64) []child {
		return []child{
			elementChild(t, titledInfo(40)),
			voidChild(t, 40),
			clusterChild(t, 100),
		}
	})
	size := f.size()
	before := f.entries()

	reg := prometheus.NewRegistry()
	cfg := testConfig()
	cfg.Metrics = NewMetrics(reg)
	a := openScanned(t, f.path, cfg)
	tags := sampleTags("TITLE", "x")
	require.NoError(t, a.UpdateElement(tags, false))

	tagsSize := int64(tags.Size(false))
	head := int64(ebml.NewMaster(ebml.IDSeekHead, ebml.NewSeek(ebml.IDTags, uint64(size-f.dataStart))).Size(true))
	want := []Entry{
		before[0],
		{ID: ebml.IDSeekHead, Pos: before[1].Pos, Size: head},
		{ID: ebml.IDVoid, Pos: before[1].Pos + head, Size: 40 - head},
		before[2],
		{ID: ebml.IDTags, Pos: size, Size: tagsSize},
	}
	assert.Equal(t, want, a.Entries())
	assertConsistent(t, a, f.path)
	assert.Equal(t, float64(1), testutil.ToFloat64(cfg.Metrics.SeekHeadWrites.WithLabelValues("created")))
}

func TestUpdateElementNotIndexable(t *testing.T) {
	f := writeSegment(t, segmentLayout{}, func(rel func(int) int64) []child {
		return []child{
			elementChild(t, titledInfo(50)),
			clusterChild(t, 100),
		}
	})
	before := readFile(t, f.path)

	a := openScanned(t, f.path, testConfig())
	err := a.UpdateElement(sampleTags("TITLE", "x"), false)
	require.ErrorIs(t, err, ErrNotIndexable)
	var me *MutationError
	assert.False(t, errors.As(err, &me))

	assert.Equal(t, before, readFile(t, f.path))
	assert.Equal(t, f.entries(), a.Entries())
}

func TestUpdateElementNotIndexableWhenElementTakesTheVoid(t *testing.T) {
	tracksSize := int(sampleTracks().Size(false))
	f := writeSegment(t, segmentLayout{}, func(rel func(int) int64) []child {
		return []child{
			elementChild(t, titledInfo(50)),
			voidChild(t, tracksSize+10),
			clusterChild(t, 100),
		}
	})
	before := readFile(t, f.path)

	a := openScanned(t, f.path, testConfig())
	err := a.UpdateElement(sampleTracks(), false)
	require.ErrorIs(t, err, ErrNotIndexable)
	var me *MutationError
	assert.False(t, errors.As(err, &me))

	assert.Equal(t, before, readFile(t, f.path))
	assert.Equal(t, f.entries(), a.Entries())
}

func TestUpdateElementSharesVoidWithNewSeekHead(t *testing.T) {
	tracksSize := int(sampleTracks().Size(false))
	f := writeSegment(t, segmentLayout{}, func(rel func(int) int64) []child {
		return []child{
			elementChild(t, titledInfo(50)),
			voidChild(t, tracksSize+40),
			clusterChild(t, 100),
		}
	})
	size := f.size()

	a := openScanned(t, f.path, testConfig())
	require.NoError(t, a.UpdateElement(sampleTracks(), false))

	assert.Equal(t, []ebml.ID{ebml.IDInfo, ebml.IDTracks, ebml.IDSeekHead, ebml.IDVoid, ebml.IDCluster}, ids(a.Entries()))
	assert.Equal(t, size, f.size())
	assertConsistent(t, a, f.path)
}

func TestUpdateElementReusesOwnSlotForSeekHead(t *testing.T) {
	f := writeSegment(t, segmentLayout{}, func(rel func(int) int64) []child {
		return []child{
			elementChild(t, titledInfo(50)),
			clusterChild(t, 100),
		}
	})
	size := f.size()

	a := openScanned(t, f.path, testConfig())
	require.NoError(t, a.UpdateElement(titledInfo(80), false))

	assert.Equal(t, []ebml.ID{ebml.IDSeekHead, ebml.IDVoid, ebml.IDCluster, ebml.IDInfo}, ids(a.Entries()))
	assert.Equal(t, size+80, f.size())
	assertConsistent(t, a, f.path)
}

func TestForwardingSeekHeadMustFit(t *testing.T) {
	f := writeSegment(t, segmentLayout{}, func(rel func(int) int64) []child {
		return []child{
			seekHeadChild(t),
			elementChild(t, titledInfo(40)),
			clusterChild(t, 100),
		}
	})
	size := f.size()

	a := openScanned(t, f.path, testConfig())
	tags := sampleTags("TITLE", "x")
	err := a.UpdateElement(tags, false)
	require.ErrorIs(t, err, ErrMetaSeek)

	var me *MutationError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, opUpdate, me.Op)
	assert.Equal(t, "add_to_meta_seek", me.Step)
	assert.Contains(t, me.Error(), "state is uncertain")

	// the element was written but no seek head copy was
	assert.Equal(t, size+int64(tags.Size(false)), f.size())
}

func TestUnknownSizeSegmentIsLeftAlone(t *testing.T) {
	f := writeSegment(t, segmentLayout{unknownSize: true}, func(rel func(int) int64) []child {
		return []child{
			seekHeadChild(t, seekRef{ebml.IDInfo, rel(2)}),
			voidChild(t, 40),
			elementChild(t, titledInfo(40)),
			clusterChild(t, 100),
		}
	})
	header := readFile(t, f.path)[:f.dataStart]

	a := openScanned(t, f.path, testConfig())
	require.NoError(t, a.UpdateElement(sampleTags("TITLE", "x"), false))
	require.NoError(t, a.RemoveElements(ebml.IDInfo))

	assert.Equal(t, header, readFile(t, f.path)[:f.dataStart])
	_, finite := a.SegmentSize()
	assert.False(t, finite)
	assertConsistent(t, a, f.path)
}

func TestUpdateElementReplacesEveryInstance(t *testing.T) {
	f := writeSegment(t, segmentLayout{}, func(rel func(int) int64) []child {
		return []child{
			seekHeadChild(t, seekRef{ebml.IDTags, rel(1)}, seekRef{ebml.IDTags, rel(3)}, seekRef{ebml.IDInfo, rel(2)}),
			elementChild(t, sampleTags("A", "1")),
			elementChild(t, titledInfo(40)),
			elementChild(t, sampleTags("B", "2")),
			clusterChild(t, 100),
		}
	})

	a := openScanned(t, f.path, testConfig())
	tags := sampleTags("C", "3")
	require.NoError(t, a.UpdateElement(tags, true))

	idx := a.Find(ebml.IDTags)
	require.GreaterOrEqual(t, idx, 0)
	count := 0
	for _, entry := range a.Entries() {
		if entry.ID == ebml.IDTags {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assertConsistent(t, a, f.path)

	got, err := a.ReadAll(ebml.IDTags)
	require.NoError(t, err)
	assert.Equal(t, tags, got)
}

func TestMutationPreconditions(t *testing.T) {
	f := writeSegment(t, segmentLayout{}, func(rel func(int) int64) []child {
		return []child{
			seekHeadChild(t, seekRef{ebml.IDInfo, rel(1)}),
			elementChild(t, titledInfo(40)),
			clusterChild(t, 100),
		}
	})
	before := readFile(t, f.path)

	a := openScanned(t, f.path, testConfig())
	assert.Error(t, a.UpdateElement(ebml.NewMaster(ebml.IDVoid), false))
	assert.Error(t, a.RemoveElements(ebml.IDVoid))
	assert.Error(t, a.RemoveElements(ebml.ID(0x7F)))

	readOnly := testConfig()
	readOnly.ReadOnly = true
	ro := openScanned(t, f.path, readOnly)
	assert.ErrorIs(t, ro.RemoveElements(ebml.IDInfo), ErrReadOnly)
	assert.ErrorIs(t, ro.UpdateElement(titledInfo(40), false), ErrReadOnly)

	unscanned, err := Open(f.path, testConfig())
	require.NoError(t, err)
	defer unscanned.Close()
	assert.ErrorIs(t, unscanned.RemoveElements(ebml.IDInfo), ErrNotScanned)

	assert.Equal(t, before, readFile(t, f.path))
}

func TestCheckpointFailureNamesHook(t *testing.T) {
	f := writeSegment(t, segmentLayout{}, func(rel func(int) int64) []child {
		return []child{
			seekHeadChild(t, seekRef{ebml.IDInfo, rel(1)}),
			elementChild(t, titledInfo(40)),
			clusterChild(t, 100),
		}
	})
	before := readFile(t, f.path)

	a := openScanned(t, f.path, testConfig())
	a.entries[1].Size += 5

	err := a.RemoveElements(ebml.IDTags)
	var me *MutationError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, opRemove, me.Op)
	assert.Equal(t, "remove_elements_0", me.Step)
	assert.ErrorIs(t, err, ErrInternal)
	assert.Equal(t, before, readFile(t, f.path))
}

func TestMutationErrorFormat(t *testing.T) {
	cause := os.ErrClosed
	err := &MutationError{Op: opUpdate, Step: "write_element", ID: ebml.IDTags, Pos: 1234, Kind: ErrSegmentSizeForElement, Err: cause}

	assert.ErrorIs(t, err, ErrSegmentSizeForElement)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "update_element failed at write_element (element Tags at 1234): "+
		ErrSegmentSizeForElement.Error()+": "+cause.Error()+
		"; the file has been modified and its state is uncertain", err.Error())

	bare := &MutationError{Op: opRemove, Pos: -1, Kind: ErrInternal}
	assert.Equal(t, "remove_elements failed: "+ErrInternal.Error()+
		"; the file has been modified and its state is uncertain", bare.Error())
	assert.Equal(t, []error{ErrInternal}, bare.Unwrap())
}
