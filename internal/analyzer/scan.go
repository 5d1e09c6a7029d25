package analyzer

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/autobrr/go-mkvedit/internal/ebml"
)

// maxResyncBytes bounds how far the scanner steps byte by byte over unparsable headers.
const maxResyncBytes = 64 * 1024

// Scan builds the directory using the configured parse mode.
func (a *Analyzer) Scan() error {
	return a.ScanMode(a.cfg.ParseMode)
}

// ScanMode reads the EBML head and the Segment header, then records every level-1 element
// without descending into it. Nothing is written; an aborted or failed scan leaves the
// analyzer without a directory.
func (a *Analyzer) ScanMode(mode ParseMode) error {
	if mode != ParseFast {
		mode = ParseFull
	}
	a.scanned = false
	a.entries = nil
	a.segment = segmentInfo{}

	err := a.scan(mode)
	switch {
	case errors.Is(err, ErrAborted):
		a.metrics.scan(mode, "aborted")
	case err != nil:
		a.metrics.scan(mode, "error")
	default:
		a.metrics.scan(mode, "success")
	}
	if err != nil {
		a.entries = nil
		return err
	}
	a.cfg.ParseMode = mode
	a.scanned = true
	return nil
}

func (a *Analyzer) scan(mode ParseMode) error {
	fileSize, err := a.fileSize()
	if err != nil {
		return fmt.Errorf("could not determine file size: %w", err)
	}

	a.cfg.Progress.Start(fileSize)
	defer a.cfg.Progress.Done()

	r := ebml.NewReader(io.NewSectionReader(a.file, 0, fileSize))

	head, err := r.ReadHeader()
	if err != nil || head.ID != ebml.IDEBML || head.Size == ebml.UnknownSize {
		return ErrNotMatroska
	}
	if err := r.Skip(int64(head.Size)); err != nil {
		return fmt.Errorf("skipping EBML head: %w", err)
	}

	seg, err := r.ReadHeader()
	if err != nil || seg.ID != ebml.IDSegment {
		return ErrNoSegment
	}
	a.segment = segmentInfo{pos: seg.Pos, idLen: seg.IDLen, sizeLen: seg.SizeLen, size: seg.Size}

	end := fileSize
	if a.segment.finite() && a.segment.dataStart()+int64(seg.Size) < end {
		end = a.segment.dataStart() + int64(seg.Size)
	}

	metaSeekFound := false
	resynced := int64(0)

	for r.Pos() < end {
		pos := r.Pos()
		h, err := r.ReadHeader()
		if err != nil || !plausibleLevel1(h, end) {
			if err != nil && errors.Is(err, io.EOF) {
				break
			}
			resynced++
			if resynced > maxResyncBytes {
				a.log.Warn("giving up resynchronisation", "pos", pos)
				break
			}
			if err := r.Seek(pos + 1); err != nil {
				return fmt.Errorf("resynchronising at %d: %w", pos, err)
			}
			continue
		}
		if resynced > 0 {
			a.log.Warn("skipped unparsable bytes before level-1 element", "bytes", resynced, "pos", pos, "id", h.ID)
			resynced = 0
		}

		total := h.Total()
		if total < 0 {
			total = end - pos
		}
		a.entries = append(a.entries, Entry{ID: h.ID, Pos: pos, Size: total})

		metaSeekFound = metaSeekFound || h.ID == ebml.IDSeekHead

		if pos+total >= end {
			break
		}
		if err := r.Skip(total - h.HeadLen()); err != nil {
			return fmt.Errorf("skipping %s at %d: %w", h.ID, pos, err)
		}

		if fileSize > 0 && !a.cfg.Progress.Step(int(r.Pos()*100/fileSize)) {
			a.segment = segmentInfo{}
			return ErrAborted
		}

		// The partial scan only stops right after a Cluster, so the unscanned cluster run is
		// owned by a Cluster entry and never by something that gets rewritten.
		if mode == ParseFast && metaSeekFound && h.ID == ebml.IDCluster {
			break
		}
	}

	if mode == ParseFast {
		a.readAllMetaSeeks(fileSize)
		a.fixElementSizes(fileSize)
	}

	a.log.Debug("scan finished", "mode", mode, "entries", len(a.entries), "segment_pos", a.segment.pos)
	return nil
}

// plausibleLevel1 accepts known level-1 ids, and other class-D ids whose extent stays inside
// the Segment. Everything else is treated as garbage to resynchronise over.
func plausibleLevel1(h ebml.Header, end int64) bool {
	if !h.ID.Valid() {
		return false
	}
	if h.Size == ebml.UnknownSize {
		return h.ID == ebml.IDCluster
	}
	if h.ID.IsLevel1() {
		return true
	}
	return h.IDLen == 4 && h.Pos+h.Total() <= end
}

// readAllMetaSeeks follows every seek head found by the partial scan and adds the elements
// they point at, then restores on-disk order.
func (a *Analyzer) readAllMetaSeeks(fileSize int64) {
	positions := make(map[int64]bool, len(a.entries))
	for _, entry := range a.entries {
		positions[entry.Pos] = true
	}

	visited := make(map[int64]bool)
	count := len(a.entries)
	for i := 0; i < count; i++ {
		if a.entries[i].ID == ebml.IDSeekHead {
			a.readMetaSeek(a.entries[i].Pos, fileSize, positions, visited)
		}
	}

	sort.SliceStable(a.entries, func(i, j int) bool {
		return a.entries[i].Pos < a.entries[j].Pos
	})
}

func (a *Analyzer) readMetaSeek(pos, fileSize int64, positions, visited map[int64]bool) {
	if visited[pos] {
		return
	}
	visited[pos] = true

	head, err := a.ReadElement(Entry{ID: ebml.IDSeekHead, Pos: pos})
	if err != nil {
		a.log.Warn("ignoring unreadable seek head", "pos", pos, "error", err)
		return
	}

	for _, seek := range head.ChildrenWithID(ebml.IDSeek) {
		idElement := seek.Child(ebml.IDSeekID)
		posElement := seek.Child(ebml.IDSeekPosition)
		if idElement == nil || posElement == nil {
			continue
		}
		id, ok := ebml.IDFromBytes(idElement.Data)
		if !ok {
			continue
		}
		target := a.segment.dataStart() + int64(posElement.Uint())
		if positions[target] {
			continue
		}
		if target >= fileSize {
			a.log.Warn("seek entry points past the end of the file", "id", id, "pos", target)
			continue
		}

		a.entries = append(a.entries, Entry{ID: id, Pos: target, Size: sizeUnknown})
		positions[target] = true

		if id == ebml.IDSeekHead {
			a.readMetaSeek(target, fileSize, positions, visited)
		}
	}
}

// fixElementSizes gives entries found through seek heads the distance to the next entry as
// their size. A Cluster followed by unscanned data is stretched the same way.
func (a *Analyzer) fixElementSizes(fileSize int64) {
	for i := range a.entries {
		next := fileSize
		if i+1 < len(a.entries) {
			next = a.entries[i+1].Pos
		}
		switch {
		case a.entries[i].Size == sizeUnknown:
			a.entries[i].Size = next - a.entries[i].Pos
		case a.entries[i].ID == ebml.IDCluster && a.entries[i].End() < next:
			a.entries[i].Size = next - a.entries[i].Pos
		}
	}
}
