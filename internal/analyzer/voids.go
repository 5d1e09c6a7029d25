package analyzer

import (
	"github.com/autobrr/go-mkvedit/internal/ebml"
)

// moveChunkSize bounds the buffer used when element content is moved by one byte.
const moveChunkSize = 1 << 20

// handleVoidElements makes the space after entry idx consistent again after that entry shrank,
// grew into a Void or was marked for removal. Voids directly following the entry are absorbed
// and the remaining gap is covered. It reports whether a new Void element was written.
func (a *Analyzer) handleVoidElements(idx int) (bool, error) {
	if a.isLast(idx) {
		return false, a.truncateAfter(idx)
	}

	end := idx + 1
	for end < len(a.entries) && a.entries[end].ID == ebml.IDVoid {
		end++
	}
	a.removeEntries(idx+1, end)
	if a.isLast(idx) {
		return false, a.truncateAfter(idx)
	}

	current := a.entries[idx]
	next := a.entries[idx+1]
	voidPos := current.End()
	gap := next.Pos - voidPos

	created := false
	switch {
	case gap < 0:
		return false, internalf(current.ID, current.Pos, "%s overlaps %s", current, next)

	case gap == 0:

	case gap == 1:
		return false, a.coverOneByteGap(idx)

	default:
		header, err := ebml.VoidHeader(uint64(gap))
		if err != nil {
			return false, failure(ErrInternal, ebml.IDVoid, voidPos, err)
		}
		if err := a.writeAt(header, voidPos); err != nil {
			return false, failure(ErrInternal, ebml.IDVoid, voidPos, err)
		}
		a.insertEntry(idx+1, Entry{ID: ebml.IDVoid, Pos: voidPos, Size: gap})
		a.metrics.voidWritten()
		a.log.Trace("void written", "pos", voidPos, "size", gap)
		created = true
	}

	a.dropPendingRemoval(idx)
	return created, nil
}

// truncateAfter cuts the file right after the last entry and fixes the Segment size.
func (a *Analyzer) truncateAfter(idx int) error {
	entry := a.entries[idx]
	if err := a.truncate(entry.End()); err != nil {
		return failure(ErrInternal, entry.ID, entry.Pos, err)
	}
	a.log.Trace("file truncated", "size", entry.End())
	if err := a.adjustSegmentSize(ErrSegmentSizeForElement); err != nil {
		return err
	}
	a.dropPendingRemoval(idx)
	return nil
}

func (a *Analyzer) dropPendingRemoval(idx int) {
	if idx < len(a.entries) && a.entries[idx].Size == sizePendingRemoval {
		a.removeEntries(idx, idx+1)
	}
}

// coverOneByteGap closes a single free byte after entry idx. No Void fits, so the header of
// the following element is moved one byte back with a size field one byte longer. When that
// field is already at its maximum length the entry itself is widened instead, and as a last
// resort the byte is leaked.
func (a *Analyzer) coverOneByteGap(idx int) error {
	current := a.entries[idx]
	next := a.entries[idx+1]

	h, err := ebml.ReadHeaderAt(a.file, next.Pos)
	if err != nil {
		return failure(ErrInternal, next.ID, next.Pos, err)
	}
	if h.ID != next.ID {
		return internalf(next.ID, next.Pos, "expected %s, found %s", next.ID, h.ID)
	}

	if h.SizeLen < ebml.MaxSizeLength {
		var header []byte
		if h.Size == ebml.UnknownSize {
			header = append(h.ID.Bytes(), ebml.EncodeUnknownSize(h.SizeLen+1)...)
		} else if header, err = ebml.EncodeHeader(h.ID, h.Size, h.SizeLen+1); err != nil {
			return failure(ErrInternal, next.ID, next.Pos, err)
		}
		if err := a.writeAt(header, next.Pos-1); err != nil {
			return failure(ErrInternal, next.ID, next.Pos, err)
		}

		a.entries[idx+1].Pos--
		a.entries[idx+1].Size++
		a.metrics.headerShift()
		a.log.Debug("header moved to cover one byte", "id", next.ID, "from", next.Pos, "to", next.Pos-1)

		a.dropPendingRemoval(idx)
		return a.relocateReferences(next.ID, next.Pos, next.Pos-1)
	}

	if current.Size != sizePendingRemoval {
		widened, err := a.widenEntry(idx)
		if err != nil {
			return err
		}
		if widened {
			return nil
		}
	}

	err = a.leakByte(current.End())
	a.dropPendingRemoval(idx)
	return err
}

// widenEntry moves the content of entry idx one byte towards the end and lengthens its size
// field so the entry ends exactly where the next one starts.
func (a *Analyzer) widenEntry(idx int) (bool, error) {
	current := a.entries[idx]

	h, err := ebml.ReadHeaderAt(a.file, current.Pos)
	if err != nil {
		return false, failure(ErrInternal, current.ID, current.Pos, err)
	}
	if h.SizeLen >= ebml.MaxSizeLength || h.Size == ebml.UnknownSize {
		return false, nil
	}
	if h.Total() != current.Size {
		return false, internalf(current.ID, current.Pos, "directory size %d differs from coded size %d", current.Size, h.Total())
	}

	coded, err := ebml.EncodeSize(h.Size, h.SizeLen+1)
	if err != nil {
		return false, failure(ErrInternal, current.ID, current.Pos, err)
	}
	if err := a.moveRight(current.Pos+h.HeadLen(), int64(h.Size)); err != nil {
		return false, failure(ErrInternal, current.ID, current.Pos, err)
	}
	if err := a.writeAt(coded, current.Pos+int64(h.IDLen)); err != nil {
		return false, failure(ErrInternal, current.ID, current.Pos, err)
	}

	a.entries[idx].Size++
	a.metrics.headerShift()
	a.log.Debug("size field widened to cover one byte", "id", current.ID, "pos", current.Pos)
	return true, nil
}

// moveRight copies n bytes starting at pos one byte further, last chunk first.
func (a *Analyzer) moveRight(pos, n int64) error {
	buf := make([]byte, min(n, moveChunkSize))
	for remaining := n; remaining > 0; {
		size := min(remaining, int64(len(buf)))
		from := pos + remaining - size
		if _, err := a.file.ReadAt(buf[:size], from); err != nil {
			return err
		}
		if err := a.writeAt(buf[:size], from+1); err != nil {
			return err
		}
		remaining -= size
	}
	return nil
}

// leakByte zeroes an uncoverable byte so later scans resynchronise over it.
func (a *Analyzer) leakByte(pos int64) error {
	if a.cfg.OneByteGap == GapError {
		return failure(ErrOneByteGap, 0, pos, nil)
	}
	if err := a.writeAt([]byte{0}, pos); err != nil {
		return failure(ErrInternal, 0, pos, err)
	}
	a.metrics.leakedByte()
	a.log.Warn("leaving one byte uncovered", "pos", pos)
	return nil
}

// mergeVoidElements joins every run of adjacent Voids into one and drops Voids at the end of
// the file.
func (a *Analyzer) mergeVoidElements() error {
	for start := 0; start < len(a.entries); start++ {
		if a.entries[start].ID != ebml.IDVoid {
			continue
		}
		end := start + 1
		for end < len(a.entries) && a.entries[end].ID == ebml.IDVoid {
			end++
		}
		if end == start+1 {
			continue
		}

		pos := a.entries[start].Pos
		total := a.entries[end-1].End() - pos
		header, err := ebml.VoidHeader(uint64(total))
		if err != nil {
			return failure(ErrInternal, ebml.IDVoid, pos, err)
		}
		if err := a.writeAt(header, pos); err != nil {
			return failure(ErrInternal, ebml.IDVoid, pos, err)
		}
		a.entries[start].Size = total
		a.removeEntries(start+1, end)
		a.metrics.voidWritten()
		a.log.Trace("voids merged", "pos", pos, "size", total, "count", end-start)
	}

	start := len(a.entries)
	for start > 0 && a.entries[start-1].ID == ebml.IDVoid {
		start--
	}
	if start == len(a.entries) {
		return nil
	}

	pos := a.entries[start].Pos
	if err := a.truncate(pos); err != nil {
		return failure(ErrInternal, ebml.IDVoid, pos, err)
	}
	a.removeEntries(start, len(a.entries))
	a.log.Trace("trailing voids truncated", "size", pos)
	return a.adjustSegmentSize(ErrSegmentSizeForElement)
}

// overwriteAllInstances replaces every entry with the given id by free space.
func (a *Analyzer) overwriteAllInstances(id ebml.ID) error {
	for idx := 0; idx < len(a.entries); {
		if a.entries[idx].ID != id {
			idx++
			continue
		}
		entry := a.entries[idx]
		a.entries[idx].Size = sizePendingRemoval
		if _, err := a.handleVoidElements(idx); err != nil {
			return err
		}
		if idx < len(a.entries) && a.entries[idx] == (Entry{ID: id, Pos: entry.Pos, Size: sizePendingRemoval}) {
			return internalf(id, entry.Pos, "%s was not removed", entry)
		}
		a.log.Trace("element overwritten", "id", id, "pos", entry.Pos)
	}
	return nil
}
