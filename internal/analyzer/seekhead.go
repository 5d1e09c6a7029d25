package analyzer

import (
	"fmt"

	"github.com/autobrr/go-mkvedit/internal/ebml"
)

// seekTarget returns the id and relative position a Seek entry points at.
func seekTarget(seek *ebml.Element) (ebml.ID, uint64, bool) {
	idElement := seek.Child(ebml.IDSeekID)
	posElement := seek.Child(ebml.IDSeekPosition)
	if idElement == nil || posElement == nil {
		return 0, 0, false
	}
	id, ok := ebml.IDFromBytes(idElement.Data)
	if !ok {
		return 0, 0, false
	}
	return id, posElement.Uint(), true
}

func (a *Analyzer) relative(pos int64) uint64 {
	return uint64(pos - a.segment.dataStart())
}

func (a *Analyzer) readSeekHead(idx int) (*ebml.Element, int64, error) {
	entry := a.entries[idx]
	head, h, err := a.readElementAt(entry)
	if err != nil {
		return nil, 0, failure(ErrInternal, entry.ID, entry.Pos, err)
	}
	return head, h.Total(), nil
}

// rewriteSeekHead writes head over entry idx, which must not grow past onDisk bytes, and
// covers whatever it no longer uses.
func (a *Analyzer) rewriteSeekHead(idx int, head *ebml.Element, onDisk int64, kind string) error {
	entry := a.entries[idx]
	size := int64(head.Size(true))
	if size > onDisk {
		return failure(ErrMetaSeek, entry.ID, entry.Pos, fmt.Errorf("rewritten seek head needs %d bytes, %d available", size, onDisk))
	}
	if _, err := a.renderAt(head, entry.Pos, true); err != nil {
		return failure(ErrMetaSeek, entry.ID, entry.Pos, err)
	}
	a.entries[idx].Size = size
	a.metrics.seekHeadWrite(kind)
	if _, err := a.handleVoidElements(idx); err != nil {
		return err
	}
	return nil
}

// removeFromMetaSeeks drops every Seek entry that points at an element with the given id.
// Seek heads only ever shrink here.
func (a *Analyzer) removeFromMetaSeeks(id ebml.ID) error {
	for idx := 0; idx < len(a.entries); idx++ {
		if a.entries[idx].ID != ebml.IDSeekHead {
			continue
		}
		head, onDisk, err := a.readSeekHead(idx)
		if err != nil {
			return err
		}
		removed := head.RemoveChildren(func(seek *ebml.Element) bool {
			target, _, ok := seekTarget(seek)
			return seek.ID == ebml.IDSeek && ok && target == id
		})
		if removed == 0 {
			continue
		}
		a.log.Trace("seek entries removed", "id", id, "seek_head", a.entries[idx].Pos, "count", removed)
		if err := a.rewriteSeekHead(idx, head, onDisk, "shrunk"); err != nil {
			return err
		}
	}
	return nil
}

// relocateReferences points Seek entries for the element that moved from oldPos to newPos at
// its new position.
func (a *Analyzer) relocateReferences(id ebml.ID, oldPos, newPos int64) error {
	oldRel := a.relative(oldPos)
	newRel := a.relative(newPos)

	for idx := 0; idx < len(a.entries); idx++ {
		if a.entries[idx].ID != ebml.IDSeekHead {
			continue
		}
		head, onDisk, err := a.readSeekHead(idx)
		if err != nil {
			return err
		}
		modified := false
		for _, seek := range head.ChildrenWithID(ebml.IDSeek) {
			target, rel, ok := seekTarget(seek)
			if !ok || target != id || rel != oldRel {
				continue
			}
			seek.Set(ebml.NewUint(ebml.IDSeekPosition, newRel))
			modified = true
		}
		if !modified {
			continue
		}
		a.log.Debug("seek entry relocated", "id", id, "from", oldPos, "to", newPos)
		if err := a.rewriteSeekHead(idx, head, onDisk, "relocated"); err != nil {
			return err
		}
	}
	return nil
}

// addToMetaSeek indexes the element with the given id at pos. The first seek head with room
// (its own bytes plus a directly following Void, or any room at all at the end of the file)
// takes the entry. Otherwise the first seek head is moved to the end of the file and replaced
// by a small one pointing there, and as a last resort a new seek head is put into a Void
// before the first Cluster.
func (a *Analyzer) addToMetaSeek(id ebml.ID, pos int64) error {
	seek := ebml.NewSeek(id, a.relative(pos))

	first := -1
	for idx := 0; idx < len(a.entries); idx++ {
		if a.entries[idx].ID != ebml.IDSeekHead {
			continue
		}
		if first < 0 {
			first = idx
		}

		head, onDisk, err := a.readSeekHead(idx)
		if err != nil {
			return err
		}
		head.Append(seek.Clone())
		size := int64(head.Size(true))

		if a.isLast(idx) {
			if _, err := a.renderAt(head, a.entries[idx].Pos, true); err != nil {
				return failure(ErrMetaSeek, ebml.IDSeekHead, a.entries[idx].Pos, err)
			}
			a.entries[idx].Size = size
			a.metrics.seekHeadWrite("in_place")
			if size < onDisk {
				if err := a.truncate(a.entries[idx].End()); err != nil {
					return failure(ErrMetaSeek, ebml.IDSeekHead, a.entries[idx].Pos, err)
				}
			}
			return a.adjustSegmentSize(ErrSegmentSizeForMetaSeek)
		}

		if size > a.roomAt(idx) {
			continue
		}
		if err := a.rewriteSeekHead(idx, head, a.roomAt(idx), "in_place"); err != nil {
			return err
		}
		return nil
	}

	if first >= 0 {
		return a.forwardSeekHead(first, seek)
	}
	return a.createSeekHead(id, pos, seek)
}

// roomAt is the space entry idx may grow into: its own bytes and a directly following Void.
func (a *Analyzer) roomAt(idx int) int64 {
	room := a.entries[idx].Size
	if idx+1 < len(a.entries) && a.entries[idx+1].ID == ebml.IDVoid {
		room += a.entries[idx+1].Size
	}
	return room
}

// forwardSeekHead copies the seek head at idx, extended by seek, to the end of the file and
// overwrites the original with a seek head holding a single entry pointing at the copy.
// Nothing is written when that entry would not fit.
func (a *Analyzer) forwardSeekHead(idx int, seek *ebml.Element) error {
	entry := a.entries[idx]
	head, _, err := a.readSeekHead(idx)
	if err != nil {
		return err
	}
	head.Append(seek)

	clonePos, err := a.fileSize()
	if err != nil {
		return failure(ErrMetaSeek, entry.ID, entry.Pos, err)
	}
	forward := ebml.NewMaster(ebml.IDSeekHead, ebml.NewSeek(ebml.IDSeekHead, a.relative(clonePos)))
	if size, room := int64(forward.Size(true)), a.roomAt(idx); size > room {
		return failure(ErrMetaSeek, entry.ID, entry.Pos, fmt.Errorf("forwarding seek head needs %d bytes, %d available", size, room))
	}

	n, err := a.renderAt(head, clonePos, true)
	if err != nil {
		return failure(ErrMetaSeek, entry.ID, clonePos, err)
	}
	a.entries = append(a.entries, Entry{ID: ebml.IDSeekHead, Pos: clonePos, Size: n})
	a.metrics.appended(n)
	a.metrics.seekHeadWrite("appended")
	a.log.Debug("seek head moved to the end of the file", "from", entry.Pos, "to", clonePos)
	if err := a.adjustSegmentSize(ErrSegmentSizeForMetaSeek); err != nil {
		return err
	}

	return a.rewriteSeekHead(idx, forward, a.roomAt(idx), "forwarded")
}

// createSeekHead puts a new seek head into the first Void before the first Cluster that can
// hold it.
func (a *Analyzer) createSeekHead(id ebml.ID, pos int64, seek *ebml.Element) error {
	head := ebml.NewMaster(ebml.IDSeekHead, seek)
	size := int64(head.Size(true))

	for idx := 0; idx < len(a.entries); idx++ {
		entry := a.entries[idx]
		if entry.ID == ebml.IDCluster {
			break
		}
		if entry.ID != ebml.IDVoid || entry.Size < size {
			continue
		}
		if _, err := a.renderAt(head, entry.Pos, true); err != nil {
			return failure(ErrMetaSeek, ebml.IDSeekHead, entry.Pos, err)
		}
		a.entries[idx] = Entry{ID: ebml.IDSeekHead, Pos: entry.Pos, Size: size}
		a.metrics.seekHeadWrite("created")
		a.log.Debug("seek head created", "pos", entry.Pos)
		if _, err := a.handleVoidElements(idx); err != nil {
			return err
		}
		return nil
	}

	return failure(ErrNotIndexable, id, pos, nil)
}
