package analyzer

import (
	"fmt"
	"strings"

	"github.com/autobrr/go-mkvedit/internal/ebml"
)

const (
	opUpdate = "update_element"
	opRemove = "remove_elements"
)

type step struct {
	name string
	run  func() error
}

// UpdateElement replaces every level-1 element with e's id by e. Old instances become Voids,
// e is written into the first Void that fits (or at the end of the file, depending on the
// placement policy), and the seek heads are updated to point at it.
//
// Errors before the first write are returned as is. Once writing has started, failures are
// reported as *MutationError and the file may be partially modified.
func (a *Analyzer) UpdateElement(e *ebml.Element, writeDefaults bool) error {
	if err := a.checkMutation(e.ID); err != nil {
		return err
	}
	placement := a.cfg.Placement(e.ID)
	if err := a.checkIndexable(e, writeDefaults, placement); err != nil {
		return err
	}

	var pos int64
	err := a.runSteps(opUpdate, []step{
		{"overwrite_all_instances", func() error { return a.overwriteAllInstances(e.ID) }},
		{"merge_void_elements", a.mergeVoidElements},
		{"write_element", func() (err error) {
			pos, err = a.writeElement(e, writeDefaults, placement)
			return err
		}},
		{"remove_from_meta_seeks", func() error { return a.removeFromMetaSeeks(e.ID) }},
		{"merge_void_elements", a.mergeVoidElements},
		{"add_to_meta_seek", func() error {
			// earlier steps may have moved the header of the new element by one byte
			if idx := a.Find(e.ID); idx >= 0 {
				pos = a.entries[idx].Pos
			}
			return a.addToMetaSeek(e.ID, pos)
		}},
		{"merge_void_elements", a.mergeVoidElements},
	})
	a.metrics.mutation(opUpdate, err)
	return err
}

// RemoveElements overwrites every level-1 element with the given id by Voids and removes the
// seek entries pointing at them. Removing an id that is not present is a no-op.
func (a *Analyzer) RemoveElements(id ebml.ID) error {
	if err := a.checkMutation(id); err != nil {
		return err
	}

	err := a.runSteps(opRemove, []step{
		{"overwrite_all_instances", func() error { return a.overwriteAllInstances(id) }},
		{"merge_void_elements", a.mergeVoidElements},
		{"remove_from_meta_seeks", func() error { return a.removeFromMetaSeeks(id) }},
		{"merge_void_elements", a.mergeVoidElements},
	})
	a.metrics.mutation(opRemove, err)
	return err
}

func (a *Analyzer) checkMutation(id ebml.ID) error {
	if err := a.writable(); err != nil {
		return err
	}
	if id == ebml.IDVoid {
		return fmt.Errorf("%s elements cannot be written or removed directly", id.Name())
	}
	if !id.Valid() {
		return fmt.Errorf("invalid element id %s", id)
	}
	return nil
}

// checkIndexable fails before anything is written when e could never be referenced: there is
// no seek head, and once old instances of e are freed and e itself is placed, no Void before
// the first Cluster is left that could take a new one.
func (a *Analyzer) checkIndexable(e *ebml.Element, writeDefaults bool, placement PlacementStrategy) error {
	if a.Find(ebml.IDSeekHead) >= 0 {
		return nil
	}
	fileSize, err := a.fileSize()
	if err != nil {
		return err
	}
	worst := ebml.NewMaster(ebml.IDSeekHead, ebml.NewSeek(e.ID, a.relative(fileSize)+e.Size(true)))
	need := int64(worst.Size(true))

	// free runs as merge_void_elements leaves them
	type slot struct {
		size      int64
		indexable bool
	}
	var slots []slot
	inRun, clusterSeen := false, false
	for _, entry := range a.entries {
		if entry.ID == ebml.IDCluster {
			clusterSeen = true
		}
		if entry.ID != ebml.IDVoid && entry.ID != e.ID {
			inRun = false
			continue
		}
		if inRun {
			slots[len(slots)-1].size += entry.Size
			continue
		}
		slots = append(slots, slot{size: entry.Size, indexable: !clusterSeen})
		inRun = true
	}
	if inRun {
		// a trailing run is truncated
		slots = slots[:len(slots)-1]
	}

	if placement == PlaceAnywhere {
		size := int64(e.Size(writeDefaults))
		for i := range slots {
			if slots[i].size >= size {
				slots[i].size -= size
				break
			}
		}
	}

	for _, s := range slots {
		if s.indexable && s.size >= need {
			return nil
		}
	}
	return fmt.Errorf("%s: %w", e.ID.Name(), ErrNotIndexable)
}

// runSteps runs the steps in order with a checkpoint before the first and after every step.
// Checkpoint n follows step n.
func (a *Analyzer) runSteps(op string, steps []step) error {
	if err := a.checkpoint(fmt.Sprintf("%s_0", op)); err != nil {
		return asMutationError(op, fmt.Sprintf("%s_0", op), err)
	}
	for i, s := range steps {
		hook := fmt.Sprintf("%s_%d", op, i+1)
		if err := s.run(); err != nil {
			a.log.Error("mutation step failed", "op", op, "step", s.name, "error", err)
			return asMutationError(op, s.name, err)
		}
		if err := a.checkpoint(hook); err != nil {
			return asMutationError(op, hook, err)
		}
	}
	return nil
}

// checkpoint logs the directory and checks it for overlaps (and gaps with StrictGaps). With
// VerifyCheckpoints the directory is also compared to a fresh scan of the file.
func (a *Analyzer) checkpoint(hook string) error {
	if a.log.IsTrace() {
		var b strings.Builder
		DumpEntries(&b, a.entries)
		a.log.Trace("directory", "hook", hook, "entries", b.String())
	}

	if err := ValidateEntries(a.entries, a.cfg.StrictGaps); err != nil {
		return failure(ErrInternal, 0, -1, fmt.Errorf("%s: %w", hook, err))
	}
	if a.cfg.VerifyCheckpoints {
		if err := a.VerifyAgainstFile(); err != nil {
			return failure(ErrInternal, 0, -1, fmt.Errorf("%s: %w", hook, err))
		}
	}
	return nil
}

// writeElement renders e into the first Void large enough to hold it, or appends it at the
// end of the file, and returns its position.
func (a *Analyzer) writeElement(e *ebml.Element, writeDefaults bool, placement PlacementStrategy) (int64, error) {
	size := int64(e.Size(writeDefaults))

	if placement == PlaceAnywhere {
		for idx := 0; idx < len(a.entries); idx++ {
			entry := a.entries[idx]
			if entry.ID != ebml.IDVoid || entry.Size < size {
				continue
			}
			n, err := a.renderAt(e, entry.Pos, writeDefaults)
			if err != nil {
				return 0, failure(ErrInternal, e.ID, entry.Pos, err)
			}
			a.entries[idx] = Entry{ID: e.ID, Pos: entry.Pos, Size: n}
			a.log.Debug("element written into void", "id", e.ID, "pos", entry.Pos, "size", n, "void_size", entry.Size)
			if _, err := a.handleVoidElements(idx); err != nil {
				return 0, err
			}
			return entry.Pos, nil
		}
	}

	pos, err := a.fileSize()
	if err != nil {
		return 0, failure(ErrInternal, e.ID, -1, err)
	}
	n, err := a.renderAt(e, pos, writeDefaults)
	if err != nil {
		return 0, failure(ErrInternal, e.ID, pos, err)
	}
	a.entries = append(a.entries, Entry{ID: e.ID, Pos: pos, Size: n})
	a.metrics.appended(n)
	a.log.Debug("element appended", "id", e.ID, "pos", pos, "size", n)

	if err := a.adjustSegmentSize(ErrSegmentSizeForElement); err != nil {
		return 0, err
	}
	return pos, nil
}
