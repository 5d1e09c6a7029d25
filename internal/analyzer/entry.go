package analyzer

import (
	"fmt"
	"io"

	"github.com/autobrr/go-mkvedit/internal/ebml"
)

const (
	// sizeUnknown marks an entry discovered through a seek head whose extent is not known yet.
	sizeUnknown int64 = -1
	// sizePendingRemoval marks an entry that is about to be overwritten by a Void.
	sizePendingRemoval int64 = 0
)

// Entry describes one direct child of the Segment: its id, absolute offset and full length.
type Entry struct {
	ID   ebml.ID
	Pos  int64
	Size int64
}

func (e Entry) End() int64 {
	return e.Pos + e.Size
}

func (e Entry) String() string {
	return fmt.Sprintf("%s size %d at %d", e.ID.Name(), e.Size, e.Pos)
}

// DumpEntries writes one line per entry, prefixed with its index.
func DumpEntries(w io.Writer, entries []Entry) {
	for i, entry := range entries {
		fmt.Fprintf(w, "%d: %s\n", i, entry)
	}
}

func (a *Analyzer) insertEntry(idx int, entry Entry) {
	a.entries = append(a.entries, Entry{})
	copy(a.entries[idx+1:], a.entries[idx:])
	a.entries[idx] = entry
}

func (a *Analyzer) removeEntries(from, to int) {
	a.entries = append(a.entries[:from], a.entries[to:]...)
}

func (a *Analyzer) isLast(idx int) bool {
	return idx == len(a.entries)-1
}
