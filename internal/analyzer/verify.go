package analyzer

import (
	"fmt"
	"io"
	"strings"

	"github.com/autobrr/go-mkvedit/internal/ebml"
)

// ValidateEntries checks that the entries are sorted and do not overlap. With strictGaps every
// entry must also end exactly where the next one starts.
func ValidateEntries(entries []Entry, strictGaps bool) error {
	for i := 0; i+1 < len(entries); i++ {
		current, next := entries[i], entries[i+1]
		if current.Size < 0 {
			return fmt.Errorf("entry %d (%s) has no size", i, current)
		}
		switch end := current.End(); {
		case end > next.Pos:
			return fmt.Errorf("entry %d (%s) overlaps entry %d (%s)", i, current, i+1, next)
		case strictGaps && end < next.Pos:
			return fmt.Errorf("gap of %d bytes between entry %d (%s) and entry %d (%s)", next.Pos-end, i, current, i+1, next)
		}
	}
	return nil
}

// Derive scans f read-only and returns the directory it yields.
func Derive(f File, mode ParseMode) ([]Entry, error) {
	a := New(f, Config{ParseMode: mode, ReadOnly: true})
	if err := a.Scan(); err != nil {
		return nil, err
	}
	return a.Entries(), nil
}

// DiffLine pairs the n-th entry of two directories. A missing side is the empty string.
type DiffLine struct {
	Memory string
	File   string
	Same   bool
}

// Diff compares two directories entry by entry and reports whether they are identical.
func Diff(memory, file []Entry) ([]DiffLine, bool) {
	n := max(len(memory), len(file))
	lines := make([]DiffLine, 0, n)
	same := true
	for i := 0; i < n; i++ {
		var line DiffLine
		if i < len(memory) {
			line.Memory = memory[i].String()
		}
		if i < len(file) {
			line.File = file[i].String()
		}
		line.Same = i < len(memory) && i < len(file) && memory[i] == file[i]
		same = same && line.Same
		lines = append(lines, line)
	}
	return lines, same
}

// FormatDiff writes the two directories side by side. Differing rows are marked with '*'.
func FormatDiff(w io.Writer, lines []DiffLine) {
	width := len("in memory")
	for _, line := range lines {
		width = max(width, len(line.Memory))
	}
	fmt.Fprintf(w, "  %-*s | %s\n", width, "in memory", "in file")
	fmt.Fprintf(w, "  %s-+-%s\n", strings.Repeat("-", width), strings.Repeat("-", width))
	for _, line := range lines {
		marker := " "
		if !line.Same {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %-*s | %s\n", marker, width, line.Memory, line.File)
	}
}

// VerifyError reports a directory that no longer matches the file.
type VerifyError struct {
	Lines []DiffLine
}

func (e *VerifyError) Error() string {
	var b strings.Builder
	b.WriteString("directory does not match the file:\n")
	FormatDiff(&b, e.Lines)
	return b.String()
}

// VerifyAgainstFile scans the file again in the analyzer's parse mode and compares the result
// to the in-memory directory.
func (a *Analyzer) VerifyAgainstFile() error {
	if !a.scanned {
		return ErrNotScanned
	}
	derived, err := Derive(a.file, a.cfg.ParseMode)
	if err != nil {
		return fmt.Errorf("rescanning: %w", err)
	}
	lines, same := Diff(a.entries, derived)
	if same {
		return nil
	}
	verr := &VerifyError{Lines: lines}
	a.log.Debug("directory mismatch", "diff", verr.Error())
	return verr
}

// Dump writes the directory to w.
func (a *Analyzer) Dump(w io.Writer) {
	DumpEntries(w, a.entries)
}

// SeekProblem is a Seek entry that does not point at an element of the directory.
type SeekProblem struct {
	SeekHead int64
	ID       ebml.ID
	Pos      int64
	Found    ebml.ID
}

func (p SeekProblem) String() string {
	if p.Found == 0 {
		return fmt.Sprintf("seek head at %d: %s at %d points at no element", p.SeekHead, p.ID.Name(), p.Pos)
	}
	return fmt.Sprintf("seek head at %d: %s at %d points at %s", p.SeekHead, p.ID.Name(), p.Pos, p.Found.Name())
}

// CheckSeekEntries resolves every Seek entry of every seek head against the directory.
func (a *Analyzer) CheckSeekEntries() ([]SeekProblem, error) {
	if !a.scanned {
		return nil, ErrNotScanned
	}
	byPos := make(map[int64]ebml.ID, len(a.entries))
	for _, entry := range a.entries {
		byPos[entry.Pos] = entry.ID
	}

	var problems []SeekProblem
	for _, entry := range a.entries {
		if entry.ID != ebml.IDSeekHead {
			continue
		}
		head, err := a.ReadElement(entry)
		if err != nil {
			return problems, err
		}
		for _, seek := range head.ChildrenWithID(ebml.IDSeek) {
			id, rel, ok := seekTarget(seek)
			if !ok {
				continue
			}
			pos := a.segment.dataStart() + int64(rel)
			if found := byPos[pos]; found != id {
				problems = append(problems, SeekProblem{SeekHead: entry.Pos, ID: id, Pos: pos, Found: found})
			}
		}
	}
	return problems, nil
}
