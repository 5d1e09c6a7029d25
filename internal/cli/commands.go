package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/autobrr/go-mkvedit/internal/analyzer"
	"github.com/autobrr/go-mkvedit/internal/ebml"
	"github.com/autobrr/go-mkvedit/internal/summary"
)

var (
	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00"))
)

var errProbeFailed = errors.New("not every file is a Matroska file")

// Probe reports for every path whether it starts with the EBML magic.
func Probe(paths []string, stdout io.Writer) error {
	failed := false
	for _, path := range paths {
		if analyzer.Probe(path) {
			fmt.Fprintf(stdout, "%s: %s\n", path, successStyle.Render("Matroska"))
			continue
		}
		failed = true
		fmt.Fprintf(stdout, "%s: %s\n", path, errorStyle.Render("not Matroska"))
	}
	if failed {
		return errProbeFailed
	}
	return nil
}

type entryOut struct {
	Name string `json:"name"`
	ID   string `json:"id"`
	Pos  int64  `json:"pos"`
	Size int64  `json:"size"`
}

// Scan prints the level-1 directory of every file.
func Scan(ctx context.Context, opts Options, paths []string, stdout, stderr io.Writer) error {
	if err := checkOutput(opts.Output); err != nil {
		return err
	}
	s := newSession(opts, stderr)
	for i, path := range paths {
		a, cleanup, err := s.open(ctx, path, true)
		if err != nil {
			return err
		}
		entries := a.Entries()
		cleanup()

		if strings.EqualFold(opts.Output, "json") {
			out := make([]entryOut, 0, len(entries))
			for _, entry := range entries {
				out = append(out, entryOut{Name: entry.ID.Name(), ID: fmt.Sprintf("0x%X", uint32(entry.ID)), Pos: entry.Pos, Size: entry.Size})
			}
			data, err := json.MarshalIndent(map[string]any{"file": path, "entries": out}, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(stdout, string(data))
			continue
		}

		if i > 0 {
			fmt.Fprintln(stdout)
		}
		fmt.Fprintln(stdout, sectionStyle.Render(path))
		fmt.Fprintln(stdout, entriesTable(entries))
	}
	return s.finish(stdout)
}

func entriesTable(entries []analyzer.Entry) string {
	columns := []table.Column{
		{Title: "#", Width: 4},
		{Title: "Element", Width: 16},
		{Title: "Position", Width: 14},
		{Title: "Size", Width: 14},
	}
	rows := make([]table.Row, 0, len(entries))
	for i, entry := range entries {
		rows = append(rows, table.Row{
			strconv.Itoa(i),
			entry.ID.Name(),
			strconv.FormatInt(entry.Pos, 10),
			strconv.FormatInt(entry.Size, 10),
		})
	}

	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#00FFFF")).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Cell

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(len(rows)+1),
		table.WithStyles(styles),
	)
	return t.View()
}

// Verify scans every file, checks the directory for gaps and overlaps and checks that every
// seek entry points at an element with the right id.
func Verify(ctx context.Context, opts Options, paths []string, stdout, stderr io.Writer) error {
	s := newSession(opts, stderr)
	failed := 0
	for _, path := range paths {
		a, cleanup, err := s.open(ctx, path, true)
		if err != nil {
			return err
		}
		problems := verifyFile(a, opts.ParseMode == string(analyzer.ParseFull))
		cleanup()

		if len(problems) == 0 {
			fmt.Fprintf(stdout, "%s: %s\n", path, successStyle.Render("ok"))
			continue
		}
		failed++
		fmt.Fprintf(stdout, "%s: %s\n", path, errorStyle.Render(fmt.Sprintf("%d problem(s)", len(problems))))
		for _, problem := range problems {
			fmt.Fprintf(stdout, "  %s\n", problem)
		}
	}
	if err := s.finish(stdout); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed verification", failed, len(paths))
	}
	return nil
}

func verifyFile(a *analyzer.Analyzer, strictGaps bool) []string {
	var problems []string
	if err := analyzer.ValidateEntries(a.Entries(), strictGaps); err != nil {
		problems = append(problems, err.Error())
	}
	seekProblems, err := a.CheckSeekEntries()
	if err != nil {
		problems = append(problems, err.Error())
	}
	for _, problem := range seekProblems {
		problems = append(problems, problem.String())
	}
	return problems
}

// Show prints a summary of the Segment, Info and Tags of every file.
func Show(ctx context.Context, opts Options, paths []string, stdout, stderr io.Writer) error {
	if err := checkOutput(opts.Output); err != nil {
		return err
	}
	s := newSession(opts, stderr)
	reports := make([]summary.Report, 0, len(paths))
	for _, path := range paths {
		a, cleanup, err := s.open(ctx, path, true)
		if err != nil {
			return err
		}
		report, err := summary.Build(a)
		cleanup()
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		reports = append(reports, report)
	}

	output := summary.RenderText(reports)
	if strings.EqualFold(opts.Output, "json") {
		output = summary.RenderJSON(reports)
	}
	fmt.Fprint(stdout, output)

	if opts.LogFile != "" {
		if err := writeLogFile(opts.LogFile, output); err != nil {
			return err
		}
	}
	return s.finish(stdout)
}

// SetOptions lists the edits of the set command. Nil pointers leave a value alone.
type SetOptions struct {
	Title  *string
	NewUID bool
	Tags   []string
}

// Set rewrites the Info element (and the Tags element for --tag) of one file in place.
// Children holding default values are written as well.
func Set(ctx context.Context, opts Options, set SetOptions, path string, stdout, stderr io.Writer) error {
	if set.Title == nil && !set.NewUID && len(set.Tags) == 0 {
		return errors.New("nothing to change")
	}
	tags, err := parseTags(set.Tags)
	if err != nil {
		return err
	}

	s := newSession(opts, stderr)
	a, cleanup, err := s.open(ctx, path, false)
	if err != nil {
		return err
	}
	defer cleanup()

	if set.Title != nil || set.NewUID {
		info, err := a.ReadAll(ebml.IDInfo)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if info == nil {
			info = ebml.NewMaster(ebml.IDInfo, ebml.NewUint(ebml.IDTimecodeScale, 1000000))
		}
		if set.Title != nil {
			info.RemoveChildren(func(e *ebml.Element) bool { return e.ID == ebml.IDTitle })
			if *set.Title != "" {
				info.Append(ebml.NewString(ebml.IDTitle, *set.Title))
			}
		}
		if set.NewUID {
			uid := uuid.New()
			info.Set(ebml.NewBinary(ebml.IDSegmentUID, uid[:]))
		}
		if err := a.UpdateElement(info, true); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}

	if len(tags) > 0 {
		element, err := a.ReadAll(ebml.IDTags)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if element == nil {
			element = ebml.NewMaster(ebml.IDTags)
		}
		element.Append(globalTag(tags))
		if err := a.UpdateElement(element, true); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}

	fmt.Fprintf(stdout, "%s: %s\n", path, successStyle.Render("updated"))
	return s.finish(stdout)
}

type simpleTag struct {
	name  string
	value string
}

func parseTags(values []string) ([]simpleTag, error) {
	tags := make([]simpleTag, 0, len(values))
	for _, value := range values {
		name, text, ok := strings.Cut(value, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid tag %q, expected NAME=VALUE", value)
		}
		tags = append(tags, simpleTag{name: name, value: text})
	}
	return tags, nil
}

// globalTag builds a Tag that applies to the whole file.
func globalTag(tags []simpleTag) *ebml.Element {
	tag := ebml.NewMaster(ebml.IDTag, ebml.NewMaster(ebml.IDTargets, ebml.NewUint(ebml.IDTargetTypeVal, 50)))
	for _, t := range tags {
		tag.Append(ebml.NewMaster(ebml.IDSimpleTag,
			ebml.NewString(ebml.IDTagName, t.name),
			ebml.NewString(ebml.IDTagString, t.value),
		))
	}
	return tag
}

// Remove overwrites all level-1 elements with the given names or hex ids by Voids.
func Remove(ctx context.Context, opts Options, path string, selectors []string, stdout, stderr io.Writer) error {
	ids := make([]ebml.ID, 0, len(selectors))
	for _, selector := range selectors {
		id, err := ParseElement(selector)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}

	s := newSession(opts, stderr)
	a, cleanup, err := s.open(ctx, path, false)
	if err != nil {
		return err
	}
	defer cleanup()

	for _, id := range ids {
		if err := a.RemoveElements(id); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		fmt.Fprintf(stdout, "%s: %s %s\n", path, successStyle.Render("removed"), id.Name())
	}
	return s.finish(stdout)
}

// ParseElement resolves a level-1 element name such as "Tags" or a hex id such as
// "0x1254C367".
func ParseElement(selector string) (ebml.ID, error) {
	if hex, ok := strings.CutPrefix(strings.ToLower(selector), "0x"); ok {
		value, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid element id %q: %w", selector, err)
		}
		id := ebml.ID(value)
		if !id.Valid() {
			return 0, fmt.Errorf("invalid element id %q", selector)
		}
		return id, nil
	}
	for _, id := range removableElements {
		if strings.EqualFold(id.Name(), selector) {
			return id, nil
		}
	}
	return 0, fmt.Errorf("unknown element %q", selector)
}
