package summary

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	goebml "github.com/at-wat/ebml-go"

	"github.com/autobrr/go-mkvedit/internal/analyzer"
	"github.com/autobrr/go-mkvedit/internal/ebml"
)

const defaultTimecodeScale = 1000000

type Info struct {
	TimecodeScale uint64
	SegmentUID    []byte
	Title         string
	MuxingApp     string
	WritingApp    string
	Duration      float64
	DateUTC       time.Time
}

// DurationSeconds converts the segment duration from timecode ticks to seconds.
func (i Info) DurationSeconds() float64 {
	return i.Duration * float64(i.TimecodeScale) / 1e9
}

type Targets struct {
	TargetTypeValue uint64
	TargetType      string
}

type SimpleTag struct {
	TagName     string
	TagLanguage string
	TagString   string
}

type Tag struct {
	Targets   Targets
	SimpleTag []SimpleTag
}

type Tags struct {
	Tag []Tag
}

type infoDocument struct {
	Info Info `ebml:"Info"`
}

type tagsDocument struct {
	Tags Tags `ebml:"Tags"`
}

func decode(element *ebml.Element, out any) error {
	data, err := element.Encode(true)
	if err != nil {
		return err
	}
	return goebml.Unmarshal(bytes.NewReader(data), out, goebml.WithIgnoreUnknown(true))
}

// ReadInfo merges every Info element of the file. It returns nil when there is none.
func ReadInfo(a *analyzer.Analyzer) (*Info, error) {
	element, err := a.ReadAll(ebml.IDInfo)
	if err != nil || element == nil {
		return nil, err
	}
	var doc infoDocument
	if err := decode(element, &doc); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", ebml.IDInfo.Name(), err)
	}
	if doc.Info.TimecodeScale == 0 {
		doc.Info.TimecodeScale = defaultTimecodeScale
	}
	return &doc.Info, nil
}

// ReadTags merges every Tags element of the file. It returns nil when there is none.
func ReadTags(a *analyzer.Analyzer) (*Tags, error) {
	element, err := a.ReadAll(ebml.IDTags)
	if err != nil || element == nil {
		return nil, err
	}
	var doc tagsDocument
	if err := decode(element, &doc); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", ebml.IDTags.Name(), err)
	}
	for i := range doc.Tags.Tag {
		if doc.Tags.Tag[i].Targets.TargetTypeValue == 0 {
			doc.Tags.Tag[i].Targets.TargetTypeValue = 50
		}
		for j := range doc.Tags.Tag[i].SimpleTag {
			if doc.Tags.Tag[i].SimpleTag[j].TagLanguage == "" {
				doc.Tags.Tag[i].SimpleTag[j].TagLanguage = "und"
			}
		}
	}
	return &doc.Tags, nil
}

// Build describes a scanned file: its Segment, the level-1 layout, the Info element and all
// tags.
func Build(a *analyzer.Analyzer) (Report, error) {
	report := Report{Ref: a.Name()}
	entries := a.Entries()

	segment := Section{Title: "Segment"}
	if size, ok := a.SegmentSize(); ok {
		segment.add("Size", formatBytes(int64(size)))
	} else {
		segment.add("Size", "unknown")
	}
	segment.add("Data start", strconv.FormatInt(a.SegmentDataStart(), 10))
	segment.add("Level-1 elements", strconv.Itoa(len(entries)))
	counts := make(map[ebml.ID]int)
	var order []ebml.ID
	var free int64
	for _, entry := range entries {
		if counts[entry.ID] == 0 {
			order = append(order, entry.ID)
		}
		counts[entry.ID]++
		if entry.ID == ebml.IDVoid {
			free += entry.Size
		}
	}
	for _, id := range order {
		segment.add(id.Name(), strconv.Itoa(counts[id]))
	}
	if free > 0 {
		segment.add("Free space", formatBytes(free))
	}
	report.Sections = append(report.Sections, segment)

	info, err := ReadInfo(a)
	if err != nil {
		return report, err
	}
	if info != nil {
		section := Section{Title: "Info"}
		section.add("Title", info.Title)
		section.add("Duration", formatDuration(info.DurationSeconds()))
		section.add("Muxing application", info.MuxingApp)
		section.add("Writing application", info.WritingApp)
		if !info.DateUTC.IsZero() {
			section.add("Encoded date", info.DateUTC.UTC().Format("2006-01-02 15:04:05 UTC"))
		}
		section.add("Segment UID", formatUID(info.SegmentUID))
		section.add("Timecode scale", strconv.FormatUint(info.TimecodeScale, 10))
		report.Sections = append(report.Sections, section)
	}

	tags, err := ReadTags(a)
	if err != nil {
		return report, err
	}
	if tags != nil {
		for i, tag := range tags.Tag {
			title := "Tag"
			if len(tags.Tag) > 1 {
				title = fmt.Sprintf("Tag #%d", i+1)
			}
			section := Section{Title: title}
			target := strconv.FormatUint(tag.Targets.TargetTypeValue, 10)
			if tag.Targets.TargetType != "" {
				target += " (" + tag.Targets.TargetType + ")"
			}
			section.add("Target", target)
			for _, simple := range tag.SimpleTag {
				name := simple.TagName
				if simple.TagLanguage != "und" {
					name += " (" + simple.TagLanguage + ")"
				}
				section.Fields = append(section.Fields, Field{Name: name, Value: simple.TagString})
			}
			report.Sections = append(report.Sections, section)
		}
	}

	return report, nil
}
