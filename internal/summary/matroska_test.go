package summary

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	goebml "github.com/at-wat/ebml-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/go-mkvedit/internal/analyzer"
	"github.com/autobrr/go-mkvedit/internal/ebml"
)

func encodeAll(t *testing.T, elements ...*ebml.Element) []byte {
	t.Helper()
	var out []byte
	for _, e := range elements {
		data, err := e.Encode(true)
		require.NoError(t, err)
		out = append(out, data...)
	}
	return out
}

// writeMatroska writes an EBML head and a Segment with an 8-byte size field around body.
func writeMatroska(t *testing.T, body []byte) string {
	t.Helper()
	head := encodeAll(t, ebml.NewMaster(ebml.IDEBML,
		ebml.NewUint(ebml.IDEBMLVersion, 1),
		ebml.NewString(ebml.IDDocType, "matroska"),
		ebml.NewUint(ebml.IDDocTypeVersion, 4),
	))
	segment, err := ebml.EncodeHeader(ebml.IDSegment, uint64(len(body)), 8)
	require.NoError(t, err)

	data := append(head, segment...)
	data = append(data, body...)
	path := filepath.Join(t.TempDir(), "sample.mkv")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func openAnalyzer(t *testing.T, path string) *analyzer.Analyzer {
	t.Helper()
	a, err := analyzer.Open(path, analyzer.Config{ReadOnly: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	require.NoError(t, a.Scan())
	return a
}

func fieldMap(section Section) map[string]string {
	out := make(map[string]string, len(section.Fields))
	for _, field := range section.Fields {
		out[field.Name] = field.Value
	}
	return out
}

func TestBuild(t *testing.T) {
	date := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	uid := []byte{0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef, 0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef}

	info := ebml.NewMaster(ebml.IDInfo,
		ebml.NewBinary(ebml.IDSegmentUID, uid),
		ebml.NewUint(ebml.IDTimecodeScale, 1000000),
		ebml.NewFloat(ebml.IDDuration, 888000),
		ebml.NewDate(ebml.IDDateUTC, date),
		ebml.NewString(ebml.IDTitle, "Sintel"),
		ebml.NewString(ebml.IDMuxingApp, "libebml v1.4.4 + libmatroska v1.7.1"),
		ebml.NewString(ebml.IDWritingApp, "mkvmerge v80.0"),
	)
	tags := ebml.NewMaster(ebml.IDTags,
		ebml.NewMaster(ebml.IDTag,
			ebml.NewMaster(ebml.IDTargets),
			ebml.NewMaster(ebml.IDSimpleTag,
				ebml.NewString(ebml.IDTagName, "ENCODER"),
				ebml.NewString(ebml.IDTagString, "x264"),
			),
		),
		ebml.NewMaster(ebml.IDTag,
			ebml.NewMaster(ebml.IDTargets, ebml.NewUint(ebml.IDTargetTypeVal, 30)),
			ebml.NewMaster(ebml.IDSimpleTag,
				ebml.NewString(ebml.IDTagName, "TITLE"),
				ebml.NewString(ebml.IDTagLanguage, "eng"),
				ebml.NewString(ebml.IDTagString, "Sintel"),
			),
		),
	)
	void, err := ebml.VoidHeader(100)
	require.NoError(t, err)
	body := encodeAll(t, info)
	body = append(body, append(void, make([]byte, 100-len(void))...)...)
	body = append(body, encodeAll(t, tags, ebml.NewMaster(ebml.IDCluster, ebml.NewUint(ebml.IDTimecode, 0)))...)
	path := writeMatroska(t, body)

	report, err := Build(openAnalyzer(t, path))
	require.NoError(t, err)
	assert.Equal(t, path, report.Ref)
	require.Len(t, report.Sections, 4)

	segment := report.Sections[0]
	assert.Equal(t, "Segment", segment.Title)
	fields := fieldMap(segment)
	assert.Equal(t, formatBytes(int64(len(body))), fields["Size"])
	assert.Equal(t, "4", fields["Level-1 elements"])
	assert.Equal(t, "1", fields["Info"])
	assert.Equal(t, "1", fields["EbmlVoid"])
	assert.Equal(t, "100 B", fields["Free space"])

	assert.Equal(t, "Info", report.Sections[1].Title)
	fields = fieldMap(report.Sections[1])
	assert.Equal(t, "Sintel", fields["Title"])
	assert.Equal(t, "14 min 48 s", fields["Duration"])
	assert.Equal(t, "mkvmerge v80.0", fields["Writing application"])
	assert.Equal(t, "2024-05-01 12:00:00 UTC", fields["Encoded date"])
	assert.Equal(t, "0123456789abcdef0123456789abcdef", fields["Segment UID"])
	assert.Equal(t, "1000000", fields["Timecode scale"])

	assert.Equal(t, "Tag #1", report.Sections[2].Title)
	assert.Equal(t, []Field{{"Target", "50"}, {"ENCODER", "x264"}}, report.Sections[2].Fields)
	assert.Equal(t, "Tag #2", report.Sections[3].Title)
	assert.Equal(t, []Field{{"Target", "30"}, {"TITLE (eng)", "Sintel"}}, report.Sections[3].Fields)
}

func TestBuildWithoutInfoOrTags(t *testing.T) {
	path := writeMatroska(t, encodeAll(t, ebml.NewMaster(ebml.IDCluster, ebml.NewUint(ebml.IDTimecode, 0))))

	report, err := Build(openAnalyzer(t, path))
	require.NoError(t, err)
	require.Len(t, report.Sections, 1)
	assert.NotContains(t, fieldMap(report.Sections[0]), "Free space")
}

func TestReadInfoDecodesForeignEncoding(t *testing.T) {
	want := Info{
		TimecodeScale: 100000,
		SegmentUID:    []byte{0xde, 0xad, 0xbe, 0xef},
		Title:         "written by ebml-go",
		MuxingApp:     "ebml-go",
		WritingApp:    "summary test",
		Duration:      12345,
		DateUTC:       time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	var buf bytes.Buffer
	require.NoError(t, goebml.Marshal(&infoDocument{Info: want}, &buf))
	path := writeMatroska(t, buf.Bytes())

	got, err := ReadInfo(openAnalyzer(t, path))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want.TimecodeScale, got.TimecodeScale)
	assert.Equal(t, want.SegmentUID, got.SegmentUID)
	assert.Equal(t, want.Title, got.Title)
	assert.Equal(t, want.MuxingApp, got.MuxingApp)
	assert.Equal(t, want.WritingApp, got.WritingApp)
	assert.InDelta(t, want.Duration, got.Duration, 0.001)
	assert.True(t, want.DateUTC.Equal(got.DateUTC), "date %s", got.DateUTC)
	assert.InDelta(t, 1.2345, got.DurationSeconds(), 0.0001)
}

func TestReadInfoDefaultsTimecodeScale(t *testing.T) {
	path := writeMatroska(t, encodeAll(t, ebml.NewMaster(ebml.IDInfo, ebml.NewString(ebml.IDTitle, "no scale"))))

	info, err := ReadInfo(openAnalyzer(t, path))
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, uint64(1000000), info.TimecodeScale)
	assert.Equal(t, "no scale", info.Title)

	tags, err := ReadTags(openAnalyzer(t, path))
	require.NoError(t, err)
	assert.Nil(t, tags)
}
