// Package mkvedit is the public face of the in-place Matroska editor.
package mkvedit

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/autobrr/go-mkvedit/internal/analyzer"
	"github.com/autobrr/go-mkvedit/internal/ebml"
	"github.com/autobrr/go-mkvedit/internal/summary"
)

// Types
type Analyzer = analyzer.Analyzer
type Config = analyzer.Config
type Entry = analyzer.Entry
type File = analyzer.File
type Progress = analyzer.Progress
type ProgressFuncs = analyzer.ProgressFuncs
type Metrics = analyzer.Metrics
type MutationError = analyzer.MutationError
type VerifyError = analyzer.VerifyError
type ParseMode = analyzer.ParseMode
type GapPolicy = analyzer.GapPolicy
type PlacementStrategy = analyzer.PlacementStrategy
type PlacementPolicy = analyzer.PlacementPolicy
type Element = ebml.Element
type ID = ebml.ID
type Report = summary.Report

// Constants
const (
	ParseFast     = analyzer.ParseFast
	ParseFull     = analyzer.ParseFull
	GapLeak       = analyzer.GapLeak
	GapError      = analyzer.GapError
	PlaceAnywhere = analyzer.PlaceAnywhere
	PlaceAtEnd    = analyzer.PlaceAtEnd

	IDSeekHead    = ebml.IDSeekHead
	IDInfo        = ebml.IDInfo
	IDTracks      = ebml.IDTracks
	IDChapters    = ebml.IDChapters
	IDCluster     = ebml.IDCluster
	IDCues        = ebml.IDCues
	IDAttachments = ebml.IDAttachments
	IDTags        = ebml.IDTags
	IDVoid        = ebml.IDVoid
)

// Errors
var (
	ErrNotMatroska            = analyzer.ErrNotMatroska
	ErrNoSegment              = analyzer.ErrNoSegment
	ErrAborted                = analyzer.ErrAborted
	ErrNotScanned             = analyzer.ErrNotScanned
	ErrReadOnly               = analyzer.ErrReadOnly
	ErrSegmentSizeForElement  = analyzer.ErrSegmentSizeForElement
	ErrSegmentSizeForMetaSeek = analyzer.ErrSegmentSizeForMetaSeek
	ErrMetaSeek               = analyzer.ErrMetaSeek
	ErrNotIndexable           = analyzer.ErrNotIndexable
	ErrOneByteGap             = analyzer.ErrOneByteGap
	ErrInternal               = analyzer.ErrInternal
)

// Functions
func Probe(path string) bool {
	return analyzer.Probe(path)
}

func Open(path string, cfg Config) (*Analyzer, error) {
	return analyzer.Open(path, cfg)
}

func New(f File, cfg Config) *Analyzer {
	return analyzer.New(f, cfg)
}

func DefaultConfig() Config {
	return analyzer.DefaultConfig()
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return analyzer.NewMetrics(reg)
}

func Decode(buf []byte) ([]*Element, error) {
	return ebml.Decode(buf)
}

// Rendering
func Summarize(a *Analyzer) (Report, error) {
	return summary.Build(a)
}

func RenderText(reports []Report) string {
	return summary.RenderText(reports)
}

func RenderJSON(reports []Report) string {
	return summary.RenderJSON(reports)
}

func FormatVersion(version string) string {
	return summary.FormatVersion(version)
}

func SetAppVersion(version string) {
	summary.SetAppVersion(version)
}
