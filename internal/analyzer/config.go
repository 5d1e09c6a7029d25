package analyzer

import (
	"github.com/hashicorp/go-hclog"

	"github.com/autobrr/go-mkvedit/internal/ebml"
)

type ParseMode string

const (
	// ParseFast stops walking the Segment once a Cluster and a SeekHead have been seen and
	// recovers the rest from the seek heads.
	ParseFast ParseMode = "fast"
	// ParseFull walks every level-1 element.
	ParseFull ParseMode = "full"
)

// GapPolicy decides what happens to a one-byte gap that no header shift can absorb.
type GapPolicy string

const (
	GapLeak  GapPolicy = "leak"
	GapError GapPolicy = "error"
)

type PlacementStrategy int

const (
	// PlaceAnywhere lets a new element reuse the first Void large enough to hold it.
	PlaceAnywhere PlacementStrategy = iota
	// PlaceAtEnd always appends the element at the end of the file.
	PlaceAtEnd
)

func (s PlacementStrategy) String() string {
	if s == PlaceAtEnd {
		return "end"
	}
	return "anywhere"
}

// PlacementPolicy chooses the strategy for a level-1 element about to be written.
type PlacementPolicy func(id ebml.ID) PlacementStrategy

// DefaultPlacement keeps Tags at the end of the file and lets everything else fill holes.
func DefaultPlacement(id ebml.ID) PlacementStrategy {
	if id == ebml.IDTags {
		return PlaceAtEnd
	}
	return PlaceAnywhere
}

type Config struct {
	ParseMode ParseMode
	ReadOnly  bool

	Logger    hclog.Logger
	Progress  Progress
	Metrics   *Metrics
	Placement PlacementPolicy

	// VerifyCheckpoints re-derives the directory from the file after every mutation step and
	// fails the operation on any difference.
	VerifyCheckpoints bool
	// StrictGaps turns gaps between entries into checkpoint failures. Overlaps always are.
	StrictGaps bool
	OneByteGap GapPolicy
}

func DefaultConfig() Config {
	return Config{
		ParseMode:  ParseFull,
		OneByteGap: GapLeak,
	}
}

func (c Config) normalize() Config {
	if c.ParseMode != ParseFast {
		c.ParseMode = ParseFull
	}
	if c.OneByteGap != GapError {
		c.OneByteGap = GapLeak
	}
	if c.Logger == nil {
		c.Logger = hclog.NewNullLogger()
	}
	if c.Progress == nil {
		c.Progress = nopProgress{}
	}
	if c.Placement == nil {
		c.Placement = DefaultPlacement
	}
	return c
}
