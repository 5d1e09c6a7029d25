package analyzer

import (
	"fmt"

	"github.com/autobrr/go-mkvedit/internal/ebml"
)

// adjustSegmentSize sets the Segment's coded size to the distance from its data start to the
// end of the file, keeping the size field's length. An unknown-size Segment is left alone:
// its marker is often a single byte and cannot carry a real size.
func (a *Analyzer) adjustSegmentSize(kind error) error {
	if !a.segment.finite() {
		return nil
	}

	fileSize, err := a.fileSize()
	if err != nil {
		return failure(kind, ebml.IDSegment, a.segment.pos, err)
	}
	size := fileSize - a.segment.dataStart()
	if size < 0 {
		return failure(kind, ebml.IDSegment, a.segment.pos, fmt.Errorf("file ends at %d before the segment data start %d", fileSize, a.segment.dataStart()))
	}

	coded, err := ebml.EncodeSize(uint64(size), a.segment.sizeLen)
	if err != nil {
		return failure(kind, ebml.IDSegment, a.segment.pos, err)
	}
	if err := a.writeAt(coded, a.segment.pos+int64(a.segment.idLen)); err != nil {
		return failure(kind, ebml.IDSegment, a.segment.pos, err)
	}

	a.segment.size = uint64(size)
	a.log.Trace("segment size adjusted", "size", size)
	return nil
}
