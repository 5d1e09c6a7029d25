package ebml

import "fmt"

// ID is an EBML element id with its length-marker bits kept, as it appears on disk.
type ID uint32

const (
	IDEBML               ID = 0x1A45DFA3
	IDEBMLVersion        ID = 0x4286
	IDEBMLReadVersion    ID = 0x42F7
	IDEBMLMaxIDLength    ID = 0x42F2
	IDEBMLMaxSizeLength  ID = 0x42F3
	IDDocType            ID = 0x4282
	IDDocTypeVersion     ID = 0x4287
	IDDocTypeReadVersion ID = 0x4285
	IDVoid               ID = 0xEC
	IDCRC32              ID = 0xBF

	IDSegment ID = 0x18538067

	IDSeekHead     ID = 0x114D9B74
	IDSeek         ID = 0x4DBB
	IDSeekID       ID = 0x53AB
	IDSeekPosition ID = 0x53AC

	IDInfo          ID = 0x1549A966
	IDSegmentUID    ID = 0x73A4
	IDSegmentFile   ID = 0x7384
	IDPrevUID       ID = 0x3CB923
	IDNextUID       ID = 0x3EB923
	IDTimecodeScale ID = 0x2AD7B1
	IDDuration      ID = 0x4489
	IDDateUTC       ID = 0x4461
	IDTitle         ID = 0x7BA9
	IDMuxingApp     ID = 0x4D80
	IDWritingApp    ID = 0x5741

	IDTracks          ID = 0x1654AE6B
	IDTrackEntry      ID = 0xAE
	IDTrackNumber     ID = 0xD7
	IDTrackUID        ID = 0x73C5
	IDTrackType       ID = 0x83
	IDFlagEnabled     ID = 0xB9
	IDFlagDefault     ID = 0x88
	IDFlagForced      ID = 0x55AA
	IDFlagLacing      ID = 0x9C
	IDDefaultDuration ID = 0x23E383
	IDTrackName       ID = 0x536E
	IDLanguage        ID = 0x22B59C
	IDCodecID         ID = 0x86
	IDCodecPrivate    ID = 0x63A2
	IDCodecName       ID = 0x258688
	IDVideo           ID = 0xE0
	IDPixelWidth      ID = 0xB0
	IDPixelHeight     ID = 0xBA
	IDDisplayWidth    ID = 0x54B0
	IDDisplayHeight   ID = 0x54BA
	IDAudio           ID = 0xE1
	IDSamplingFreq    ID = 0xB5
	IDChannels        ID = 0x9F
	IDBitDepth        ID = 0x6264

	IDCluster     ID = 0x1F43B675
	IDTimecode    ID = 0xE7
	IDSimpleBlock ID = 0xA3
	IDBlockGroup  ID = 0xA0
	IDBlock       ID = 0xA1

	IDCues          ID = 0x1C53BB6B
	IDCuePoint      ID = 0xBB
	IDCueTime       ID = 0xB3
	IDCueTrackPos   ID = 0xB7
	IDCueTrack      ID = 0xF7
	IDCueClusterPos ID = 0xF1

	IDChapters         ID = 0x1043A770
	IDEditionEntry     ID = 0x45B9
	IDEditionUID       ID = 0x45BC
	IDChapterAtom      ID = 0xB6
	IDChapterUID       ID = 0x73C4
	IDChapterTimeStart ID = 0x91
	IDChapterTimeEnd   ID = 0x92
	IDChapterDisplay   ID = 0x80
	IDChapString       ID = 0x85
	IDChapLanguage     ID = 0x437C

	IDAttachments  ID = 0x1941A469
	IDAttachedFile ID = 0x61A7
	IDFileDesc     ID = 0x467E
	IDFileName     ID = 0x466E
	IDFileMimeType ID = 0x4660
	IDFileData     ID = 0x465C
	IDFileUID      ID = 0x46AE

	IDTags          ID = 0x1254C367
	IDTag           ID = 0x7373
	IDTargets       ID = 0x63C0
	IDTargetType    ID = 0x63CA
	IDTargetTypeVal ID = 0x68CA
	IDTagTrackUID   ID = 0x63C5
	IDSimpleTag     ID = 0x67C8
	IDTagName       ID = 0x45A3
	IDTagLanguage   ID = 0x447A
	IDTagDefault    ID = 0x4484
	IDTagString     ID = 0x4487
	IDTagBinary     ID = 0x4485
)

// Len returns the number of bytes the id occupies on disk.
func (id ID) Len() int {
	switch {
	case id <= 0xFF:
		return 1
	case id <= 0xFFFF:
		return 2
	case id <= 0xFFFFFF:
		return 3
	default:
		return 4
	}
}

// Valid reports whether the marker bits agree with the id's byte length.
func (id ID) Valid() bool {
	if id == 0 {
		return false
	}
	length := id.Len()
	first := byte(uint32(id) >> uint(8*(length-1)))
	return vintLength(first) == length
}

func (id ID) Bytes() []byte {
	length := id.Len()
	out := make([]byte, length)
	v := uint32(id)
	for i := length - 1; i >= 0; i-- {
		out[i] = byte(v)
		v >>= 8
	}
	return out
}

// IDFromBytes interprets raw id bytes as stored inside a SeekID element.
func IDFromBytes(buf []byte) (ID, bool) {
	id, n, err := ParseID(buf)
	if err != nil || n != len(buf) {
		return 0, false
	}
	return id, true
}

// Name returns the schema name of the id, or its hex form padded to the id length.
func (id ID) Name() string {
	if def, ok := schema[id]; ok {
		return def.name
	}
	return fmt.Sprintf("0x%0*x", id.Len()*2, uint32(id))
}

func (id ID) String() string {
	return id.Name()
}

// IsLevel1 reports whether the id is a known direct child of the Segment.
func (id ID) IsLevel1() bool {
	switch id {
	case IDSeekHead, IDInfo, IDTracks, IDChapters, IDCluster, IDCues, IDAttachments, IDTags, IDVoid, IDCRC32:
		return true
	}
	return false
}

// LookupName resolves a schema name (case-sensitive) to its id.
func LookupName(name string) (ID, bool) {
	for id, def := range schema {
		if def.name == name {
			return id, true
		}
	}
	return 0, false
}
