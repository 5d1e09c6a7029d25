package ebml

// Type is the storage class of an element's payload.
type Type int

const (
	TypeBinary Type = iota
	TypeMaster
	TypeUint
	TypeInt
	TypeFloat
	TypeString
	TypeUTF8
	TypeDate
)

type definition struct {
	name string
	typ  Type
	// def holds the default value for leaves that have one: uint64, int64, float64 or string.
	def any
}

var schema = map[ID]definition{
	IDEBML:               {name: "EBML", typ: TypeMaster},
	IDEBMLVersion:        {name: "EBMLVersion", typ: TypeUint, def: uint64(1)},
	IDEBMLReadVersion:    {name: "EBMLReadVersion", typ: TypeUint, def: uint64(1)},
	IDEBMLMaxIDLength:    {name: "EBMLMaxIDLength", typ: TypeUint, def: uint64(4)},
	IDEBMLMaxSizeLength:  {name: "EBMLMaxSizeLength", typ: TypeUint, def: uint64(8)},
	IDDocType:            {name: "DocType", typ: TypeString},
	IDDocTypeVersion:     {name: "DocTypeVersion", typ: TypeUint, def: uint64(1)},
	IDDocTypeReadVersion: {name: "DocTypeReadVersion", typ: TypeUint, def: uint64(1)},
	IDVoid:               {name: "EbmlVoid", typ: TypeBinary},
	IDCRC32:              {name: "EbmlCrc32", typ: TypeBinary},

	IDSegment: {name: "Segment", typ: TypeMaster},

	IDSeekHead:     {name: "SeekHead", typ: TypeMaster},
	IDSeek:         {name: "Seek", typ: TypeMaster},
	IDSeekID:       {name: "SeekID", typ: TypeBinary},
	IDSeekPosition: {name: "SeekPosition", typ: TypeUint},

	IDInfo:          {name: "Info", typ: TypeMaster},
	IDSegmentUID:    {name: "SegmentUID", typ: TypeBinary},
	IDSegmentFile:   {name: "SegmentFilename", typ: TypeUTF8},
	IDPrevUID:       {name: "PrevUID", typ: TypeBinary},
	IDNextUID:       {name: "NextUID", typ: TypeBinary},
	IDTimecodeScale: {name: "TimecodeScale", typ: TypeUint, def: uint64(1000000)},
	IDDuration:      {name: "Duration", typ: TypeFloat},
	IDDateUTC:       {name: "DateUTC", typ: TypeDate},
	IDTitle:         {name: "Title", typ: TypeUTF8},
	IDMuxingApp:     {name: "MuxingApp", typ: TypeUTF8},
	IDWritingApp:    {name: "WritingApp", typ: TypeUTF8},

	IDTracks:          {name: "Tracks", typ: TypeMaster},
	IDTrackEntry:      {name: "TrackEntry", typ: TypeMaster},
	IDTrackNumber:     {name: "TrackNumber", typ: TypeUint},
	IDTrackUID:        {name: "TrackUID", typ: TypeUint},
	IDTrackType:       {name: "TrackType", typ: TypeUint},
	IDFlagEnabled:     {name: "FlagEnabled", typ: TypeUint, def: uint64(1)},
	IDFlagDefault:     {name: "FlagDefault", typ: TypeUint, def: uint64(1)},
	IDFlagForced:      {name: "FlagForced", typ: TypeUint, def: uint64(0)},
	IDFlagLacing:      {name: "FlagLacing", typ: TypeUint, def: uint64(1)},
	IDDefaultDuration: {name: "DefaultDuration", typ: TypeUint},
	IDTrackName:       {name: "Name", typ: TypeUTF8},
	IDLanguage:        {name: "Language", typ: TypeString, def: "eng"},
	IDCodecID:         {name: "CodecID", typ: TypeString},
	IDCodecPrivate:    {name: "CodecPrivate", typ: TypeBinary},
	IDCodecName:       {name: "CodecName", typ: TypeUTF8},
	IDVideo:           {name: "Video", typ: TypeMaster},
	IDPixelWidth:      {name: "PixelWidth", typ: TypeUint},
	IDPixelHeight:     {name: "PixelHeight", typ: TypeUint},
	IDDisplayWidth:    {name: "DisplayWidth", typ: TypeUint},
	IDDisplayHeight:   {name: "DisplayHeight", typ: TypeUint},
	IDAudio:           {name: "Audio", typ: TypeMaster},
	IDSamplingFreq:    {name: "SamplingFrequency", typ: TypeFloat, def: float64(8000)},
	IDChannels:        {name: "Channels", typ: TypeUint, def: uint64(1)},
	IDBitDepth:        {name: "BitDepth", typ: TypeUint},

	IDCluster:     {name: "Cluster", typ: TypeMaster},
	IDTimecode:    {name: "Timecode", typ: TypeUint},
	IDSimpleBlock: {name: "SimpleBlock", typ: TypeBinary},
	IDBlockGroup:  {name: "BlockGroup", typ: TypeMaster},
	IDBlock:       {name: "Block", typ: TypeBinary},

	IDCues:          {name: "Cues", typ: TypeMaster},
	IDCuePoint:      {name: "CuePoint", typ: TypeMaster},
	IDCueTime:       {name: "CueTime", typ: TypeUint},
	IDCueTrackPos:   {name: "CueTrackPositions", typ: TypeMaster},
	IDCueTrack:      {name: "CueTrack", typ: TypeUint},
	IDCueClusterPos: {name: "CueClusterPosition", typ: TypeUint},

	IDChapters:         {name: "Chapters", typ: TypeMaster},
	IDEditionEntry:     {name: "EditionEntry", typ: TypeMaster},
	IDEditionUID:       {name: "EditionUID", typ: TypeUint},
	IDChapterAtom:      {name: "ChapterAtom", typ: TypeMaster},
	IDChapterUID:       {name: "ChapterUID", typ: TypeUint},
	IDChapterTimeStart: {name: "ChapterTimeStart", typ: TypeUint},
	IDChapterTimeEnd:   {name: "ChapterTimeEnd", typ: TypeUint},
	IDChapterDisplay:   {name: "ChapterDisplay", typ: TypeMaster},
	IDChapString:       {name: "ChapString", typ: TypeUTF8},
	IDChapLanguage:     {name: "ChapLanguage", typ: TypeString, def: "eng"},

	IDAttachments:  {name: "Attachments", typ: TypeMaster},
	IDAttachedFile: {name: "AttachedFile", typ: TypeMaster},
	IDFileDesc:     {name: "FileDescription", typ: TypeUTF8},
	IDFileName:     {name: "FileName", typ: TypeUTF8},
	IDFileMimeType: {name: "FileMimeType", typ: TypeString},
	IDFileData:     {name: "FileData", typ: TypeBinary},
	IDFileUID:      {name: "FileUID", typ: TypeUint},

	IDTags:          {name: "Tags", typ: TypeMaster},
	IDTag:           {name: "Tag", typ: TypeMaster},
	IDTargets:       {name: "Targets", typ: TypeMaster},
	IDTargetType:    {name: "TargetType", typ: TypeString},
	IDTargetTypeVal: {name: "TargetTypeValue", typ: TypeUint, def: uint64(50)},
	IDTagTrackUID:   {name: "TagTrackUID", typ: TypeUint, def: uint64(0)},
	IDSimpleTag:     {name: "SimpleTag", typ: TypeMaster},
	IDTagName:       {name: "TagName", typ: TypeUTF8},
	IDTagLanguage:   {name: "TagLanguage", typ: TypeString, def: "und"},
	IDTagDefault:    {name: "TagDefault", typ: TypeUint, def: uint64(1)},
	IDTagString:     {name: "TagString", typ: TypeUTF8},
	IDTagBinary:     {name: "TagBinary", typ: TypeBinary},
}

// TypeOf returns the payload class of id; unknown ids are treated as opaque binary.
func TypeOf(id ID) Type {
	if def, ok := schema[id]; ok {
		return def.typ
	}
	return TypeBinary
}
