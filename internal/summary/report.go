package summary

type Field struct {
	Name  string
	Value string
}

// Section is one titled block of a report, e.g. "Segment" or "Tag #2".
type Section struct {
	Title  string
	Fields []Field
}

type Report struct {
	Ref      string
	Sections []Section
}

func (s *Section) add(name, value string) {
	if value == "" {
		return
	}
	s.Fields = append(s.Fields, Field{Name: name, Value: value})
}
