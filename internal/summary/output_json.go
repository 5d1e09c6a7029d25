package summary

import (
	"bytes"
	"encoding/json"
)

type jsonKV struct {
	Key string
	Val string
	Raw bool
}

func RenderJSON(reports []Report) string {
	if len(reports) == 1 {
		return renderJSONReport(reports[0]) + "\n"
	}
	items := make([]string, 0, len(reports))
	for _, report := range reports {
		items = append(items, renderJSONReport(report))
	}
	return renderJSONArray(items, true) + "\n"
}

func renderJSONReport(report Report) string {
	sections := make([]string, 0, len(report.Sections))
	for _, section := range report.Sections {
		fields := []jsonKV{{Key: "@type", Val: section.Title}}
		for _, field := range section.Fields {
			fields = append(fields, jsonKV{Key: field.Name, Val: field.Value})
		}
		sections = append(sections, renderJSONObject(fields, false))
	}
	return renderJSONObject([]jsonKV{
		{Key: "creatingLibrary", Val: renderJSONObject(creatingLibraryFields(), false), Raw: true},
		{Key: "@ref", Val: report.Ref},
		{Key: "section", Val: renderJSONArray(sections, true), Raw: true},
	}, true)
}

func creatingLibraryFields() []jsonKV {
	return []jsonKV{
		{Key: "name", Val: AppName},
		{Key: "version", Val: FormatVersion(AppVersion)},
		{Key: "url", Val: AppURL},
	}
}

func renderJSONArray(items []string, multiline bool) string {
	var buf bytes.Buffer
	buf.WriteString("[")
	for i, item := range items {
		if i > 0 {
			if multiline {
				buf.WriteString(",\n")
			} else {
				buf.WriteString(",")
			}
		}
		buf.WriteString(item)
	}
	buf.WriteString("]")
	return buf.String()
}

func renderJSONObject(fields []jsonKV, multiline bool) string {
	var buf bytes.Buffer
	buf.WriteString("{")
	for i, field := range fields {
		if i > 0 {
			if multiline {
				buf.WriteString(",\n")
			} else {
				buf.WriteString(",")
			}
		}
		writeJSONField(&buf, field.Key, field.Val, field.Raw)
	}
	buf.WriteString("}")
	return buf.String()
}

func writeJSONField(buf *bytes.Buffer, key, value string, raw bool) {
	buf.WriteString(renderJSONString(key))
	buf.WriteString(":")
	if raw {
		buf.WriteString(value)
		return
	}
	buf.WriteString(renderJSONString(value))
}

func renderJSONString(value string) string {
	data, _ := json.Marshal(value)
	return string(data)
}
