package summary

import (
	"bytes"
	"fmt"
	"strings"
)

func RenderText(reports []Report) string {
	var buf bytes.Buffer
	for i, report := range reports {
		if i > 0 {
			buf.WriteString("\n")
		}
		if report.Ref != "" {
			writeField(&buf, "Complete name", report.Ref)
			buf.WriteString("\n")
		}
		for j, section := range report.Sections {
			if j > 0 {
				buf.WriteString("\n")
			}
			writeSection(&buf, section)
		}
		buf.WriteString("\n")
		buf.WriteString(reportByLine())
		buf.WriteString("\n")
	}
	output := strings.TrimRight(buf.String(), "\n")
	return output + "\n\n"
}

func reportByLine() string {
	return fmt.Sprintf("ReportBy : %s - %s", AppName, FormatVersion(AppVersion))
}

func writeSection(buf *bytes.Buffer, section Section) {
	buf.WriteString(section.Title)
	buf.WriteString("\n")
	for _, field := range section.Fields {
		writeField(buf, field.Name, field.Value)
	}
}

func writeField(buf *bytes.Buffer, name, value string) {
	buf.WriteString(padRight(name, 41))
	buf.WriteString(": ")
	buf.WriteString(value)
	buf.WriteString("\n")
}

func padRight(value string, width int) string {
	if len(value) >= width {
		return value
	}
	return value + strings.Repeat(" ", width-len(value))
}
