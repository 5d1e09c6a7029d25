package summary

import "strings"

const (
	AppName = "go-mkvedit"
	AppURL  = "https://github.com/autobrr/go-mkvedit"
)

var AppVersion = "dev"

func SetAppVersion(version string) {
	if version != "" {
		AppVersion = version
	}
}

func FormatVersion(version string) string {
	if version == "" || version == "dev" {
		return "dev"
	}
	return "v" + strings.TrimPrefix(version, "v")
}
