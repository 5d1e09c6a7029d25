package cli

import (
	"fmt"
	"io"

	"github.com/autobrr/go-mkvedit/internal/summary"
)

var appVersion = "dev"

func SetVersion(version string) {
	if version != "" {
		appVersion = version
	}
}

func Version(stdout io.Writer) {
	fmt.Fprintf(stdout, "%s, %s\n", summary.AppName, summary.FormatVersion(appVersion))
}
