package cli

import (
	"fmt"
	"io"

	"github.com/autobrr/go-mkvedit/internal/ebml"
)

// removableElements are the level-1 elements the remove command accepts by name.
var removableElements = []ebml.ID{
	ebml.IDSeekHead,
	ebml.IDInfo,
	ebml.IDTracks,
	ebml.IDChapters,
	ebml.IDCluster,
	ebml.IDCues,
	ebml.IDAttachments,
	ebml.IDTags,
}

func HelpElements(stdout io.Writer) {
	fmt.Fprintln(stdout, "Elements accepted by remove (names are case-insensitive):")
	for _, id := range removableElements {
		fmt.Fprintf(stdout, "  %-20s0x%X\n", id.Name(), uint32(id))
	}
	fmt.Fprintln(stdout, "")
	fmt.Fprintln(stdout, "Any other level-1 element can be given by its hex id, e.g. \"0x1254C367\".")
	fmt.Fprintf(stdout, "%s elements cannot be removed.\n", ebml.IDVoid.Name())
}
