package formats

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Faultbox/ocmapgen/pkg/encoding"
)

var controlIdentifier = regexp.MustCompile(`(?m)^\s*Identifier=(\w+)`)

// PlayerControlIdentifiers extracts the control identifiers declared in
// PlayerControls.txt, in file order.
func PlayerControlIdentifiers(data []byte) []string {
	text := encoding.Windows1252ToUTF8(data)
	var ids []string
	for _, m := range controlIdentifier.FindAllStringSubmatch(text, -1) {
		ids = append(ids, m[1])
	}
	return ids
}

// PlayerControlsScript generates a script declaring a CON_ constant for each
// identifier, so map scripts referring to controls still link without the
// full control definitions loaded.
func PlayerControlsScript(ids []string) string {
	var b strings.Builder
	for _, id := range ids {
		fmt.Fprintf(&b, "static const CON_%s = 0;\n", id)
	}
	return b.String()
}
