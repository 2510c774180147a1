package normalize

import (
	"strings"

	"golang.org/x/text/cases"
)

var folder = cases.Fold()

// Name folds case and collapses whitespace so lookups ignore how a name was typed.
func Name(name string) string {
	return folder.String(strings.Join(strings.Fields(name), " "))
}
