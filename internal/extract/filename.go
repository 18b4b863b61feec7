package extract

import (
	"path/filepath"
	"strings"
)

// PrefixUnknown is assigned when a filename matches no known role prefix.
const PrefixUnknown = "Inconnu"

// rolePrefixes are the recognized documentation roles, matched anywhere in the
// filename.
var rolePrefixes = []string{"Employé", "Manager", "Gestion"}

// DeriveTitle splits a PDF filename into its role prefix and document title.
// "Employé Congés.pdf" yields ("Employé", "Congés"). Unmatched filenames fall
// back to PrefixUnknown with the whole stem as title; the caller is expected
// to log that case.
func DeriveTitle(filename string) (prefix, title string) {
	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))

	for _, p := range rolePrefixes {
		if strings.Contains(name, p) {
			return p, strings.Replace(name, p+" ", "", 1)
		}
	}
	return PrefixUnknown, name
}
