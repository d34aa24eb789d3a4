package core

import "strings"

// SpacePrefix is the organizational prefix Confluence spaces may carry in
// front of the project name. Redmine knows the project by the bare name, so
// matching is also attempted with the prefix removed.
const SpacePrefix = "NBIS "

// diacriticReplacer folds the fixed set of Swedish characters to their
// unaccented equivalents. Characters outside the set pass through unchanged.
var diacriticReplacer = strings.NewReplacer(
	"ö", "o",
	"ä", "a",
	"å", "a",
	"Ö", "O",
	"Ä", "A",
	"Å", "A",
)

// Normalize maps a project or space name to its canonical matching key by
// replacing accented characters. Pure and total: any input yields a result.
func Normalize(name string) string {
	return diacriticReplacer.Replace(name)
}

// StripSpacePrefix removes every occurrence of the organizational prefix.
// Applied to normalized space names as a second matching attempt.
func StripSpacePrefix(name string) string {
	return strings.ReplaceAll(name, SpacePrefix, "")
}
