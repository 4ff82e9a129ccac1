package textutil

import "strings"

// searchReplacer drops trademark marks and turns separators into spaces so a
// catalog title splits into the words the search service indexes.
var searchReplacer = strings.NewReplacer(
	"™", "",
	"®", "",
	"©", "",
	":", " ",
	"/", " ",
	"\\", " ",
	"_", " ",
	"\t", " ",
)

// SearchTerms splits title into the whitespace-separated terms sent to the
// lookup service. Returns nil for a blank title.
func SearchTerms(title string) []string {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil
	}
	return strings.Fields(searchReplacer.Replace(title))
}
