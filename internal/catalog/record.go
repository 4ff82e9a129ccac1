package catalog

import "strings"

// Unknown marks a field that is expected but has no value yet.
const Unknown = "Unknown"

// Canonical column headers, in output order.
const (
	ColumnGame       = "Game"
	ColumnPlatform   = "Platform"
	ColumnYear       = "Year"
	ColumnGenre      = "Genre"
	ColumnGameID     = "Game Id"
	ColumnTimeToBeat = "Time to Beat"
	ColumnScore      = "Score"
	ColumnStatus     = "Status"
)

// Columns lists the canonical header row.
var Columns = []string{
	ColumnGame,
	ColumnPlatform,
	ColumnYear,
	ColumnGenre,
	ColumnGameID,
	ColumnTimeToBeat,
	ColumnScore,
	ColumnStatus,
}

// Record is one catalog row.
type Record struct {
	Name          string
	Platform      string
	Year          string
	Genre         string
	ExternalID    string
	DurationHours string
	Score         string
	Status        string
}

// Key is the composite identity of a record within a catalog.
type Key struct {
	Name     string
	Platform string
}

// KeyOf returns the composite identity key for rec.
func KeyOf(rec Record) Key {
	return Key{
		Name:     NameKey(rec.Name),
		Platform: strings.ToLower(strings.TrimSpace(rec.Platform)),
	}
}

// NameKey returns the platform-independent key used by the lookup cache.
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// IsKnown reports whether value holds something other than the sentinel.
func IsKnown(value string) bool {
	return NormalizeField(value) != Unknown
}

// NeedsGenre reports whether the genre still has to be classified.
func (r Record) NeedsGenre() bool {
	return !IsKnown(r.Genre)
}

// NeedsLookup reports whether any field resolved by the duration lookup is missing.
func (r Record) NeedsLookup() bool {
	return !IsKnown(r.Year) || !IsKnown(r.ExternalID) || !IsKnown(r.DurationHours) || !IsKnown(r.Score)
}

// NeedsEnrichment reports whether any enrichable field is missing.
func (r Record) NeedsEnrichment() bool {
	return r.NeedsGenre() || r.NeedsLookup()
}

// MissingFields returns the column names of the enrichable fields still unknown.
func (r Record) MissingFields() []string {
	var missing []string
	if !IsKnown(r.Year) {
		missing = append(missing, ColumnYear)
	}
	if !IsKnown(r.Genre) {
		missing = append(missing, ColumnGenre)
	}
	if !IsKnown(r.ExternalID) {
		missing = append(missing, ColumnGameID)
	}
	if !IsKnown(r.DurationHours) {
		missing = append(missing, ColumnTimeToBeat)
	}
	if !IsKnown(r.Score) {
		missing = append(missing, ColumnScore)
	}
	return missing
}

func (r Record) row() []string {
	return []string{r.Name, r.Platform, r.Year, r.Genre, r.ExternalID, r.DurationHours, r.Score, r.Status}
}
