package lookupcache

import (
	"bytes"
	"encoding/json"
	"fmt"

	"backlog/internal/catalog"
)

// Entry holds the cached fields for one game name. Empty and Unknown fields
// are treated as absent.
type Entry struct {
	Genre         string
	ExternalID    string
	Year          string
	DurationHours string
	Score         string
}

// HasMatch reports whether the entry records an accepted duration lookup.
// Such entries short-circuit the lookup service on later runs.
func (e Entry) HasMatch() bool {
	return catalog.IsKnown(e.ExternalID) && catalog.IsKnown(e.Year)
}

// IsEmpty reports whether no field is known.
func (e Entry) IsEmpty() bool {
	return !catalog.IsKnown(e.Genre) &&
		!catalog.IsKnown(e.ExternalID) &&
		!catalog.IsKnown(e.Year) &&
		!catalog.IsKnown(e.DurationHours) &&
		!catalog.IsKnown(e.Score)
}

// merge overlays the known fields of update onto e.
func (e Entry) merge(update Entry) Entry {
	if catalog.IsKnown(update.Genre) {
		e.Genre = update.Genre
	}
	if catalog.IsKnown(update.ExternalID) {
		e.ExternalID = update.ExternalID
	}
	if catalog.IsKnown(update.Year) {
		e.Year = update.Year
	}
	if catalog.IsKnown(update.DurationHours) {
		e.DurationHours = update.DurationHours
	}
	if catalog.IsKnown(update.Score) {
		e.Score = update.Score
	}
	return e
}

func (e Entry) fields() map[string]string {
	out := make(map[string]string, 5)
	put := func(key, value string) {
		if catalog.IsKnown(value) {
			out[key] = value
		}
	}
	put(catalog.ColumnGenre, e.Genre)
	put(catalog.ColumnGameID, e.ExternalID)
	put(catalog.ColumnYear, e.Year)
	put(catalog.ColumnTimeToBeat, e.DurationHours)
	put(catalog.ColumnScore, e.Score)
	return out
}

// MarshalJSON encodes the known fields under their catalog column names.
func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.fields())
}

// UnmarshalJSON accepts string or numeric values and the legacy "Game ID" and
// "Main Story" keys. Values are normalized with the catalog rules.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var decoded Entry
	for key, value := range raw {
		text, err := scalarText(value)
		if err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
		switch key {
		case catalog.ColumnGenre:
			decoded.Genre = catalog.NormalizeField(text)
		case catalog.ColumnGameID, "Game ID":
			decoded.ExternalID = catalog.NormalizeInteger(text)
		case catalog.ColumnYear:
			decoded.Year = catalog.NormalizeInteger(text)
		case catalog.ColumnTimeToBeat, "Main Story":
			decoded.DurationHours = catalog.RoundQuarter(text)
		case catalog.ColumnScore:
			decoded.Score = catalog.NormalizeInteger(text)
		}
	}
	*e = decoded
	return nil
}

func scalarText(value json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(value)
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
		return "", nil
	case trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", err
		}
		return s, nil
	default:
		var n json.Number
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return "", fmt.Errorf("unsupported value %s", trimmed)
		}
		return n.String(), nil
	}
}
