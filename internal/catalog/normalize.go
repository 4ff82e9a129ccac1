package catalog

import (
	"math"
	"strconv"
	"strings"
)

// missingValues are the raw spellings of "no value" seen in exported sheets.
var missingValues = map[string]struct{}{
	"":     {},
	"none": {},
	"nan":  {},
	"null": {},
}

// NormalizeField trims raw and folds every missing-value spelling, including a
// differently cased "unknown", into the Unknown sentinel.
func NormalizeField(raw string) string {
	value := strings.TrimSpace(raw)
	if _, missing := missingValues[strings.ToLower(value)]; missing {
		return Unknown
	}
	if strings.EqualFold(value, Unknown) {
		return Unknown
	}
	return value
}

// NormalizeInteger normalizes raw and folds float-formatted integers such as
// "1991.0" into their integer spelling. Other values are returned normalized
// but otherwise untouched.
func NormalizeInteger(raw string) string {
	value := NormalizeField(raw)
	if value == Unknown {
		return value
	}
	if _, err := strconv.ParseInt(value, 10, 64); err == nil {
		return value
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return value
	}
	if f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return value
	}
	return strconv.FormatInt(int64(f), 10)
}

// RoundQuarter parses raw as a number of hours and returns it rounded to the
// nearest quarter hour with two decimals. Unparseable, negative, or missing
// input yields Unknown.
func RoundQuarter(raw string) string {
	value := NormalizeField(raw)
	if value == Unknown {
		return Unknown
	}
	hours, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return Unknown
	}
	return FormatHours(hours)
}

// FormatHours renders hours in the canonical quarter-hour representation.
// Ties round half to even.
func FormatHours(hours float64) string {
	if math.IsNaN(hours) || math.IsInf(hours, 0) || hours < 0 {
		return Unknown
	}
	return strconv.FormatFloat(math.RoundToEven(hours*4)/4, 'f', 2, 64)
}

// NormalizeRecord applies the field rules to every column except Status,
// which is passed through untouched.
func NormalizeRecord(rec Record) Record {
	return Record{
		Name:          NormalizeField(rec.Name),
		Platform:      NormalizeField(rec.Platform),
		Year:          NormalizeInteger(rec.Year),
		Genre:         NormalizeField(rec.Genre),
		ExternalID:    NormalizeInteger(rec.ExternalID),
		DurationHours: RoundQuarter(rec.DurationHours),
		Score:         NormalizeInteger(rec.Score),
		Status:        rec.Status,
	}
}

// NormalizeAll normalizes records in place.
func NormalizeAll(records []Record) {
	for i := range records {
		records[i] = NormalizeRecord(records[i])
	}
}
