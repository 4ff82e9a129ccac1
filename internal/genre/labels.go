package genre

import (
	"strings"

	"golang.org/x/text/cases"
)

// Labels is the allowed genre vocabulary with case-insensitive lookup.
type Labels struct {
	list  []string
	byKey map[string]string
}

// NewLabels builds a vocabulary from allowed, dropping blanks and duplicates.
// The first spelling of each label is kept as canonical.
func NewLabels(allowed []string) *Labels {
	l := &Labels{byKey: make(map[string]string, len(allowed))}
	for _, label := range allowed {
		label = collapseSpaces(label)
		if label == "" {
			continue
		}
		key := foldKey(label)
		if _, exists := l.byKey[key]; exists {
			continue
		}
		l.byKey[key] = label
		l.list = append(l.list, label)
	}
	return l
}

// Canonical maps label onto its canonical spelling.
func (l *Labels) Canonical(label string) (string, bool) {
	if l == nil {
		return "", false
	}
	canonical, ok := l.byKey[foldKey(collapseSpaces(label))]
	return canonical, ok
}

// List returns the labels in configured order.
func (l *Labels) List() []string {
	if l == nil {
		return nil
	}
	out := make([]string, len(l.list))
	copy(out, l.list)
	return out
}

// Len returns the number of labels.
func (l *Labels) Len() int {
	if l == nil {
		return 0
	}
	return len(l.list)
}

func foldKey(label string) string {
	return cases.Fold().String(label)
}

func collapseSpaces(value string) string {
	return strings.Join(strings.Fields(value), " ")
}
