package enrich

import "errors"

var (
	// ErrFatalIO means the catalog could not be read. No external call has
	// been made when it is returned.
	ErrFatalIO = errors.New("catalog could not be loaded")
	// ErrSave means enrichment finished but the output could not be written.
	// The lookup cache already holds every accepted result.
	ErrSave = errors.New("enriched catalog could not be saved")
)
