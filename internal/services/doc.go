// Package services defines shared error markers for the external lookup and
// classification integrations.
//
// Transports tag failures with one of the exported sentinel errors through
// Wrap so callers can tell a transient outage from a misconfiguration or an
// unusable response without parsing messages. Enrichment never aborts on
// these errors; the markers decide how a failure is logged.
package services
