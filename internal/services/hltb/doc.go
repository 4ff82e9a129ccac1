// Package hltb is a small client for the HowLongToBeat search endpoint.
//
// Search posts the title's search terms to "{base_url}/api/search" and
// returns every result as a Candidate, in response order, with the name
// similarity already computed against the query. Durations arrive in seconds
// and are converted to hours; zero values from the service mean "no data" and
// are reported as such.
//
// The client never retries. Failures are tagged with the services error
// markers so callers can log a useful hint and move on.
package hltb
