// Package textutil provides the string helpers behind fuzzy title matching.
//
// The primary use cases are:
//   - Scoring how closely a search result name matches a catalog title
//   - Turning a catalog title into search terms for the lookup service
//
// Similarity is the Ratcliff/Obershelp ratio of the lowercased titles.
package textutil
