// Package testsupport provides shared fixtures for package tests: a config
// rooted in a temp directory, catalog file helpers, and lookup cache setup.
package testsupport
