// Package config loads backlog settings from TOML.
//
// Load fills a Default config from the file, expands ~ in paths, applies
// environment fallbacks such as OPENROUTER_API_KEY and validates the result.
// Validate covers structural checks; ValidateForRun adds what an enrichment
// run needs (an input catalog and an API key).
package config
