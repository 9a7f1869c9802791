// Package config loads, normalizes, and validates Brand Guardian configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// AZURE_VI_ACCOUNT_ID, AZURE_SEARCH_API_KEY, and HUGGINGFACEHUB_API_TOKEN.
// Validation is presence-based for the credentials of the selected backends
// and runs before any audit is attempted.
package config
