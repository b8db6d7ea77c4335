// Package config loads keyweave's runtime configuration.
//
// Settings are resolved with the usual precedence, highest first:
//
//	command line flags
//	KEYWEAVE_* environment variables (dots become underscores)
//	keyweave.toml (explicit path, user config dir, working directory)
//	built-in defaults
//
// Load returns a validated Config; Save writes one back as TOML.
package config
