// Package config loads env-tagged structs, parsing each type once per process.
//
// The first Load for a type reads a .env file from the working directory (if
// present, and only once per process), then parses the environment into the
// struct with caarlos0/env. The result is cached by type; later calls for the
// same type copy the cached value and never see environment changes. Values
// already set in the process environment win over .env entries.
//
// The web service loads its whole tree in one call, since component configs
// (server, session, conversation, cookie) are nested fields:
//
//	var cfg web.Config
//	if err := config.Load(&cfg); err != nil {
//		return fmt.Errorf("load config: %w", err)
//	}
//
// Tests that vary the environment with t.Setenv should use a type that no
// earlier call has cached, or build the config directly.
package config
