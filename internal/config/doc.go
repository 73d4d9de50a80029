// Package config loads, normalizes, and validates sleeperrecap configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// OPENAI_API_KEY, PERPLEXITY_API_KEY, and SLEEPER_LEAGUE_ID. The step mapping
// routes each model-backed pipeline step to an ordered list of provider/model
// attempts.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, parsed step targets, and clear validation errors.
package config
