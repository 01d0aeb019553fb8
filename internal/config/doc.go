// Package config loads and merges patchguard configuration from multiple
// sources using koanf.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (PATCHGUARD_FAIL_ON, PATCHGUARD_CATEGORIES, etc.)
//  3. Config file ($XDG_CONFIG_HOME/patchguard/config.json)
//  4. Built-in defaults
//
// Use [Load] to obtain a merged [Config], [Save] to write the config file,
// and [SetField] to update a single key.
package config
