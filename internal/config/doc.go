// Package config provides the scanner's configuration: defaults, validation,
// and the optional YAML configuration file with per-host overrides.
package config
