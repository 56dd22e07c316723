// Package config loads gdsmerge settings from embedded defaults, the user
// config file, an explicit config file, the environment and command-line
// overrides, in that order.
package config
