// Package config provides configuration structures and utilities for pagescore.
// It defines the analyzer, connectivity, storage and scheduling options of a
// run, the YAML configuration file, and the XDG directories used by default.
package config
