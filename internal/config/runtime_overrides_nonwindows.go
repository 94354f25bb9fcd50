//go:build !windows

package config

func applyOSOverrides(_ *Config) {}
