// Package config loads the optional YAML tunables file accepted by both
// CLIs, following the pattern in tinyrange-cc's site_config.go: an
// absent, unreadable, or malformed file is not fatal — it just falls back
// to the built-in defaults, logged rather than aborting startup.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nimmisuri/custom-transport-protocol/internal/diag"
	"github.com/nimmisuri/custom-transport-protocol/internal/sender"
)

// File is the on-disk shape of the tunables file. Every field is optional;
// an absent field keeps the built-in default.
type File struct {
	DataSize                *int     `yaml:"data_size"`
	InitialRTOSeconds       *float64 `yaml:"initial_rto_seconds"`
	MinRTOSeconds           *float64 `yaml:"min_rto_seconds"`
	InitialSSThresh         *float64 `yaml:"initial_ssthresh"`
	HandshakeTimeoutSeconds *float64 `yaml:"handshake_timeout_seconds"`
	IdleTimeoutSeconds      *float64 `yaml:"idle_timeout_seconds"`
}

// Resolved bundles the engine tunables plus the receiver's idle timeout,
// which has no home in sender.Tunables.
type Resolved struct {
	Tunables    sender.Tunables
	IdleTimeout time.Duration
}

// DefaultIdleTimeout is the receiver's fatal idle window.
const DefaultIdleTimeout = 30 * time.Second

// Load reads path, if non-empty, and overlays it onto the built-in
// defaults. A missing path, a missing file, or a parse failure all fall
// back to defaults unmodified; only the latter is logged as an error.
func Load(path string, sink *diag.Sink) Resolved {
	resolved := Resolved{
		Tunables:    sender.DefaultTunables(),
		IdleTimeout: DefaultIdleTimeout,
	}
	if path == "" {
		return resolved
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			sink.Error("config: " + err.Error())
		}
		return resolved
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		sink.Error("config: malformed file, using defaults: " + err.Error())
		return resolved
	}

	if f.DataSize != nil {
		resolved.Tunables.DataSize = *f.DataSize
	}
	if f.InitialRTOSeconds != nil {
		resolved.Tunables.InitialRTO = secondsToDuration(*f.InitialRTOSeconds)
	}
	if f.MinRTOSeconds != nil {
		resolved.Tunables.MinRTO = secondsToDuration(*f.MinRTOSeconds)
	}
	if f.InitialSSThresh != nil {
		resolved.Tunables.InitialSSThresh = *f.InitialSSThresh
	}
	if f.HandshakeTimeoutSeconds != nil {
		resolved.Tunables.HandshakeTimeout = secondsToDuration(*f.HandshakeTimeoutSeconds)
	}
	if f.IdleTimeoutSeconds != nil {
		resolved.IdleTimeout = secondsToDuration(*f.IdleTimeoutSeconds)
	}
	return resolved
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
