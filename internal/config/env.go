package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Environment variables that override settings files.
const (
	EnvModel          = "AGENT_MODEL"
	EnvMaxTurns       = "AGENT_MAX_TURNS"
	EnvMaxBudgetUSD   = "AGENT_MAX_BUDGET_USD"
	EnvPermissionMode = "AGENT_PERMISSION_MODE"
	EnvLogLevel       = "AGENT_LOG_LEVEL"
	EnvStoreDir       = "AGENT_STORE_DIR"
)

// ApplyEnv overrides s with any AGENT_* variables set in the environment.
// Malformed numbers are reported and leave the field unchanged.
func ApplyEnv(s *Settings) error {
	return applyEnv(s, os.LookupEnv)
}

func applyEnv(s *Settings, lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get(EnvModel); ok {
		s.Model = v
	}
	if v, ok := get(EnvPermissionMode); ok {
		s.PermissionMode = v
	}
	if v, ok := get(EnvLogLevel); ok {
		s.LogLevel = v
	}
	if v, ok := get(EnvStoreDir); ok {
		s.StoreDir = v
	}
	if v, ok := get(EnvMaxTurns); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fmt.Errorf("%s: invalid value %q", EnvMaxTurns, v)
		}
		s.MaxTurns = n
	}
	if v, ok := get(EnvMaxBudgetUSD); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("%s: invalid value %q", EnvMaxBudgetUSD, v)
		}
		s.MaxBudgetUSD = f
	}
	return nil
}
