package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	agent "github.com/armatrix/claude-agent-runtime"
	"github.com/armatrix/claude-agent-runtime/internal/config"
	"github.com/armatrix/claude-agent-runtime/internal/logging"
	"github.com/armatrix/claude-agent-runtime/session"
	"github.com/armatrix/claude-agent-runtime/tools"
)

// runtime bundles what the commands share.
type runtime struct {
	agent *agent.Agent
	log   zerolog.Logger
}

// newRuntime loads settings, configures logging and builds the agent with
// the built-in tools registered.
func newRuntime() (*runtime, error) {
	dir := projectDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		dir = wd
	}

	paths := config.DefaultSettingsPaths(dir)
	settings, err := config.LoadSettings(paths...)
	if err != nil {
		return nil, err
	}
	if err := config.ApplyEnv(settings); err != nil {
		return nil, err
	}

	level := settings.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.ParseLevel(level)
	logCfg.Pretty = prettyLogs
	log := logging.Init(logCfg)

	root := settings.StoreDir
	if storeDir != "" {
		root = storeDir
	}

	opts := []agent.AgentOption{
		agent.WithSettingsFiles(paths...),
		agent.WithLogger(log),
	}

	if root != "" {
		store, err := session.NewFileStore(filepath.Join(root, "sessions"))
		if err != nil {
			return nil, fmt.Errorf("open session store: %w", err)
		}
		opts = append(opts,
			agent.WithSessionStore(store),
			agent.WithStorageRoot(filepath.Join(root, "files")),
		)
		log.Info().Str("dir", root).Msg("using file session store")
	} else {
		tmp, err := os.MkdirTemp("", "agentd-files-")
		if err != nil {
			return nil, err
		}
		opts = append(opts,
			agent.WithSessionStore(session.NewMemoryStore()),
			agent.WithStorageRoot(tmp),
		)
		log.Info().Str("files", tmp).Msg("using in-memory session store")
	}

	a := agent.NewAgent(opts...)
	tools.RegisterDefaults(a.Tools(), tools.Options{})

	return &runtime{agent: a, log: log}, nil
}
