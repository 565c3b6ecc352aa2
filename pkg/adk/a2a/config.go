package a2a

import (
	"os"
	"path/filepath"

	"github.com/go-logr/logr"

	"github.com/kagent-dev/kagent-bridge/pkg/adk/config"
	"github.com/kagent-dev/kagent-bridge/pkg/adk/converters"
	"github.com/kagent-dev/kagent-bridge/pkg/adk/executor"
	"github.com/kagent-dev/kagent-bridge/pkg/adk/session"
)

// SkillsFolderEnvVar selects the skills directory linked into each session.
const SkillsFolderEnvVar = "KAGENT_SKILLS_FOLDER"

// DefaultSkillsDir is used when SkillsFolderEnvVar is unset.
var DefaultSkillsDir = filepath.Join(session.DefaultBasePath, "skills")

// NewExecutorConfig assembles the executor configuration: it resolves the
// skills directory, selects the run mode, and binds the lifecycle hooks and
// part converters. Pure wiring, no state of its own.
func NewExecutorConfig(
	runnerCfg *config.RunnerConfig,
	sessionService session.Service,
	streaming bool,
	appName string,
	logger logr.Logger,
) *executor.Config {
	skillsDir := os.Getenv(SkillsFolderEnvVar)
	if skillsDir == "" {
		skillsDir = DefaultSkillsDir
	}

	pathManager := session.NewPathManager("")
	callbacks := NewExecutionCallbacks(appName, sessionService, pathManager, skillsDir, logger)
	bridge := converters.NewBridgeConverter()

	cfg := &executor.Config{
		AppName:         appName,
		SkillsDirectory: skillsDir,
		RunnerConfig:    runnerCfg,
		SessionService:  sessionService,
		PathManager:     pathManager,
		Logger:          logger,

		BeforeExecution:      callbacks.BeforeExecution,
		AfterExecution:       callbacks.AfterExecution,
		ConvertPartToA2A:     bridge.ConvertPartToA2A,
		ConvertA2APartToPart: bridge.ConvertA2APartToPart,
	}
	if streaming {
		cfg.RunMode = executor.RunModeSSE
	}
	return cfg
}
