package a2a

import (
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kagent-dev/kagent-bridge/pkg/adk/config"
	"github.com/kagent-dev/kagent-bridge/pkg/adk/executor"
)

func TestNewExecutorConfig(t *testing.T) {
	runnerCfg := &config.RunnerConfig{}

	t.Run("defaults", func(t *testing.T) {
		t.Setenv(SkillsFolderEnvVar, "")

		cfg := NewExecutorConfig(runnerCfg, nil, false, "my-app", logr.Discard())

		assert.Equal(t, "my-app", cfg.AppName)
		assert.Equal(t, DefaultSkillsDir, cfg.SkillsDirectory)
		assert.Empty(t, cfg.RunMode)
		require.NotNil(t, cfg.BeforeExecution)
		require.NotNil(t, cfg.AfterExecution)
		require.NotNil(t, cfg.ConvertPartToA2A)
		require.NotNil(t, cfg.ConvertA2APartToPart)
		assert.NotNil(t, cfg.PathManager)
	})

	t.Run("skills folder from environment", func(t *testing.T) {
		t.Setenv(SkillsFolderEnvVar, "/opt/skills")

		cfg := NewExecutorConfig(runnerCfg, nil, false, "my-app", logr.Discard())
		assert.Equal(t, "/opt/skills", cfg.SkillsDirectory)
	})

	t.Run("streaming selects sse mode", func(t *testing.T) {
		cfg := NewExecutorConfig(runnerCfg, nil, true, "my-app", logr.Discard())
		assert.Equal(t, executor.RunModeSSE, cfg.RunMode)
	})
}
