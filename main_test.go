package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samuelfneumann/autolearn/config"
	h "github.com/samuelfneumann/autolearn/hyperparam"
)

func execute(t *testing.T, args ...string) []byte {
	t.Helper()
	t.Cleanup(func() { configPath = "" })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.Bytes()
}

func TestSchemaCommand(t *testing.T) {
	out := execute(t, "schema", "--variant", "actor-critic-discrete",
		"--env", "Cartpole")

	params := h.NewSet()
	require.NoError(t, json.Unmarshal(out, params))

	flat, err := params.Flatten()
	require.NoError(t, err)
	for _, key := range []string{"actor_class", "actor_lr", "critic_class",
		"critic_lr", "n_epochs"} {
		assert.Contains(t, flat, key)
	}
	assert.NotContains(t, flat, "lr")
}

func TestRunCommand(t *testing.T) {
	t.Setenv(config.RunIDEnv, "")
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
variant: policy-gradient
seed: 3
run_id: cli-run
environment:
  environment: Pendulum
  task: SwingUp
  continuous_actions: true
  episode_cutoff: 10
  discount: 0.99
hyperparameters:
  n_epochs: 1
  n_episodes: 10
  n_episodes_per_fit: 5
evaluation:
  episodes: 2
  workers: 1
tracker:
  disabled: true
`), 0o644))

	out := execute(t, "run", "--config", path)

	var res struct {
		RunID     string `json:"run_id"`
		Variant   string `json:"variant"`
		Cancelled bool   `json:"cancelled"`
		History   []struct {
			Step int `json:"step"`
		} `json:"history"`
	}
	require.NoError(t, json.Unmarshal(out, &res))
	assert.Equal(t, "cli-run", res.RunID)
	assert.Equal(t, "policy-gradient", res.Variant)
	assert.False(t, res.Cancelled)
	require.Len(t, res.History, 2)
	assert.Equal(t, 0, res.History[0].Step)
	assert.Equal(t, 100, res.History[1].Step)
}
