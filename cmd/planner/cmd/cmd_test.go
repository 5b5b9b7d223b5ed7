package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/planner/config"
	"github.com/rustyeddy/planner/internal/metrics"
	"github.com/rustyeddy/planner/risk"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "planner version "+version)
}

func TestConfigInitAndValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "planner.yaml")

	out, err := execute(t, "config", "init", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Created default configuration")

	out, err = execute(t, "config", "validate", "-f", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration valid")
	assert.Contains(t, out, "Tier medium")
	assert.Contains(t, out, "Model: forest (100 trees, depth 10)")

	_, err = execute(t, "config", "validate", "-f", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestRecommendCommand_JSON(t *testing.T) {
	out, err := execute(t, "recommend",
		"--goal", "buy a house", "--asset", "150000", "--income", "12000", "--age", "30",
		"--json", "--seed", "3", "--trials", "200", "--analytic")
	require.NoError(t, err)

	var b struct {
		RecommendedRisk string                     `json:"recommended_risk"`
		Recommendations map[string]json.RawMessage `json:"recommendations"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &b))
	assert.Equal(t, "medium", b.RecommendedRisk)
	assert.NotContains(t, out, `"id"`)
	assert.Len(t, b.Recommendations, 3)
}

func TestRecommendCommand_Text(t *testing.T) {
	out, err := execute(t, "recommend",
		"--goal", "car", "--asset", "400000", "--income", "8000", "--age", "0",
		"--json=false", "--seed", "3", "--trials", "200", "--analytic")
	require.NoError(t, err)
	assert.Contains(t, out, "Plan Recommendation")
	assert.Contains(t, out, "Months:        0")
}

func TestRecommendCommand_InvalidProfile(t *testing.T) {
	_, err := execute(t, "recommend",
		"--goal", "house", "--asset=-5", "--income", "8000", "--age", "0",
		"--json=false", "--seed", "3", "--trials", "200", "--analytic")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "currentAsset")
}

func TestNewLogger(t *testing.T) {
	log, err := newLogger(config.LogConfig{Level: "debug", Format: "text"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)

	log, err = newLogger(config.LogConfig{Format: "json"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)

	_, err = newLogger(config.LogConfig{Level: "chatty"}, io.Discard)
	assert.Error(t, err)
}

func TestBuildScorer(t *testing.T) {
	log, _ := newLogger(config.LogConfig{}, io.Discard)

	cfg := config.Default()
	cfg.Model.Enabled = false
	assert.Equal(t, "geometric", buildScorer(context.Background(), cfg, log, nil).Name())

	cfg = config.Default()
	cfg.Model.Forest = risk.ForestConfig{Estimators: 5, MaxDepth: 4, MinSamplesSplit: 5, Samples: 300, Seed: 1}
	s := buildScorer(context.Background(), cfg, log, metrics.New())
	assert.Equal(t, "forest", s.Name())
	_, ok := s.(*risk.Fallback)
	assert.True(t, ok)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Equal(t, "geometric", buildScorer(ctx, cfg, log, nil).Name())
}
