package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags restores every flag to its default so state from a previous
// invocation does not leak into the next one.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCmd executes the root command with args and returns its stdout.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	cfg = nil
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runCmd(t, args...)
	if err != nil {
		t.Fatalf("command %v failed: %v\n%s", args, err, out)
	}
	return out
}

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("PULSE_LOG_LEVEL", "disabled")
	return home
}

func TestCLI_GenerateAnalyze(t *testing.T) {
	home := isolateHome(t)
	data := filepath.Join(home, "data")

	out := mustRun(t, "generate", data, "--users", "60", "--seed", "7")
	assert.Contains(t, out, "✓ Mock data generated:")
	for _, name := range []string{"users.csv", "sessions.csv", "feature_usage.csv", "feedback.csv"} {
		_, err := os.Stat(filepath.Join(data, name))
		require.NoError(t, err, name)
	}

	md := mustRun(t, "analyze", data)
	assert.Contains(t, md, "# Product Metrics & Behavioral Analysis")
	assert.Contains(t, md, "### Features Correlated with Repeat Sessions")
	assert.Contains(t, md, "| First Transaction | 1456 |")

	reportPath := filepath.Join(home, "out", "summary.md")
	jsonPath := filepath.Join(home, "out", "results.json")
	csvDir := filepath.Join(home, "out", "csv")
	out = mustRun(t, "analyze", data, "-o", reportPath, "--json", jsonPath, "--csv-dir", csvDir,
		"--retention-days", "1,14", "--sequential")
	assert.Contains(t, out, "✓ Wrote metrics summary to "+reportPath)

	written, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.Contains(t, string(written), "Retention Rate (Day 1 / 14)")

	js, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	assert.Contains(t, string(js), `"run_id"`)
	assert.Contains(t, string(js), `"results"`)

	entries, err := os.ReadDir(csvDir)
	require.NoError(t, err)
	assert.Len(t, entries, 5)
}

func TestCLI_AnalyzeIsRepeatable(t *testing.T) {
	home := isolateHome(t)
	data := filepath.Join(home, "data")
	mustRun(t, "generate", data, "--users", "30")

	strip := func(md string) string {
		// drop the generation timestamp line
		lines := strings.Split(md, "\n")
		return strings.Join(append(lines[:2:2], lines[3:]...), "\n")
	}
	first := mustRun(t, "analyze", data)
	second := mustRun(t, "analyze", data, "--sequential")
	assert.Equal(t, strip(first), strip(second))
}

func TestCLI_AnalyzeMissingTable(t *testing.T) {
	home := isolateHome(t)
	_, err := runCmd(t, "analyze", filepath.Join(home, "nowhere"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "table not found")
}

func TestCLI_FunnelFromStagesFile(t *testing.T) {
	home := isolateHome(t)
	stages := filepath.Join(home, "stages.yaml")
	require.NoError(t, os.WriteFile(stages, []byte("stages:\n  - stage: Visit\n    users: 200\n  - stage: Signup\n    users: 50\n"), 0o644))
	csvPath := filepath.Join(home, "funnel.csv")

	out := mustRun(t, "funnel", "--stages", stages, "--csv", csvPath)
	assert.Contains(t, out, "| Signup | 50 | 25.0% | 25.0% | 75.0% |")
	assert.Contains(t, out, "Largest drop: 75.0% before Signup")

	b, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Equal(t, "stage,users,overall_conversion_pct,step_conversion_pct,step_drop_pct\nVisit,200,100.0,100.0,0.0\nSignup,50,25.0,25.0,75.0\n", string(b))
}

func TestCLI_FunnelDefaultsAndBadStages(t *testing.T) {
	home := isolateHome(t)
	out := mustRun(t, "funnel")
	assert.Contains(t, out, "| Visited Landing Page | 15000 |")

	bad := filepath.Join(home, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("- stage: \"\"\n  users: 10\n"), 0o644))
	_, err := runCmd(t, "funnel", "--stages", bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is required")
}

func TestCLI_FunnelJSON(t *testing.T) {
	isolateHome(t)
	out := mustRun(t, "funnel", "--json")
	assert.Contains(t, out, `"stage": "Account Created"`)
	assert.Contains(t, out, `"step_drop": `)
}

func TestCLI_ConfigSetShow(t *testing.T) {
	home := isolateHome(t)

	mustRun(t, "config", "set", "top_features", "6")
	mustRun(t, "config", "set", "retention_days", "1, 3,30")
	_, err := os.Stat(filepath.Join(home, ".productpulse", "config.yaml"))
	require.NoError(t, err)

	out := mustRun(t, "config", "show")
	assert.Contains(t, out, "top_features: 6")
	assert.Contains(t, out, "- 3")

	_, err = runCmd(t, "config", "set", "rolling_window_days", "0")
	assert.Error(t, err)
	_, err = runCmd(t, "config", "set", "nope", "1")
	assert.ErrorContains(t, err, "unknown key")
}
