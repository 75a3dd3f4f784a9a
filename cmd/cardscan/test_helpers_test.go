package main

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cardscan/internal/testsupport"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	dataDir    string
	cardPath   string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("CARDSCAN_DATA_DIR", "")
	t.Setenv("CARDSCAN_LOG_LEVEL", "")

	env := &cliTestEnv{
		baseDir:    base,
		configPath: filepath.Join(base, "cardscan.toml"),
		dataDir:    filepath.Join(base, "data"),
		cardPath:   filepath.Join(base, "card.png"),
	}
	content := fmt.Sprintf("[paths]\ndata_dir = %q\n\n[logging]\nlevel = \"error\"\n", env.dataDir)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	testsupport.WriteImage(t, env.cardPath, testsupport.CardImage(600, 840,
		image.Rect(60, 84, 540, 756),
		image.Rect(108, 151, 492, 689)))
	return env
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
