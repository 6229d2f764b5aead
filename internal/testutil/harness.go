package testutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/rigbuild/internal/app"
	"github.com/vk/rigbuild/internal/inmemorystore"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	Output    string
	LogOutput string
	Err       error
	App       *app.App
}

// WriteManifests writes files (relative path to content) into a fresh
// temporary directory and returns its path.
func WriteManifests(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

// RunIntegrationTest writes files to a temp dir and runs one build over
// it with cfg. Paths in cfg are replaced by the temp dir. A nil host gets
// a fresh one.
func RunIntegrationTest(t *testing.T, files map[string]string, cfg app.Config, host *inmemorystore.Store) *HarnessResult {
	t.Helper()
	return RunIntegrationTestWithContext(context.Background(), t, files, cfg, host)
}

// RunIntegrationTestWithContext is RunIntegrationTest with a caller
// provided context.
func RunIntegrationTestWithContext(ctx context.Context, t *testing.T, files map[string]string, cfg app.Config, host *inmemorystore.Store) *HarnessResult {
	t.Helper()

	cfg.Paths = []string{WriteManifests(t, files)}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "debug"
	}
	config, err := app.NewConfig(cfg)
	require.NoError(t, err)

	if host == nil {
		host = inmemorystore.New()
	}
	out, logs := &SafeBuffer{}, &SafeBuffer{}
	a := app.NewApp(out, config, app.WithHost(host), app.WithLogWriter(logs))
	runErr := a.Run(ctx)

	t.Cleanup(func() {
		if os.Getenv("RIGBUILD_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
		}
	})

	return &HarnessResult{
		Output:    out.String(),
		LogOutput: logs.String(),
		Err:       runErr,
		App:       a,
	}
}
