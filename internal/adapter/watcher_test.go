package adapter

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	m "afluent.dev/pkg/afluent/internal/model"
)

func TestFSNotifyWatcher(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "report.json")
	writeTestFile(t, target, "{}")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	changes := make(chan struct{}, 4)
	done := make(chan error, 1)

	go func() {
		done <- NewFSNotifyWatcher(20*time.Millisecond).Watch(ctx, m.Path(target), func() error {
			changes <- struct{}{}
			return nil
		})
	}()

	// give the watcher time to register before writing
	time.Sleep(200 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0o600))
	require.NoError(t, os.WriteFile(target, []byte(`{"a": {}}`), 0o600))

	select {
	case <-changes:
	case <-ctx.Done():
		t.Fatal("no change reported")
	}

	cancel()
	require.NoError(t, <-done)
}
