package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunServe_StopsOnCancel(t *testing.T) {
	cfg := defaultServeConfig()
	cfg.ListenAddr = "127.0.0.1:0"
	cfg.LogLevel = "error"
	cfg.StatsBackend = statsMemory
	cfg.SnapshotPath = filepath.Join(t.TempDir(), "frame.png")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runServe(ctx, cfg) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("serve did not stop")
	}
}

func TestRunServe_ListenFailure(t *testing.T) {
	cfg := defaultServeConfig()
	cfg.ListenAddr = "256.0.0.1:0"
	cfg.LogLevel = "error"

	err := runServe(context.Background(), cfg)
	require.Error(t, err)
}

func TestLoadFrame(t *testing.T) {
	_, err := loadFrame(filepath.Join(t.TempDir(), "missing.png"), 240, 240)
	assert.Error(t, err)
}
