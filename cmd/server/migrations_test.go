package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scheduler-platform/scheduler-api/internal/platform/logger"
)

func TestSlogGooseLogger(t *testing.T) {
	t.Parallel()
	log, buf := logger.NewTestLogger(t)
	gl := &slogGooseLogger{logger: log}

	gl.Printf("applied %d migrations", 3)
	gl.Fatalf("failed at version %d", 4)

	entries, err := buf.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "INFO", entries[0]["level"])
	assert.Equal(t, "applied 3 migrations", entries[0]["msg"])
	assert.Equal(t, "ERROR", entries[1]["level"])
	assert.Equal(t, "failed at version 4", entries[1]["msg"])
}

func TestRunMigrations_UnknownCommand(t *testing.T) {
	log, _ := logger.NewTestLogger(t)

	err := runMigrations(context.Background(), nil, "redo", log)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "redo")
}
