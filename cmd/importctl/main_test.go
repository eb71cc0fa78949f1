package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appintegration "github.com/storebridge/backend/internal/application/integration"
	"github.com/storebridge/backend/internal/domain/integration"
)

func TestParseOptions(t *testing.T) {
	var stderr bytes.Buffer
	opts, err := parseOptions([]string{"-id", "3", "-publication", "gid://shopify/Publication/7", "-status", "active", "-no-publish"}, &stderr)
	require.NoError(t, err)

	assert.Equal(t, appintegration.ImportCommand{
		ProductToFetchID:         3,
		OnlineStorePublicationID: "gid://shopify/Publication/7",
		InitialStatus:            integration.ProductStatusActive,
		SkipPublish:              true,
	}, opts.command())
}

func TestParseOptions_Session(t *testing.T) {
	opts, err := parseOptions([]string{"-session"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.True(t, opts.session)
}

func TestParseOptions_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		msg  string
	}{
		{"missing id", nil, "-id must be a positive integer"},
		{"negative id", []string{"-id", "-4"}, "-id must be a positive integer"},
		{"bad status", []string{"-id", "1", "-status", "archived"}, `-status must be DRAFT or ACTIVE, got "ARCHIVED"`},
		{"extra args", []string{"-id", "1", "now"}, "unexpected arguments: now"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseOptions(tt.args, &bytes.Buffer{})
			assert.EqualError(t, err, tt.msg)
		})
	}
}

func TestRun_UsageErrors(t *testing.T) {
	var stdout, stderr bytes.Buffer

	assert.Equal(t, exitUsage, run([]string{"-id", "0"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "importctl: -id must be a positive integer")
	assert.Empty(t, stdout.String())

	stderr.Reset()
	assert.Equal(t, exitOK, run([]string{"-h"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "Usage:")
}

func TestWriteJSON(t *testing.T) {
	var stdout, stderr bytes.Buffer

	code := writeJSON(&stdout, &stderr, &appintegration.ImportResult{
		RunID: "run-1",
		State: integration.RunStateDone,
	})

	assert.Equal(t, exitOK, code)
	assert.JSONEq(t, `{"runId":"run-1","state":"DONE","publishSkipped":false,"cleanedUp":false}`, stdout.String())
}
