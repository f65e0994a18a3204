package trace_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitodb/gitodb/internal/trace"
)

func TestParseTargets(t *testing.T) {
	got, err := trace.ParseTargets("store,refs")
	require.NoError(t, err)
	assert.Equal(t, trace.Store|trace.Refs, got)
}

func TestParseTargetsAll(t *testing.T) {
	got, err := trace.ParseTargets("all")
	require.NoError(t, err)
	assert.Equal(t, trace.Store|trace.Checkout|trace.Refs, got)
}

func TestParseTargetsUnknown(t *testing.T) {
	_, err := trace.ParseTargets("bogus")
	assert.Error(t, err)
}

func TestParseTargetsEmpty(t *testing.T) {
	got, err := trace.ParseTargets("")
	require.NoError(t, err)
	assert.Equal(t, trace.Target(0), got)
}

func TestTargetString(t *testing.T) {
	assert.Equal(t, "none", trace.Target(0).String())
	assert.Equal(t, "checkout,store", (trace.Store | trace.Checkout).String())
}

func TestEnabledReflectsSetTarget(t *testing.T) {
	trace.SetTarget(trace.Refs)
	defer trace.SetTarget(0)

	assert.True(t, trace.Refs.Enabled())
	assert.False(t, trace.Store.Enabled())
}
