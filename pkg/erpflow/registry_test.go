package erpflow_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finchline/erpflow/pkg/erpflow"
)

func noopHandler() erpflow.Handler {
	return erpflow.HandlerFunc(func(context.Context, *erpflow.Run) error { return nil })
}

func TestRegistryRegisterAndLookup(t *testing.T) {
	r := erpflow.NewRegistry()

	require.NoError(t, r.Register("invoice/generated", noopHandler()))

	h, ok := r.Lookup("invoice/generated")
	assert.True(t, ok)
	assert.NotNil(t, h)

	_, ok = r.Lookup("invoice/unknown")
	assert.False(t, ok)
	assert.True(t, r.Has("invoice/generated"))
	assert.False(t, r.Has("invoice/unknown"))
}

func TestRegistryRejectsSecondHandler(t *testing.T) {
	r := erpflow.NewRegistry()

	require.NoError(t, r.Register("client/created", noopHandler()))

	err := r.Register("client/created", noopHandler())
	assert.ErrorIs(t, err, erpflow.ErrAlreadyRegistered)

	// The first binding survives.
	_, ok := r.Lookup("client/created")
	assert.True(t, ok)
}

func TestRegistryRejectsEmptyNameAndNilHandler(t *testing.T) {
	r := erpflow.NewRegistry()

	assert.Error(t, r.Register("", noopHandler()))
	assert.Error(t, r.Register("client/created", nil))
}

func TestRegistryNamesSorted(t *testing.T) {
	r := erpflow.NewRegistry()

	require.NoError(t, r.Register("system/backup.daily", noopHandler()))
	require.NoError(t, r.Register("client/created", noopHandler()))
	require.NoError(t, r.Register("invoice/generated", noopHandler()))

	assert.Equal(t, []string{
		"client/created",
		"invoice/generated",
		"system/backup.daily",
	}, r.Names())
}
