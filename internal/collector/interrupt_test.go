package collector

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterrupt_SetClear(t *testing.T) {
	i := NewInterrupt()
	assert.False(t, i.IsSet())

	i.Set()
	i.Set()
	assert.True(t, i.IsSet())

	i.Clear()
	assert.False(t, i.IsSet())
	i.Clear()
	assert.False(t, i.IsSet())
}

func TestInterrupt_BindCancelsOnSet(t *testing.T) {
	i := NewInterrupt()
	ctx, cancel := i.Bind(context.Background())
	defer cancel()

	i.Set()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("bound context was not cancelled")
	}
	require.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestInterrupt_BindAfterClear(t *testing.T) {
	i := NewInterrupt()
	i.Set()
	i.Clear()

	ctx, cancel := i.Bind(context.Background())
	defer cancel()
	assert.NoError(t, ctx.Err())

	i.Set()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("bound context was not cancelled")
	}
}

func TestInterrupt_BoundWhileSet(t *testing.T) {
	i := NewInterrupt()
	i.Set()
	ctx, cancel := i.Bind(context.Background())
	defer cancel()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context bound to a raised flag should be cancelled")
	}
}
