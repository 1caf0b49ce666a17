package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryCache()
	c.now = func() time.Time { return now }

	type value struct {
		Skills []string `json:"skills"`
	}

	var got value
	hit, err := c.GetJSON(ctx, SettingsKey("u1"), &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.SetJSON(ctx, SettingsKey("u1"), value{Skills: []string{"Go"}}, time.Minute))
	hit, err = c.GetJSON(ctx, "interviewSettings:u1", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"Go"}, got.Skills)

	now = now.Add(time.Minute)
	hit, _ = c.GetJSON(ctx, SettingsKey("u1"), &got)
	assert.False(t, hit)

	require.NoError(t, c.SetJSON(ctx, "k", 1, 0))
	require.NoError(t, c.Del(ctx, "k"))
	var n int
	hit, _ = c.GetJSON(ctx, "k", &n)
	assert.False(t, hit)
}
