package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportConfigDefaultsWhenFileAbsent(t *testing.T) {
	holder, err := NewImportConfigHolder()
	require.NoError(t, err)

	cfg := holder.Current()
	assert.Equal(t, 200, cfg.SampleLines)
	assert.Equal(t, 200, cfg.ChunkSize)
	assert.Equal(t, 6, cfg.MaxWriteAttempts)
	assert.Equal(t, 200*time.Millisecond, cfg.RetryBaseDelay)
	assert.Equal(t, []string{"id", "customer_id", "customer", "name"}, cfg.IDColumns)
	assert.Equal(t, 15*time.Minute, cfg.ReclaimAfter)
	assert.Equal(t, 3, cfg.QueueMaxAttempts)
}

func TestNilHolderFallsBackToDefaults(t *testing.T) {
	var holder *ImportConfigHolder
	assert.Equal(t, DefaultImportConfig(), holder.Current())
}

func TestWithDefaultsFillsZeroFields(t *testing.T) {
	cfg := ImportConfig{ChunkSize: 50, IDColumns: []string{"ref"}}.withDefaults()

	assert.Equal(t, 50, cfg.ChunkSize)
	assert.Equal(t, []string{"ref"}, cfg.IDColumns)
	assert.Equal(t, 200, cfg.SampleLines)
	assert.Equal(t, 6, cfg.MaxWriteAttempts)
	assert.NotEmpty(t, cfg.RevenueColumns)
	assert.Equal(t, "queue", cfg.TriggerMode)
}
