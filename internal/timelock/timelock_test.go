package timelock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swapcore/swapcore/internal/cryptoutil"
)

func sourceParams() cryptoutil.LogNormalParams {
	return cryptoutil.LogNormalParams{Min: 1800, Median: 5400, Max: 14400, Sigma: 0.45, Granularity: 900}
}

func destParams() cryptoutil.LogNormalParams {
	return cryptoutil.LogNormalParams{Min: 900, Median: 2700, Max: 5400, Sigma: 0.35, Granularity: 900}
}

func TestNew_RejectsInvalidSourceParams(t *testing.T) {
	_, err := New(cryptoutil.LogNormalParams{Sigma: 0}, destParams(), 1800*time.Second)
	assert.Error(t, err)
}

func TestNew_RejectsInvalidDestParams(t *testing.T) {
	_, err := New(sourceParams(), cryptoutil.LogNormalParams{Sigma: 0}, 1800*time.Second)
	assert.Error(t, err)
}

func TestNew_RejectsNonPositiveBuffer(t *testing.T) {
	_, err := New(sourceParams(), destParams(), 0)
	assert.Error(t, err)
}

func TestGenerate_DestBeforeSourceWithBuffer(t *testing.T) {
	buffer := 1800 * time.Second
	gen, err := New(sourceParams(), destParams(), buffer)
	require.NoError(t, err)

	now := time.Unix(1_700_000_000, 0)
	for i := 0; i < 200; i++ {
		pair, err := gen.Generate(now)
		require.NoError(t, err)
		assert.True(t, pair.Dest.Before(pair.Source), "dest timelock must expire strictly before source")
		assert.True(t, pair.Dest.After(now), "dest timelock must leave margin after now")
		assert.GreaterOrEqual(t, pair.Source.Sub(pair.Dest), buffer, "source must leave at least the buffer after dest")
	}
}

func TestGenerate_OffsetsVaryAcrossCalls(t *testing.T) {
	gen, err := New(sourceParams(), destParams(), 1800*time.Second)
	require.NoError(t, err)

	now := time.Unix(1_700_000_000, 0)
	sourceOffsets := map[time.Duration]bool{}
	destOffsets := map[time.Duration]bool{}
	for i := 0; i < 100; i++ {
		pair, err := gen.Generate(now)
		require.NoError(t, err)
		sourceOffsets[pair.Source.Sub(now)] = true
		destOffsets[pair.Dest.Sub(now)] = true
	}
	assert.Greater(t, len(sourceOffsets), 1, "the source offset must not be a fixed, fingerprintable value")
	assert.Greater(t, len(destOffsets), 1, "the dest offset must not be a fixed, fingerprintable value")
}

func TestGenerate_OffsetsAreQuantizedToGranularity(t *testing.T) {
	gen, err := New(sourceParams(), destParams(), 1800*time.Second)
	require.NoError(t, err)

	now := time.Unix(1_700_000_000, 0)
	for i := 0; i < 50; i++ {
		pair, err := gen.Generate(now)
		require.NoError(t, err)
		assert.Equal(t, int64(0), int64(pair.Dest.Sub(now).Seconds())%900)
	}
}

func TestMixingDelay_Positive(t *testing.T) {
	gen, err := New(sourceParams(), destParams(), 1800*time.Second)
	require.NoError(t, err)

	d, err := gen.MixingDelay()
	require.NoError(t, err)
	assert.Greater(t, d, time.Duration(0))
}
