package alchemy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/swapcore/swapcore/internal/domain"
	"github.com/swapcore/swapcore/internal/registry"
)

func TestNewClient_RejectsMissingAPIKey(t *testing.T) {
	_, err := NewClient("", "mainnet")
	assert.Error(t, err)
}

func TestNewClient_RejectsUnknownNetwork(t *testing.T) {
	_, err := NewClient("key", "nope")
	assert.Error(t, err)
}

func TestNewClient_DefaultsEmptyNetworkToMainnet(t *testing.T) {
	c, err := NewClient("key", "")
	require.NoError(t, err)
	assert.Equal(t, networkEndpoints["mainnet"], c.baseURL)
}

func TestNewEthereumAdapter_RegistersAsAReadyEthereumAdapter(t *testing.T) {
	adapter, err := NewEthereumAdapter("test-key", "sepolia", "0xHTLC")
	require.NoError(t, err)
	assert.Equal(t, domain.ChainEthereum, adapter.Chain())

	reg := registry.New(zap.NewNop())
	reg.Register(adapter)

	caps := adapter.Capabilities()
	assert.Equal(t, domain.ChainEthereum, caps.Chain)
	assert.True(t, caps.SupportsMultiSig)
}
