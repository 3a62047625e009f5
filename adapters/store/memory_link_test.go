package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amoria-labs/walletauth/core"
)

func Test_MemoryLinkStore_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryLinkStore()

	_, found, err := s.FindByAddress(ctx, testAddress)
	require.NoError(t, err)
	assert.False(t, found)

	created, err := s.Create(ctx, core.WalletLink{
		Address:  testAddress,
		OwnerID:  "user-1",
		LinkedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.True(t, created.IsPrimary, "first link for an owner is primary")

	got, found, err := s.FindByAddress(ctx, testAddress)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, created, got)
}

func Test_MemoryLinkStore_UniqueAddress(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryLinkStore()

	_, err := s.Create(ctx, core.WalletLink{Address: testAddress, OwnerID: "user-1"})
	require.NoError(t, err)

	// Same address, different owner: rejected.
	_, err = s.Create(ctx, core.WalletLink{Address: testAddress, OwnerID: "user-2"})
	require.ErrorIs(t, err, core.ErrWalletAlreadyLinked)

	// Same owner too: an address cannot be linked twice at all.
	_, err = s.Create(ctx, core.WalletLink{Address: testAddress, OwnerID: "user-1"})
	require.ErrorIs(t, err, core.ErrWalletAlreadyLinked)
}

func Test_MemoryLinkStore_OnlyFirstLinkIsPrimary(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryLinkStore()

	first, err := s.Create(ctx, core.WalletLink{Address: testAddress, OwnerID: "user-1"})
	require.NoError(t, err)
	assert.True(t, first.IsPrimary)

	second, err := s.Create(ctx, core.WalletLink{Address: "0x00000000219ab540356cBB839Cbe05303d7705Fa", OwnerID: "user-1"})
	require.NoError(t, err)
	assert.False(t, second.IsPrimary)

	// A fresh owner starts its own primary.
	other, err := s.Create(ctx, core.WalletLink{Address: "0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045", OwnerID: "user-2"})
	require.NoError(t, err)
	assert.True(t, other.IsPrimary)
}

func Test_MemoryLinkStore_ConcurrentCreateOnePrimary(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryLinkStore()

	addresses := []string{
		testAddress,
		"0x00000000219ab540356cBB839Cbe05303d7705Fa",
		"0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045",
		"0x742d35Cc6634C0532925a3b844Bc454e4438f44e",
	}

	var wg sync.WaitGroup
	results := make(chan core.WalletLink, len(addresses))
	for _, addr := range addresses {
		wg.Add(1)
		go func(addr string) {
			defer wg.Done()
			link, err := s.Create(ctx, core.WalletLink{Address: addr, OwnerID: "user-1", LinkedAt: time.Now()})
			if err == nil {
				results <- link
			}
		}(addr)
	}
	wg.Wait()
	close(results)

	primaries := 0
	total := 0
	for link := range results {
		total++
		if link.IsPrimary {
			primaries++
		}
	}
	require.Equal(t, len(addresses), total)
	assert.Equal(t, 1, primaries, "exactly one primary link per owner")
}
