package state

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"yieldpool/core/types"
	"yieldpool/native/staking"
	"yieldpool/storage"
)

func testAddr(suffix byte) [20]byte {
	var addr [20]byte
	addr[len(addr)-1] = suffix
	return addr
}

func TestAccountRoundTrip(t *testing.T) {
	manager := NewManager(storage.NewMemDB())
	addr := testAddr(0x01)

	loaded, err := manager.GetAccount(addr)
	require.NoError(t, err)
	require.Nil(t, loaded, "absent account must decode as nil")

	account := &types.Account{Nonce: 7, Balance: big.NewInt(123_456)}
	require.NoError(t, manager.PutAccount(addr, account))

	loaded, err = manager.GetAccount(addr)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Equal(t, uint64(7), loaded.Nonce)
	require.Zero(t, loaded.Balance.Cmp(big.NewInt(123_456)))
}

func TestPutAccountRequiresRecord(t *testing.T) {
	manager := NewManager(storage.NewMemDB())
	require.Error(t, manager.PutAccount(testAddr(0x01), nil))
}

func TestPositionRoundTripWithoutRequest(t *testing.T) {
	manager := NewManager(storage.NewMemDB())
	owner := testAddr(0x02)

	loaded, err := manager.StakingPosition(owner)
	require.NoError(t, err)
	require.Nil(t, loaded, "absent position must decode as nil")

	pos := &staking.Position{
		Owner:           owner,
		Principal:       big.NewInt(1_000),
		VirtualBalance:  big.NewInt(1_050),
		BankedRewards:   big.NewInt(50),
		LastAccrualTick: 28_333_340,
	}
	require.NoError(t, manager.PutStakingPosition(pos))

	loaded, err = manager.StakingPosition(owner)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Equal(t, owner, loaded.Owner)
	require.Zero(t, loaded.Principal.Cmp(big.NewInt(1_000)))
	require.Zero(t, loaded.VirtualBalance.Cmp(big.NewInt(1_050)))
	require.Zero(t, loaded.BankedRewards.Cmp(big.NewInt(50)))
	require.Equal(t, uint64(28_333_340), loaded.LastAccrualTick)
	require.Nil(t, loaded.Request, "nil request must survive the round trip")
}

func TestPositionRoundTripWithRequest(t *testing.T) {
	manager := NewManager(storage.NewMemDB())
	owner := testAddr(0x03)

	pos := &staking.Position{
		Owner:          owner,
		Principal:      big.NewInt(2_000),
		VirtualBalance: big.NewInt(2_100),
		Request: &staking.WithdrawalRequest{
			RequestedAt:  1_700_000_400,
			UnlockAt:     1_700_605_200,
			LockedAmount: big.NewInt(2_100),
		},
	}
	require.NoError(t, manager.PutStakingPosition(pos))

	loaded, err := manager.StakingPosition(owner)
	require.NoError(t, err)
	require.NotNil(t, loaded.Request)
	require.Equal(t, uint64(1_700_000_400), loaded.Request.RequestedAt)
	require.Equal(t, uint64(1_700_605_200), loaded.Request.UnlockAt)
	require.Zero(t, loaded.Request.LockedAmount.Cmp(big.NewInt(2_100)))
	// Normalize filled the banked field the caller left nil.
	require.Zero(t, loaded.BankedRewards.Sign())
}

func TestPoolRoundTrip(t *testing.T) {
	manager := NewManager(storage.NewMemDB())

	loaded, err := manager.StakingPool()
	require.NoError(t, err)
	require.Nil(t, loaded, "absent pool must decode as nil")

	pool := &staking.PoolState{
		TotalStaked:         big.NewInt(5_000),
		AnnualRateScaled:    30_000_000,
		WaitDurationSeconds: 604_800,
		GlobalLastTick:      28_333_340,
	}
	require.NoError(t, manager.PutStakingPool(pool))

	loaded, err = manager.StakingPool()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Zero(t, loaded.TotalStaked.Cmp(big.NewInt(5_000)))
	require.Equal(t, uint64(30_000_000), loaded.AnnualRateScaled)
	require.Equal(t, uint64(604_800), loaded.WaitDurationSeconds)
	require.Equal(t, uint64(28_333_340), loaded.GlobalLastTick)
}

func TestManagerPersistsAcrossLevelDBReopen(t *testing.T) {
	dir := t.TempDir()

	db, err := storage.NewLevelDB(dir)
	require.NoError(t, err)
	manager := NewManager(db)

	owner := testAddr(0x04)
	require.NoError(t, manager.PutStakingPosition(&staking.Position{
		Owner:     owner,
		Principal: big.NewInt(9_000),
	}))
	require.NoError(t, manager.PutStakingPool(&staking.PoolState{
		TotalStaked:      big.NewInt(9_000),
		AnnualRateScaled: 30_000_000,
	}))
	db.Close()

	db, err = storage.NewLevelDB(dir)
	require.NoError(t, err)
	defer db.Close()
	manager = NewManager(db)

	pos, err := manager.StakingPosition(owner)
	require.NoError(t, err)
	require.NotNil(t, pos)
	require.Zero(t, pos.Principal.Cmp(big.NewInt(9_000)))

	pool, err := manager.StakingPool()
	require.NoError(t, err)
	require.NotNil(t, pool)
	require.Zero(t, pool.TotalStaked.Cmp(big.NewInt(9_000)))
}

func TestNilManagerErrors(t *testing.T) {
	var manager *Manager
	_, err := manager.KVGet([]byte("k"), new(struct{}))
	require.ErrorIs(t, err, errNilDatabase)
	require.ErrorIs(t, manager.KVPut([]byte("k"), struct{}{}), errNilDatabase)
}
