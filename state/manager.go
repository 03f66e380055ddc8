package state

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"yieldpool/core/types"
	"yieldpool/native/staking"
	"yieldpool/storage"
)

var errNilDatabase = errors.New("state: database not configured")

var (
	accountPrefix  = []byte("accounts/")
	positionPrefix = []byte("staking/position/")
	poolKey        = []byte("staking/pool")
)

func accountKey(addr [20]byte) []byte {
	return []byte(fmt.Sprintf("%s%x", accountPrefix, addr))
}

func positionKey(owner [20]byte) []byte {
	return []byte(fmt.Sprintf("%s%x", positionPrefix, owner))
}

// Manager persists ledger records to the underlying key-value store using RLP
// encoding. It implements the persistence interface consumed by the staking
// engine: absent records decode as nil so engines can lazily initialise them.
type Manager struct {
	db storage.Database
}

// NewManager binds a manager to the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

// KVGet decodes the record stored under key into out, reporting whether the
// key existed.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	if m == nil || m.db == nil {
		return false, errNilDatabase
	}
	raw, err := m.db.Get(key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := rlp.DecodeBytes(raw, out); err != nil {
		return false, fmt.Errorf("state: decode %q: %w", key, err)
	}
	return true, nil
}

// KVPut encodes value and stores it under key.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	if m == nil || m.db == nil {
		return errNilDatabase
	}
	raw, err := rlp.EncodeToBytes(value)
	if err != nil {
		return fmt.Errorf("state: encode %q: %w", key, err)
	}
	return m.db.Put(key, raw)
}

// GetAccount loads the asset-ledger record for addr, or nil when absent.
func (m *Manager) GetAccount(addr [20]byte) (*types.Account, error) {
	account := new(types.Account)
	ok, err := m.KVGet(accountKey(addr), account)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return account.Normalize(), nil
}

// PutAccount stores the asset-ledger record for addr.
func (m *Manager) PutAccount(addr [20]byte, account *types.Account) error {
	if account == nil {
		return errors.New("state: account required")
	}
	return m.KVPut(accountKey(addr), account.Normalize())
}

// StakingPosition loads the accrual record for owner, or nil when absent.
func (m *Manager) StakingPosition(owner [20]byte) (*staking.Position, error) {
	position := new(staking.Position)
	ok, err := m.KVGet(positionKey(owner), position)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return position.Normalize(), nil
}

// PutStakingPosition stores the accrual record under its owner key.
func (m *Manager) PutStakingPosition(pos *staking.Position) error {
	if pos == nil {
		return errors.New("state: position required")
	}
	return m.KVPut(positionKey(pos.Owner), pos.Normalize())
}

// StakingPool loads the pool-wide ledger, or nil when absent.
func (m *Manager) StakingPool() (*staking.PoolState, error) {
	pool := new(staking.PoolState)
	ok, err := m.KVGet(poolKey, pool)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return pool.Normalize(), nil
}

// PutStakingPool stores the pool-wide ledger.
func (m *Manager) PutStakingPool(pool *staking.PoolState) error {
	if pool == nil {
		return errors.New("state: pool required")
	}
	return m.KVPut(poolKey, pool.Normalize())
}
