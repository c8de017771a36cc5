// Package iocache persists projects, matches and run history in SQL databases.
package iocache

import (
	"sync"

	"github.com/huangsam/conceptrace/internal/contract"
)

// StoreManagerImpl holds the model store and the run store.
type StoreManagerImpl struct {
	sync.RWMutex // Protects the store pointers during initialization
	model        contract.ModelStore
	runs         contract.RunStore
}

var _ contract.StoreManager = &StoreManagerImpl{} // Compile-time check

// GetModelStore returns the model store.
func (mgr *StoreManagerImpl) GetModelStore() contract.ModelStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.model
}

// GetRunStore returns the run store.
func (mgr *StoreManagerImpl) GetRunStore() contract.RunStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.runs
}
