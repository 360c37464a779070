package layer

import "sync"

// ResetRegistry empties the next header table so registry tests start clean.
func ResetRegistry() {
	registerMu.Lock()
	defer registerMu.Unlock()
	nextHeaders = map[uint8]Creator{}
	frozen.Store(false)
	defaultsOnce = sync.Once{}
	defaultsErr = nil
}
