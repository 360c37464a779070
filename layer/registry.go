package layer

import (
	"errors"
	"sync"

	"github.com/samber/oops"
	"go.uber.org/atomic"
)

// Creator returns a fresh decoder instance.
type Creator func() Layer

var (
	ErrAlreadyRegistered = errors.New("next header already registered")
	ErrRegistryFrozen    = errors.New("registry is frozen")
)

// The table is written only during start-up. Once frozen it is read without
// locking from any number of decoding goroutines.
var (
	nextHeaders = map[uint8]Creator{}
	frozen      = atomic.NewBool(false)
	registerMu  sync.Mutex

	defaultsOnce sync.Once
	defaultsErr  error
)

// RegisterNextHeader binds an IPv6 next header value to the creator of the
// decoder responsible for it.
func RegisterNextHeader(proto uint8, c Creator) error {
	registerMu.Lock()
	defer registerMu.Unlock()

	if frozen.Load() {
		return oops.In("registry").With("next_header", proto).Wrap(ErrRegistryFrozen)
	}
	if _, ok := nextHeaders[proto]; ok {
		return oops.In("registry").With("next_header", proto).Wrap(ErrAlreadyRegistered)
	}
	nextHeaders[proto] = c
	log.WithField("next_header", proto).Debug("registered next header decoder")
	return nil
}

// LookupNextHeader returns the creator registered for proto.
func LookupNextHeader(proto uint8) (Creator, bool) {
	c, ok := nextHeaders[proto]
	return c, ok
}

// Freeze makes the registry read-only.
func Freeze() {
	frozen.Store(true)
}

// Frozen reports whether Freeze has been called.
func Frozen() bool {
	return frozen.Load()
}

// RegisterDefaults registers the decoders shipped with this package and
// freezes the registry. Calling it more than once is harmless.
func RegisterDefaults() error {
	defaultsOnce.Do(func() {
		if err := RegisterNextHeader(IPProtoICMPv6, NewICMPv6); err != nil {
			defaultsErr = err
			return
		}
		Freeze()
	})
	return defaultsErr
}
