package core

import (
	"sync"
	"time"
)

// KeepAlive is a reference-counted lease around a periodic no-op signal. The
// first Acquire starts the ticker, the last Release stops it, so overlapping
// runs cannot prematurely silence each other's liveness signal.
type KeepAlive struct {
	interval time.Duration
	ping     func()

	mu   sync.Mutex
	refs int
	stop chan struct{}
}

// NewKeepAlive builds a lease that calls ping every interval while at least
// one holder is active. A nil ping is a no-op.
func NewKeepAlive(interval time.Duration, ping func()) *KeepAlive {
	if interval <= 0 {
		interval = DefaultKeepAliveInterval
	}
	if ping == nil {
		ping = func() {}
	}
	return &KeepAlive{interval: interval, ping: ping}
}

// Acquire takes one reference on the lease, starting the signal if this is
// the first holder.
func (k *KeepAlive) Acquire() {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.refs++
	if k.refs == 1 {
		k.stop = make(chan struct{})
		go k.run(k.stop)
	}
}

// Release drops one reference, stopping the signal when the last holder is
// gone. Releasing an unheld lease is a no-op.
func (k *KeepAlive) Release() {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.refs == 0 {
		return
	}
	k.refs--
	if k.refs == 0 {
		close(k.stop)
		k.stop = nil
	}
}

// Active reports whether any holder currently keeps the signal running.
func (k *KeepAlive) Active() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.refs > 0
}

func (k *KeepAlive) run(stop chan struct{}) {
	ticker := time.NewTicker(k.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			k.ping()
		case <-stop:
			return
		}
	}
}
