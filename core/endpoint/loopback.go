package endpoint

import (
	"errors"
	"fmt"
	"sync"
)

// Loopback is an in-process Transport connecting every endpoint created on
// it. Frames are delivered synchronously on the publisher's goroutine.
type Loopback struct {
	mu     sync.RWMutex
	subs   map[string]func(frame []byte)
	closed bool
}

// NewLoopback creates an empty in-process transport hub.
func NewLoopback() *Loopback {
	return &Loopback{subs: make(map[string]func(frame []byte))}
}

// Publish implements Transport.
func (l *Loopback) Publish(name string, frame []byte) error {
	l.mu.RLock()
	h := l.subs[name]
	closed := l.closed
	l.mu.RUnlock()

	if closed {
		return errors.New("loopback: closed")
	}
	if h == nil {
		return fmt.Errorf("loopback: no subscriber for %q", name)
	}
	h(frame)
	return nil
}

// Subscribe implements Transport.
func (l *Loopback) Subscribe(name string, h func(frame []byte)) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, errors.New("loopback: closed")
	}
	if _, taken := l.subs[name]; taken {
		return nil, fmt.Errorf("loopback: %q already subscribed", name)
	}
	l.subs[name] = h

	return func() {
		l.mu.Lock()
		delete(l.subs, name)
		l.mu.Unlock()
	}, nil
}

// Close implements Transport.
func (l *Loopback) Close() error {
	l.mu.Lock()
	l.closed = true
	l.subs = make(map[string]func(frame []byte))
	l.mu.Unlock()
	return nil
}

var _ Transport = (*Loopback)(nil)
