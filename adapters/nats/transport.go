// Package nats carries endpoint frames over NATS. Each registered mailbox
// name subscribes its own subject, so NATS does the routing between hosts.
package nats

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	natsgo "github.com/nats-io/nats.go"

	"github.com/codewandler/actr-go/core/endpoint"
)

var errClosed = fmt.Errorf("nats: transport closed")

// TransportConfig parameterises a Transport.
type TransportConfig struct {
	// Connect creates the NATS connection. Nil uses ConnectDefault().
	Connect Connector
	// SubjectPrefix namespaces subjects, e.g. "actr" -> actr.name.<name>.
	SubjectPrefix string
	// Log receives diagnostics (optional).
	Log *slog.Logger
}

// Transport implements endpoint.Transport on a NATS connection.
type Transport struct {
	nc      *natsgo.Conn
	closeNc closeFunc
	log     *slog.Logger
	prefix  string

	mu   sync.Mutex
	subs map[*natsgo.Subscription]struct{}

	closed atomic.Bool
}

// NewTransport connects and returns a transport.
func NewTransport(cfg TransportConfig) (*Transport, error) {
	connFn := cfg.Connect
	if connFn == nil {
		connFn = ConnectDefault()
	}

	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}

	nc, closeNc, err := connFn()
	if err != nil {
		return nil, err
	}

	return &Transport{
		nc:      nc,
		closeNc: closeNc,
		log:     log.With(slog.String("transport", "nats")),
		prefix:  cfg.SubjectPrefix,
		subs:    make(map[*natsgo.Subscription]struct{}),
	}, nil
}

// subjectName returns the subject carrying frames for a mailbox name.
// Mailbox names may contain subject-significant characters; escape them.
func (t *Transport) subjectName(name string) string {
	p := t.prefix
	if p == "" {
		p = "actr"
	}
	escaped := strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_").Replace(name)
	return p + ".name." + escaped
}

// Publish implements endpoint.Transport.
func (t *Transport) Publish(name string, frame []byte) error {
	if t.closed.Load() {
		return errClosed
	}
	if err := t.nc.Publish(t.subjectName(name), frame); err != nil {
		return fmt.Errorf("nats: publish: %w", err)
	}
	return nil
}

// Subscribe implements endpoint.Transport.
func (t *Transport) Subscribe(name string, h func(frame []byte)) (func(), error) {
	if t.closed.Load() {
		return nil, errClosed
	}

	sub, err := t.nc.Subscribe(t.subjectName(name), func(msg *natsgo.Msg) {
		h(msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("nats: subscribe %q: %w", name, err)
	}

	t.mu.Lock()
	t.subs[sub] = struct{}{}
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		delete(t.subs, sub)
		t.mu.Unlock()
		if err := sub.Unsubscribe(); err != nil {
			t.log.Warn("unsubscribe", slog.String("name", name), slog.Any("error", err))
		}
	}, nil
}

// Close implements endpoint.Transport.
func (t *Transport) Close() error {
	if t.closed.Swap(true) {
		return errClosed
	}

	t.mu.Lock()
	for s := range t.subs {
		_ = s.Unsubscribe()
	}
	t.subs = map[*natsgo.Subscription]struct{}{}
	t.mu.Unlock()

	if t.nc != nil {
		_ = t.nc.Drain()
		t.closeNc()
	}
	return nil
}

var _ endpoint.Transport = (*Transport)(nil)
