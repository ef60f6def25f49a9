package endpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/codewandler/actr-go/core/address"
	"github.com/codewandler/actr-go/core/message"
)

// ErrNameTaken is returned when registering a name already known to the
// endpoint. Names are globally unique across an endpoint's network.
var ErrNameTaken = errors.New("endpoint: name already registered")

// Transport carries encoded frames between endpoints. Implementations must
// be safe for concurrent use.
type Transport interface {
	// Publish delivers a frame to whichever endpoint subscribed name.
	Publish(name string, frame []byte) error
	// Subscribe routes frames published to name into h until the returned
	// unsubscribe function is called.
	Subscribe(name string, h func(frame []byte)) (func(), error)
	// Close releases the transport's resources.
	Close() error
}

// Frame is the endpoint-to-endpoint message encoding.
type Frame struct {
	To       string `json:"to"`
	TypeName string `json:"type"`
	Data     []byte `json:"data"`
	FromName string `json:"from,omitempty"`
	FromFw   uint32 `json:"from_fw,omitempty"`
	FromMb   uint32 `json:"from_mb,omitempty"`
}

// DeliverFunc pushes an inbound message into the framework owning the
// resolved address. Installed by the framework layer.
type DeliverFunc func(to address.Address, typeName string, data []byte, from address.Address) bool

// Endpoint connects the local frameworks' name space to a transport.
type Endpoint struct {
	name      string
	log       *slog.Logger
	transport Transport
	registry  *NameRegistry
	deliver   atomic.Pointer[DeliverFunc]

	mu     sync.Mutex
	unsubs map[string]func()
	closed bool
}

// Config parameterises an endpoint.
type Config struct {
	// Name identifies the endpoint, e.g. in generated mailbox names.
	Name string
	// Transport carries remote traffic. Required.
	Transport Transport
	// Log receives delivery diagnostics. Defaults to slog.Default().
	Log *slog.Logger
}

// New creates an endpoint on the given transport.
func New(cfg Config) (*Endpoint, error) {
	if cfg.Transport == nil {
		return nil, errors.New("endpoint: transport is required")
	}
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	return &Endpoint{
		name:      cfg.Name,
		log:       log.With(slog.String("endpoint", cfg.Name)),
		transport: cfg.Transport,
		registry:  NewNameRegistry(),
		unsubs:    make(map[string]func()),
	}, nil
}

// Name returns the endpoint's name.
func (e *Endpoint) Name() string { return e.name }

// Bind installs the inbound delivery hook. The first bind wins; frameworks
// attaching to an already-bound endpoint leave the hook in place.
func (e *Endpoint) Bind(fn DeliverFunc) {
	e.deliver.CompareAndSwap(nil, &fn)
}

// Register publishes a mailbox name, making it reachable from remote
// endpoints and resolvable locally.
func (e *Endpoint) Register(name string, addr address.Address) error {
	if !e.registry.Add(name, addr) {
		return fmt.Errorf("%w: %q", ErrNameTaken, name)
	}

	unsub, err := e.transport.Subscribe(name, func(frame []byte) { e.onFrame(frame) })
	if err != nil {
		e.registry.Remove(name)
		return fmt.Errorf("endpoint: subscribe %q: %w", name, err)
	}

	e.mu.Lock()
	e.unsubs[name] = unsub
	e.mu.Unlock()
	return nil
}

// Deregister withdraws a published name.
func (e *Endpoint) Deregister(name string) {
	e.registry.Remove(name)

	e.mu.Lock()
	unsub := e.unsubs[name]
	delete(e.unsubs, name)
	e.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// Lookup resolves a name registered by a local framework.
func (e *Endpoint) Lookup(name string) (address.Address, bool) {
	return e.registry.Lookup(name)
}

// Send pushes a message out onto the network, addressed by name.
// Returns false if the transport rejected the frame.
func (e *Endpoint) Send(m *message.Message, toName string) bool {
	frame, err := json.Marshal(Frame{
		To:       toName,
		TypeName: m.TypeName(),
		Data:     m.Data(),
		FromName: m.From().Name(),
		FromFw:   m.From().Framework(),
		FromMb:   m.From().Mailbox(),
	})
	if err != nil {
		e.log.Warn("encode frame", slog.String("to", toName), slog.Any("error", err))
		return false
	}
	if err := e.transport.Publish(toName, frame); err != nil {
		e.log.Warn("publish frame", slog.String("to", toName), slog.Any("error", err))
		return false
	}
	return true
}

// onFrame handles one inbound frame: resolve the target name locally and
// hand the payload to the bound framework.
func (e *Endpoint) onFrame(data []byte) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		e.log.Warn("decode frame", slog.Any("error", err))
		return
	}

	to, ok := e.registry.Lookup(f.To)
	if !ok {
		e.log.Warn("frame for unknown name", slog.String("to", f.To))
		return
	}

	deliver := e.deliver.Load()
	if deliver == nil {
		e.log.Warn("frame before any framework attached", slog.String("to", f.To))
		return
	}

	from := address.New(f.FromName, f.FromFw, f.FromMb)
	if !(*deliver)(to.WithName(f.To), f.TypeName, f.Data, from) {
		e.log.Warn("inbound delivery failed", slog.String("to", f.To))
	}
}

// Close unsubscribes every name from the transport and closes it. The names
// stay in the endpoint's registry, so Lookup still resolves them.
func (e *Endpoint) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	unsubs := e.unsubs
	e.unsubs = make(map[string]func())
	e.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
	return e.transport.Close()
}
