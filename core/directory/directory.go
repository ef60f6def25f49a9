// Package directory maintains the per-framework table of mailboxes, indexed
// by the 32-bit mailbox component of an address.
package directory

import (
	"errors"

	"github.com/codewandler/actr-go/core/mailbox"
	"github.com/codewandler/actr-go/internal/spin"
)

// ErrNameTaken is returned when registering a name that is already bound to
// a live slot in this directory.
var ErrNameTaken = errors.New("directory: name already registered")

// Directory maps mailbox indices to mailboxes. Index 0 is reserved as null;
// live indices are dense from 1 upwards. A released slot keeps its mailbox
// storage and is reused by a later registration.
//
// Directory operations are serialized by one spinlock. Mailbox addresses are
// stable for the life of the directory.
type Directory struct {
	mu     spin.Lock
	slots  []*mailbox.Mailbox
	free   []uint32
	byName map[string]uint32
}

// New creates an empty directory.
func New() *Directory {
	return &Directory{
		slots:  make([]*mailbox.Mailbox, 1), // slot 0 stays nil
		byName: make(map[string]uint32),
	}
}

// Register allocates a slot, installing name if non-empty. It returns the
// slot's index and its mailbox. The mailbox's recipient binding is left to
// the caller.
func (d *Directory) Register(name string) (uint32, *mailbox.Mailbox, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if name != "" {
		if _, taken := d.byName[name]; taken {
			return 0, nil, ErrNameTaken
		}
	}

	var index uint32
	var mb *mailbox.Mailbox
	if n := len(d.free); n > 0 {
		index = d.free[n-1]
		d.free = d.free[:n-1]
		mb = d.slots[index]
	} else {
		index = uint32(len(d.slots))
		mb = &mailbox.Mailbox{}
		d.slots = append(d.slots, mb)
	}

	if name != "" {
		d.byName[name] = index
	}
	mb.Lock()
	mb.SetName(name)
	mb.Unlock()

	return index, mb, nil
}

// Release frees a slot for reuse and forgets its name. The caller must
// already have cleared the mailbox's recipient binding and drained its
// queue; releasing a slot with pending messages loses them.
func (d *Directory) Release(index uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()

	mb := d.entry(index)
	if mb == nil {
		return
	}
	mb.Lock()
	if name := mb.Name(); name != "" {
		delete(d.byName, name)
		mb.SetName("")
	}
	mb.Unlock()
	d.free = append(d.free, index)
}

// Entry returns the mailbox at index, or nil for the null index or an index
// never allocated. A released slot's index still returns its storage, since
// its address may be in flight.
func (d *Directory) Entry(index uint32) *mailbox.Mailbox {
	d.mu.Lock()
	mb := d.entry(index)
	d.mu.Unlock()
	return mb
}

func (d *Directory) entry(index uint32) *mailbox.Mailbox {
	if index == 0 || index >= uint32(len(d.slots)) {
		return nil
	}
	return d.slots[index]
}

// LookupName resolves a registered name to its index.
func (d *Directory) LookupName(name string) (uint32, bool) {
	d.mu.Lock()
	index, ok := d.byName[name]
	d.mu.Unlock()
	return index, ok
}

// Len returns the number of live (allocated, unreleased) slots.
func (d *Directory) Len() int {
	d.mu.Lock()
	n := len(d.slots) - 1 - len(d.free)
	d.mu.Unlock()
	return n
}
