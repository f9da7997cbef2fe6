// Package powertest provides an in-memory power.Capability for tests.
package powertest

import (
	"sync"

	"github.com/scienceol/awake/internal/power"
)

// Registry plays the OS power manager: it hands out ids and remembers which
// are still held. Capabilities opened from one Registry share its state, the
// way two bindings of the same framework share the OS.
type Registry struct {
	mu       sync.Mutex
	next     uint32
	held     map[power.Handle]string
	releases map[power.Handle]int
	opened   int
	closed   int

	// CreateStatus, when non-zero, fails Create at the given call index
	// (1-based) with that status.
	FailCreateAt int
	CreateStatus uint32

	// ReleaseStatus, when non-zero, is the status every Release reports. It
	// goes through power.ReleaseStatus, so the not-found status succeeds.
	ReleaseStatus uint32
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		next:     100,
		held:     make(map[power.Handle]string),
		releases: make(map[power.Handle]int),
	}
}

// Open returns a new Capability bound to r.
func (r *Registry) Open() (power.Capability, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opened++
	return &Capability{reg: r}, nil
}

// Held returns the handles currently held.
func (r *Registry) Held() []power.Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]power.Handle, 0, len(r.held))
	for h := range r.held {
		out = append(out, h)
	}
	return out
}

// Releases returns how many successful releases removed h.
func (r *Registry) Releases(h power.Handle) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.releases[h]
}

// Opened returns how many capabilities were opened.
func (r *Registry) Opened() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.opened
}

// Closed returns how many capabilities were closed.
func (r *Registry) Closed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Capability is a power.Capability backed by a Registry.
type Capability struct {
	reg     *Registry
	creates int
}

func (c *Capability) Create(kind power.Kind, _ bool) (power.Handle, error) {
	return c.create(string(kind))
}

func (c *Capability) DeclareUserActivity(bool) (power.Handle, error) {
	return c.create("UserActivity")
}

func (c *Capability) create(label string) (power.Handle, error) {
	r := c.reg
	r.mu.Lock()
	defer r.mu.Unlock()

	c.creates++
	if r.CreateStatus != 0 && c.creates == r.FailCreateAt {
		return 0, &power.StatusError{Op: "create assertion", Kind: power.Kind(label), Code: r.CreateStatus, Err: power.ErrAssertionCreate}
	}
	r.next++
	h := power.Handle(r.next)
	r.held[h] = label
	return h, nil
}

func (c *Capability) Release(h power.Handle) error {
	r := c.reg
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := power.ReleaseStatus(h, r.ReleaseStatus); err != nil {
		return err
	}
	if _, ok := r.held[h]; ok {
		delete(r.held, h)
		r.releases[h]++
	}
	// Unknown handles succeed, as the OS reports them not found.
	return nil
}

func (c *Capability) Close() error {
	c.reg.mu.Lock()
	defer c.reg.mu.Unlock()
	c.reg.closed++
	return nil
}
