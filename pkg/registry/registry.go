package registry

import (
	"github.com/charmbracelet/log"

	"github.com/prototypyside/prototypyside/pkg/errors"
)

// Object is anything addressable by a PID.
type Object interface {
	PID() string
}

// Composite is an Object that owns nested registrable objects (a template
// owns its elements, a layout owns its slots). Nodes returns the direct
// children only; the registry walks recursively.
type Composite interface {
	Object
	Nodes() []Object
}

// Cloner produces a deep copy of an object graph with fresh PIDs assigned
// to every node. Implementations never reuse source PIDs.
type Cloner interface {
	Object
	CloneTree() Object
}

// ContentReleaser is implemented by objects that hold references to other
// registered objects by PID (layout slots holding component instances).
// ReleaseContent drops any reference to pid and reports whether one existed.
type ContentReleaser interface {
	ReleaseContent(pid string) bool
}

// Registry maintains the mapping from live PIDs to objects.
//
// It is owned and mutated only by the single thread that drives the
// application; it is not safe for concurrent use. All mutations are atomic:
// a failed Register or Deregister leaves existing mappings untouched.
type Registry struct {
	objects map[string]Object
	logger  *log.Logger
}

// New creates an empty registry. A nil logger falls back to the default.
func New(logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.Default()
	}
	return &Registry{
		objects: make(map[string]Object),
		logger:  logger,
	}
}

// Register inserts obj under its PID. The PID must be well formed and its
// prefix must match a registered kind; registering a PID that is already
// live fails with DUPLICATE_PID and changes nothing.
func (r *Registry) Register(obj Object) error {
	pid := obj.PID()
	if _, err := ParsePID(pid); err != nil {
		return errors.Wrap(errors.ErrCodeRegistry, err, "cannot register object")
	}
	if _, exists := r.objects[pid]; exists {
		return errors.New(errors.ErrCodeDuplicatePID, "PID already registered: %s", pid)
	}
	r.objects[pid] = obj
	r.logger.Debug("registered object", "pid", pid)
	return nil
}

// RegisterTree registers obj and, recursively, every nested node of any
// Composite. On failure all insertions made by this call are rolled back.
func (r *Registry) RegisterTree(root Object) error {
	var inserted []string
	var walk func(Object) error
	walk = func(obj Object) error {
		if err := r.Register(obj); err != nil {
			return err
		}
		inserted = append(inserted, obj.PID())
		if c, ok := obj.(Composite); ok {
			for _, child := range c.Nodes() {
				if err := walk(child); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := walk(root); err != nil {
		for _, pid := range inserted {
			delete(r.objects, pid)
		}
		return err
	}
	return nil
}

// Deregister removes the object under pid. Before removal, every registered
// ContentReleaser is asked to drop references to pid, so slot content never
// dangles. Deregistering an unknown PID fails with UNKNOWN_PID.
func (r *Registry) Deregister(pid string) error {
	if _, exists := r.objects[pid]; !exists {
		return errors.New(errors.ErrCodeUnknownPID, "no object registered under %s", pid)
	}
	for _, obj := range r.objects {
		if holder, ok := obj.(ContentReleaser); ok {
			holder.ReleaseContent(pid)
		}
	}
	delete(r.objects, pid)
	r.logger.Debug("deregistered object", "pid", pid)
	return nil
}

// DeregisterTree deregisters obj and every nested node.
func (r *Registry) DeregisterTree(root Object) error {
	if c, ok := root.(Composite); ok {
		for _, child := range c.Nodes() {
			if r.Has(child.PID()) {
				if err := r.DeregisterTree(child); err != nil {
					return err
				}
			}
		}
	}
	return r.Deregister(root.PID())
}

// Get returns the object registered under pid.
func (r *Registry) Get(pid string) (Object, bool) {
	obj, ok := r.objects[pid]
	return obj, ok
}

// Has reports whether pid is live.
func (r *Registry) Has(pid string) bool {
	_, ok := r.objects[pid]
	return ok
}

// AllOf returns all live objects of the given kind.
func (r *Registry) AllOf(kind Kind) []Object {
	var out []Object
	for pid, obj := range r.objects {
		if k, err := KindOf(pid); err == nil && k == kind {
			out = append(out, obj)
		}
	}
	return out
}

// Len returns the number of live objects.
func (r *Registry) Len() int { return len(r.objects) }

// Clone deep-copies an object graph with fresh PIDs on every node.
// With register=true the whole clone tree is inserted into the registry;
// with register=false the clone graph never touches the live registry,
// which lets preview exports run without polluting application state.
func (r *Registry) Clone(src Cloner, register bool) (Object, error) {
	dup := src.CloneTree()
	if dup.PID() == src.PID() {
		return nil, errors.New(errors.ErrCodeRegistry, "clone of %s reused its source PID", src.PID())
	}
	if register {
		if err := r.RegisterTree(dup); err != nil {
			return nil, err
		}
	}
	return dup, nil
}
