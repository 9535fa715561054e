package registry

import (
	"testing"

	"github.com/prototypyside/prototypyside/pkg/errors"
)

type stubObject struct {
	pid      string
	children []Object
}

func (s *stubObject) PID() string     { return s.pid }
func (s *stubObject) Nodes() []Object { return s.children }

func (s *stubObject) CloneTree() Object {
	kind, _ := KindOf(s.pid)
	dup := &stubObject{pid: IssuePID(kind)}
	for _, child := range s.children {
		dup.children = append(dup.children, child.(*stubObject).CloneTree())
	}
	return dup
}

type stubHolder struct {
	pid     string
	content string
}

func (s *stubHolder) PID() string { return s.pid }

func (s *stubHolder) ReleaseContent(pid string) bool {
	if s.content == pid {
		s.content = ""
		return true
	}
	return false
}

func newStubTree() *stubObject {
	return &stubObject{
		pid: IssuePID(KindComponentTemplate),
		children: []Object{
			&stubObject{pid: IssuePID(KindTextElement)},
			&stubObject{pid: IssuePID(KindImageElement)},
		},
	}
}

func TestRegisterAndGet(t *testing.T) {
	r := New(nil)
	obj := &stubObject{pid: IssuePID(KindComponentTemplate)}
	if err := r.Register(obj); err != nil {
		t.Fatalf("Register: %v", err)
	}
	got, ok := r.Get(obj.pid)
	if !ok || got != Object(obj) {
		t.Fatalf("Get(%s) = %v, %v", obj.pid, got, ok)
	}
}

func TestRegisterDuplicateFails(t *testing.T) {
	r := New(nil)
	obj := &stubObject{pid: IssuePID(KindComponentTemplate)}
	if err := r.Register(obj); err != nil {
		t.Fatalf("Register: %v", err)
	}
	err := r.Register(&stubObject{pid: obj.pid})
	if !errors.Is(err, errors.ErrCodeDuplicatePID) {
		t.Fatalf("duplicate Register error = %v, want DUPLICATE_PID", err)
	}
	if got, _ := r.Get(obj.pid); got != Object(obj) {
		t.Fatal("original registration was disturbed by failed duplicate")
	}
}

func TestRegisterRejectsMalformedPID(t *testing.T) {
	r := New(nil)
	err := r.Register(&stubObject{pid: "not-a-pid"})
	if !errors.Is(err, errors.ErrCodeRegistry) {
		t.Fatalf("Register error = %v, want REGISTRY_ERROR", err)
	}
	if r.Len() != 0 {
		t.Fatal("failed Register left state behind")
	}
}

func TestRegisterTreeRollback(t *testing.T) {
	r := New(nil)
	tree := newStubTree()
	// Pre-register a child so the tree insert fails partway through.
	clash := tree.children[1].(*stubObject)
	if err := r.Register(&stubObject{pid: clash.pid}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	err := r.RegisterTree(tree)
	if !errors.Is(err, errors.ErrCodeDuplicatePID) {
		t.Fatalf("RegisterTree error = %v, want DUPLICATE_PID", err)
	}
	if r.Has(tree.pid) {
		t.Fatal("root not rolled back after failed RegisterTree")
	}
	if r.Has(tree.children[0].PID()) {
		t.Fatal("sibling not rolled back after failed RegisterTree")
	}
	if !r.Has(clash.pid) {
		t.Fatal("pre-existing registration removed by rollback")
	}
}

func TestDeregisterUnknownFails(t *testing.T) {
	r := New(nil)
	err := r.Deregister(IssuePID(KindPage))
	if !errors.Is(err, errors.ErrCodeUnknownPID) {
		t.Fatalf("Deregister error = %v, want UNKNOWN_PID", err)
	}
}

func TestDeregisterDetachesContent(t *testing.T) {
	r := New(nil)
	inst := &stubObject{pid: IssuePID(KindComponentInstance)}
	slot := &stubHolder{pid: IssuePID(KindLayoutSlot), content: inst.pid}
	if err := r.Register(inst); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(slot); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Deregister(inst.pid); err != nil {
		t.Fatalf("Deregister: %v", err)
	}
	if slot.content != "" {
		t.Fatalf("slot still references deregistered PID %s", slot.content)
	}
	if r.Has(inst.pid) {
		t.Fatal("instance still live after Deregister")
	}
}

func TestAllOf(t *testing.T) {
	r := New(nil)
	for i := 0; i < 3; i++ {
		if err := r.Register(&stubObject{pid: IssuePID(KindPage)}); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}
	if err := r.Register(&stubObject{pid: IssuePID(KindLayoutTemplate)}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if got := len(r.AllOf(KindPage)); got != 3 {
		t.Fatalf("AllOf(KindPage) returned %d objects, want 3", got)
	}
}

func TestCloneRegistered(t *testing.T) {
	r := New(nil)
	src := newStubTree()
	if err := r.RegisterTree(src); err != nil {
		t.Fatalf("RegisterTree: %v", err)
	}
	dup, err := r.Clone(src, true)
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}
	if dup.PID() == src.PID() {
		t.Fatal("clone reused source PID")
	}
	if !r.Has(dup.PID()) {
		t.Fatal("registered clone not resolvable in registry")
	}
	for _, child := range dup.(*stubObject).children {
		if !r.Has(child.PID()) {
			t.Fatalf("clone child %s not registered", child.PID())
		}
	}
}

func TestCloneIsolation(t *testing.T) {
	r := New(nil)
	src := newStubTree()

	a, err := r.Clone(src, false)
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}
	b, err := r.Clone(src, false)
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}

	pidsOf := func(root Object) map[string]bool {
		out := make(map[string]bool)
		var walk func(Object)
		walk = func(obj Object) {
			out[obj.PID()] = true
			if c, ok := obj.(Composite); ok {
				for _, child := range c.Nodes() {
					walk(child)
				}
			}
		}
		walk(root)
		return out
	}

	pa, pb := pidsOf(a), pidsOf(b)
	for pid := range pa {
		if pb[pid] {
			t.Fatalf("clones share PID %s", pid)
		}
	}
	for pid := range pa {
		if r.Has(pid) {
			t.Fatalf("unregistered clone PID %s is live", pid)
		}
	}
	for pid := range pb {
		if r.Has(pid) {
			t.Fatalf("unregistered clone PID %s is live", pid)
		}
	}
	if r.Len() != 0 {
		t.Fatalf("registry has %d live objects, want 0", r.Len())
	}
}
