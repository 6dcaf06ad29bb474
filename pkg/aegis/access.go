package aegis

import (
	"github.com/cuemby/aegis/pkg/aegis/aegiserr"
	"github.com/cuemby/aegis/pkg/registry"
	"github.com/cuemby/aegis/pkg/resolver"
	bolt "go.etcd.io/bbolt"
)

// GetMask returns subjectLabel's effective capability mask on objectLabel.
// Unlike every mutating verb, reads are never gated: spec.md §2 routes reads
// straight to the resolver.
func (e *Engine) GetMask(subjectLabel, objectLabel string) (uint64, error) {
	var mask uint64
	err := e.db.View(func(bt *bolt.Tx) error {
		subject, err := e.resolveID(bt, subjectLabel)
		if err != nil {
			return err
		}
		object, err := e.resolveID(bt, objectLabel)
		if err != nil {
			return err
		}
		mask = resolver.GetMask(bt, subject, object)
		return nil
	})
	return mask, aegiserr.WrapStorage(err)
}

// CheckAccess reports whether subjectLabel's effective mask on objectLabel
// contains every bit of required.
func (e *Engine) CheckAccess(subjectLabel, objectLabel string, required uint64) (bool, error) {
	mask, err := e.GetMask(subjectLabel, objectLabel)
	if err != nil {
		return false, err
	}
	return mask&required == required, nil
}

// HasCapability is CheckAccess for a single bit, the common case of asking
// "can subject do this one thing on object".
func (e *Engine) HasCapability(subjectLabel, objectLabel string, bit uint64) (bool, error) {
	return e.CheckAccess(subjectLabel, objectLabel, bit)
}

// Accessible is one (object, mask) result from ListAccessible.
type Accessible struct {
	Object string
	Mask   uint64
}

// ListAccessible returns every object subjectLabel holds a direct grant on,
// without walking inheritance — the same scope as a single resolver hop, not
// a transitive reachability search (spec.md's Non-goals rule out a general
// graph traversal).
func (e *Engine) ListAccessible(subjectLabel string) ([]Accessible, error) {
	var out []Accessible
	err := e.db.View(func(bt *bolt.Tx) error {
		subject, err := e.resolveID(bt, subjectLabel)
		if err != nil {
			return err
		}
		pairs, err := resolver.ListForSubject(bt, subject)
		if err != nil {
			return err
		}
		for _, p := range pairs {
			label, err := registry.Label(bt, p.ID)
			if err != nil {
				continue
			}
			out = append(out, Accessible{Object: label, Mask: p.Value})
		}
		return nil
	})
	return out, aegiserr.WrapStorage(err)
}

// Subject is one (subject, mask) result from ListSubjects.
type Subject struct {
	Entity string
	Mask   uint64
}

// ListSubjects returns every subject holding a direct grant on objectLabel.
func (e *Engine) ListSubjects(objectLabel string) ([]Subject, error) {
	var out []Subject
	err := e.db.View(func(bt *bolt.Tx) error {
		object, err := e.resolveID(bt, objectLabel)
		if err != nil {
			return err
		}
		pairs, err := resolver.ListForObject(bt, object)
		if err != nil {
			return err
		}
		for _, p := range pairs {
			label, err := registry.Label(bt, p.ID)
			if err != nil {
				continue
			}
			out = append(out, Subject{Entity: label, Mask: p.Value})
		}
		return nil
	})
	return out, aegiserr.WrapStorage(err)
}
