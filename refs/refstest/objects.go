// Package refstest has counted objects that record their destruction, for
// testing code built on refs.
package refstest

import (
	"fmt"
	"sync/atomic"

	"reduction.dev/refptr/refs"
)

// Instrumented is a counted object that reports how many times it has been
// destroyed.
type Instrumented interface {
	HoldRef()
	DropRef()
	UseCount() int64
	Destroyed() int64
	Label() string
}

// Tracked embeds refs.RefCount and counts calls to Destroy.
type Tracked struct {
	refs.RefCount
	label     string
	destroyed atomic.Int64

	// OnDestroy, when set, runs inside Destroy after the call is recorded.
	OnDestroy func()
}

func NewTracked(label string) *Tracked {
	return &Tracked{label: label}
}

func (t *Tracked) DropRef() {
	refs.DropObject(t)
}

func (t *Tracked) Destroy() {
	t.destroyed.Add(1)
	if t.OnDestroy != nil {
		t.OnDestroy()
	}
}

func (t *Tracked) Destroyed() int64 {
	return t.destroyed.Load()
}

func (t *Tracked) Label() string {
	return t.label
}

// Foreign counts its own references without refs.RefCount, the way a type
// from another library plugs into refs.Ref.
type Foreign struct {
	label     string
	n         atomic.Int32
	destroyed atomic.Int64
}

func NewForeign(label string) *Foreign {
	return &Foreign{label: label}
}

func (f *Foreign) HoldRef() {
	if n := f.n.Add(1); n <= 0 {
		panic(fmt.Errorf("invalid ref count %d", n))
	}
}

func (f *Foreign) DropRef() {
	n := f.n.Add(-1)
	if n > 0 {
		return
	}
	if n == 0 {
		f.destroyed.Add(1)
		return
	}
	panic(fmt.Errorf("invalid ref count %d", n))
}

func (f *Foreign) UseCount() int64 {
	return int64(f.n.Load())
}

func (f *Foreign) Destroyed() int64 {
	return f.destroyed.Load()
}

func (f *Foreign) Label() string {
	return f.label
}

var (
	_ Instrumented = (*Tracked)(nil)
	_ Instrumented = (*Foreign)(nil)
)
