// Intrusive reference counting.
//
// Concepts:
//   - A counted object embeds RefCount. The count starts at zero and the
//     object is unowned until the first Ref takes it with New, which holds.
//   - A function that already took a ref for the caller hands the object out
//     with Adopt so the count isn't taken twice.
//   - When the last ref is dropped the object's Destroy method runs exactly
//     once, on the concrete type named where DropRef is implemented.
//   - Borrowing an object with Get never changes the count.
package refs

import (
	"log/slog"
	"sync/atomic"
)

// RefCount is an embeddable atomic reference counter. The zero value has a
// count of zero.
type RefCount struct {
	count           atomic.Int64
	wasDereferenced atomic.Bool
	debugLabel      string
	debugID         uint64
}

var debugIDs atomic.Uint64

// Trace logs every hold and drop on rc at debug level. It must be called
// before rc is shared.
func (rc *RefCount) Trace(label string) {
	rc.debugLabel = label
	rc.debugID = debugIDs.Add(1)
}

// UseCount returns the current count. It is advisory: under concurrent use
// the value may be stale by the time it is returned.
func (rc *RefCount) UseCount() int64 {
	return rc.count.Load()
}

// Hold takes a reference and reports whether it was the first.
func (rc *RefCount) Hold() (retained bool) {
	if rc.wasDereferenced.Load() {
		panic("adding ref count to item that wasDereferenced")
	}
	count := rc.count.Add(1)
	if rc.debugLabel != "" {
		slog.Debug("hold", "label", rc.debugLabel, "id", rc.debugID, "count", count)
	}
	return count == 1
}

// Drop releases a reference and reports whether it was the last. Only the
// caller that observes the count reaching zero gets true.
func (rc *RefCount) Drop() (released bool) {
	result := rc.count.Add(-1)
	if rc.debugLabel != "" {
		slog.Debug("drop", "label", rc.debugLabel, "id", rc.debugID, "count", result)
	}
	if result < 0 {
		panic("ref count is below 0")
	}
	if result == 0 {
		rc.wasDereferenced.Store(true)
		return true
	}
	return false
}

// HoldRef implements the hold half of Counted for embedding types.
func (rc *RefCount) HoldRef() {
	rc.Hold()
}

func (rc *RefCount) refCount() *RefCount {
	return rc
}

// Destroyer is implemented by counted objects that release resources when
// their last reference is dropped.
type Destroyer interface {
	Destroy()
}

// Object is satisfied by *T when T embeds RefCount and *T has a Destroy
// method.
type Object[T any] interface {
	*T
	Destroyer
	refCount() *RefCount
}

// DropObject drops a reference on p and destroys it when the count reaches
// zero. Types embedding RefCount implement DropRef with it:
//
//	func (t *Table) DropRef() { refs.DropObject(t) }
//
// Destroy is dispatched on PT, so a type that embeds another counted type
// must implement its own DropRef and Destroy or only the embedded part will
// be torn down.
func DropObject[T any, PT Object[T]](p PT) {
	if p.refCount().Drop() {
		p.Destroy()
	}
}
