package refs

import (
	"cmp"
	"fmt"
	"reflect"
)

// Swap exchanges the objects of a and b without touching either count.
func Swap[P Counted](a, b *Ref[P]) {
	a.Swap(b)
}

// Swap exchanges the objects of r and o without touching either count.
func (r *Ref[P]) Swap(o *Ref[P]) {
	r.p, o.p = o.p, r.p
}

// Holds reports whether r's object is p.
func (r *Ref[P]) Holds(p P) bool {
	return r.p == p
}

// Equal reports whether a and b point at the same object. The Refs may have
// different pointee types, for example a concrete pointer and an interface it
// implements. Two null Refs are equal.
func Equal[P Counted, Q Counted](a *Ref[P], b *Ref[Q]) bool {
	return address(a.p) == address(b.p)
}

// Compare orders Refs by object address. The order is stable for the life of
// the objects, so Refs can key sorted containers; it means nothing else.
// Null sorts first.
func Compare[P Counted](a, b *Ref[P]) int {
	return cmp.Compare(address(a.p), address(b.p))
}

// Less reports whether a sorts before b under Compare.
func Less[P Counted](a, b *Ref[P]) bool {
	return Compare(a, b) < 0
}

// address returns the pointer value behind p, or zero for nil. Objects are
// heap allocated and the collector doesn't move them, so the value is stable
// while a Ref is held.
func address(p any) uintptr {
	v := reflect.ValueOf(p)
	if !v.IsValid() {
		return 0
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.UnsafePointer:
		return v.Pointer()
	}
	panic(fmt.Sprintf("refs: %T is not a pointer", p))
}

// isNil reports whether p is nil or an interface holding a nil pointer.
func isNil[P Counted](p P) bool {
	var zero P
	if p == zero {
		return true
	}
	v := reflect.ValueOf(p)
	switch v.Kind() {
	case reflect.Pointer, reflect.UnsafePointer:
		return v.IsNil()
	}
	return false
}
