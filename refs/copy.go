package refs

import (
	"reflect"
	"unsafe"
)

// Copy returns a shallow copy of src with its own zero count. The counter of
// src is never read, so handles to src may be cloned and dropped
// concurrently with the copy. Other fields of src must not be written while
// it is copied.
func Copy[T any, PT Object[T]](src PT) PT {
	dst := PT(new(T))
	copyFields(reflect.ValueOf(dst).Elem(), reflect.ValueOf(src).Elem())
	return dst
}

// CopyInto copies every field of src into dst except the counter, which keeps
// dst's count and the Refs that own it intact. dst must not be read or
// written through other Refs while it is copied into.
func CopyInto[T any, PT Object[T]](dst, src PT) {
	if dst == src {
		return
	}
	copyFields(reflect.ValueOf(dst).Elem(), reflect.ValueOf(src).Elem())
}

var refCountType = reflect.TypeFor[RefCount]()

// copyFields assigns src to dst, skipping any RefCount stored inline. Both
// values must be addressable.
func copyFields(dst, src reflect.Value) {
	t := dst.Type()
	if t == refCountType {
		return
	}
	if !holdsRefCount(t) {
		writable(dst).Set(writable(src))
		return
	}
	switch t.Kind() {
	case reflect.Struct:
		for i := range t.NumField() {
			copyFields(dst.Field(i), src.Field(i))
		}
	case reflect.Array:
		for i := range t.Len() {
			copyFields(dst.Index(i), src.Index(i))
		}
	}
}

// holdsRefCount reports whether values of t contain a RefCount inline, as
// opposed to behind a pointer.
func holdsRefCount(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Struct:
		if t == refCountType {
			return true
		}
		for i := range t.NumField() {
			if holdsRefCount(t.Field(i).Type) {
				return true
			}
		}
	case reflect.Array:
		return holdsRefCount(t.Elem())
	}
	return false
}

// writable returns v with unexported-field restrictions lifted.
func writable(v reflect.Value) reflect.Value {
	return reflect.NewAt(v.Type(), unsafe.Pointer(v.UnsafeAddr())).Elem()
}
