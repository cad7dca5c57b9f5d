package refs

import "fmt"

// Counted is the protocol a pointee satisfies to be owned by a Ref. P is
// usually a pointer to a type embedding RefCount, or an interface type whose
// dynamic values are such pointers.
//
// DropRef releases one reference and destroys the object when it was the
// last. Implementations with their own counting strategy only need to
// provide these two methods.
type Counted interface {
	comparable
	HoldRef()
	DropRef()
}

// Ref owns one reference to a counted object. The zero value is a null Ref.
//
// A Ref must not be copied by assignment; use Clone to share the object and
// Move to transfer ownership. A single Ref is not safe for concurrent
// mutation, but distinct Refs to the same object may be used from different
// goroutines.
type Ref[P Counted] struct {
	_ noCopy
	p P
}

// New returns a Ref that takes a new reference on p. A nil p, including a
// nil pointer stored in an interface P, returns a null Ref.
func New[P Counted](p P) Ref[P] {
	return Wrap(p, true)
}

// Adopt returns a Ref that takes over a reference the caller already holds
// on p without counting it again.
func Adopt[P Counted](p P) Ref[P] {
	return Wrap(p, false)
}

// Wrap returns a Ref to p, holding a new reference if hold is true or
// adopting an existing one otherwise.
func Wrap[P Counted](p P, hold bool) Ref[P] {
	if isNil(p) {
		return Ref[P]{}
	}
	if hold {
		p.HoldRef()
	}
	return Ref[P]{p: p}
}

// Get returns the object without affecting ownership. It returns the zero
// value of P when r is null.
func (r *Ref[P]) Get() P {
	return r.p
}

// Must returns the object and panics if r is null.
func (r *Ref[P]) Must() P {
	if isNil(r.p) {
		panic(fmt.Sprintf("refs: dereference of null %T", r))
	}
	return r.p
}

// Valid reports whether r holds an object.
func (r *Ref[P]) Valid() bool {
	return !isNil(r.p)
}

// Clone returns a new Ref sharing r's object, taking one more reference.
func (r *Ref[P]) Clone() Ref[P] {
	return New(r.p)
}

// Move returns a Ref holding r's reference and leaves r null. The count is
// unchanged.
func (r *Ref[P]) Move() Ref[P] {
	var zero P
	p := r.p
	r.p = zero
	return Ref[P]{p: p}
}

// Assign makes r share src's object. The new reference is taken before the
// previous one is dropped, so assigning a Ref to itself is safe.
func (r *Ref[P]) Assign(src *Ref[P]) {
	tmp := src.Clone()
	tmp.Swap(r)
	tmp.Release()
}

// MoveFrom transfers src's reference into r, dropping r's previous one.
// Moving a Ref into itself leaves it unchanged.
func (r *Ref[P]) MoveFrom(src *Ref[P]) {
	tmp := src.Move()
	tmp.Swap(r)
	tmp.Release()
}

// Release drops r's reference, if any, and leaves r null.
func (r *Ref[P]) Release() {
	var zero P
	p := r.p
	r.p = zero
	if !isNil(p) {
		p.DropRef()
	}
}

// Reset is Release.
func (r *Ref[P]) Reset() {
	r.Release()
}

// ResetTo replaces r's object with p, taking a new reference on p.
func (r *Ref[P]) ResetTo(p P) {
	r.ResetWith(p, true)
}

// ResetWith replaces r's object with p, holding or adopting as in Wrap. The
// reference on p is in place before the previous object is dropped.
func (r *Ref[P]) ResetWith(p P, hold bool) {
	tmp := Wrap(p, hold)
	tmp.Swap(r)
	tmp.Release()
}

// Detach returns the object and leaves r null without dropping the
// reference. The caller becomes responsible for that reference, typically by
// passing it to Adopt later.
func (r *Ref[P]) Detach() P {
	var zero P
	p := r.p
	r.p = zero
	return p
}

func (r *Ref[P]) String() string {
	if !r.Valid() {
		return "Ref(nil)"
	}
	return fmt.Sprintf("Ref(%p)", any(r.p))
}

// As returns a Ref of type T sharing src's object, taking a new reference.
// It reports false, and returns a null Ref, when src's object is not a T.
// A null src converts to a null Ref.
func As[T Counted, Y Counted](src *Ref[Y]) (Ref[T], bool) {
	if isNil(src.p) {
		return Ref[T]{}, true
	}
	t, ok := any(src.p).(T)
	if !ok {
		return Ref[T]{}, false
	}
	return New(t), true
}

// MoveAs transfers src's reference into a Ref of type T, leaving src null.
// When src's object is not a T, src is left untouched and false is returned.
func MoveAs[T Counted, Y Counted](src *Ref[Y]) (Ref[T], bool) {
	if isNil(src.p) {
		return Ref[T]{}, true
	}
	t, ok := any(src.p).(T)
	if !ok {
		return Ref[T]{}, false
	}
	var zero Y
	src.p = zero
	return Adopt(t), true
}

// noCopy lets go vet's copylocks check flag Refs copied by value.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
