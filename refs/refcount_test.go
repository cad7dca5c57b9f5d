package refs_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"reduction.dev/refptr/refs"
	"reduction.dev/refptr/refs/refstest"
)

func TestHoldingAndDropping(t *testing.T) {
	rc := &refs.RefCount{}
	assert.Equal(t, int64(0), rc.UseCount(), "zero value starts unreferenced")

	retained := rc.Hold()
	assert.True(t, retained, "first hold returns retained")
	retained = rc.Hold()
	assert.False(t, retained, "second hold return not retained")

	released := rc.Drop()
	assert.False(t, released, "first drop isn't released")
	released = rc.Drop()
	assert.True(t, released, "second drop is released")

	assert.Panics(t, func() {
		rc.Drop()
	}, "release beyond 0 panics")
}

func TestHoldAfterReleasePanics(t *testing.T) {
	rc := &refs.RefCount{}
	rc.Hold()
	require.True(t, rc.Drop())

	assert.Panics(t, func() {
		rc.Hold()
	}, "holding a released object panics")
}

func TestDropObject_DestroysOnceOnLastDrop(t *testing.T) {
	obj := refstest.NewTracked("a")
	obj.HoldRef()
	obj.HoldRef()

	obj.DropRef()
	assert.Equal(t, int64(0), obj.Destroyed(), "not destroyed while a ref remains")

	obj.DropRef()
	assert.Equal(t, int64(1), obj.Destroyed())
}

func TestTrace(t *testing.T) {
	obj := refstest.NewTracked("traced")
	obj.Trace("traced-object")

	ref := refs.New(obj)
	clone := ref.Clone()
	clone.Release()
	ref.Release()

	assert.Equal(t, int64(1), obj.Destroyed(), "tracing doesn't change counting")
}

func TestCopy_StartsWithFreshCount(t *testing.T) {
	src := refstest.NewTracked("src")
	ref := refs.New(src)
	other := ref.Clone()
	require.Equal(t, int64(2), src.UseCount())

	dup := refs.Copy(src)
	assert.Equal(t, int64(0), dup.UseCount(), "copy doesn't inherit the source count")
	assert.Equal(t, "src", dup.Label(), "copy keeps the other fields")

	dupRef := refs.New(dup)
	dupRef.Release()
	assert.Equal(t, int64(1), dup.Destroyed(), "copy is destroyed on its own")
	assert.Equal(t, int64(0), src.Destroyed(), "source is unaffected by the copy's lifecycle")
	assert.Equal(t, int64(2), src.UseCount())

	other.Release()
	ref.Release()
	assert.Equal(t, int64(1), src.Destroyed())
}

func TestCopy_OfReleasedObjectCanBeHeld(t *testing.T) {
	src := refstest.NewTracked("src")
	ref := refs.New(src)
	ref.Release()

	dup := refs.Copy(src)
	assert.NotPanics(t, func() {
		r := refs.New(dup)
		r.Release()
	})
}

func TestCopy_ConcurrentWithRefsToSource(t *testing.T) {
	src := refstest.NewTracked("src")
	ref := refs.New(src)

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
				c := ref.Clone()
				c.Release()
			}
		}
	}()

	for range 1000 {
		dup := refs.Copy(src)
		require.Equal(t, int64(0), dup.UseCount())
		require.Equal(t, "src", dup.Label())
	}
	close(done)
	wg.Wait()

	ref.Release()
	assert.Equal(t, int64(1), src.Destroyed())
}

func TestCopyInto_KeepsDestinationCount(t *testing.T) {
	src := refstest.NewTracked("src")
	dst := refstest.NewTracked("dst")
	srcRef := refs.New(src)
	dstRef1 := refs.New(dst)
	dstRef2 := dstRef1.Clone()

	refs.CopyInto(dst, src)
	assert.Equal(t, "src", dst.Label(), "fields are copied")
	assert.Equal(t, int64(2), dst.UseCount(), "destination keeps the count of its live Refs")
	assert.Equal(t, int64(1), src.UseCount())

	dstRef1.Release()
	assert.Equal(t, int64(0), dst.Destroyed())
	dstRef2.Release()
	assert.Equal(t, int64(1), dst.Destroyed())

	srcRef.Release()
	assert.Equal(t, int64(1), src.Destroyed())
}

func TestCopyInto_NestedCounter(t *testing.T) {
	src := &segment{closed: true}
	refs.CopyInto(&src.Tracked, refstest.NewTracked("src"))
	dst := &segment{}
	dstRef := refs.New(dst)

	refs.CopyInto(dst, src)
	assert.True(t, dst.closed)
	assert.Equal(t, "src", dst.Label())
	assert.Equal(t, int64(1), dst.UseCount(), "counter inside an embedded type is kept")

	refs.CopyInto(dst, dst)
	assert.Equal(t, int64(1), dst.UseCount())
	dstRef.Release()
}
