package stress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"reduction.dev/refptr/refs"
	"reduction.dev/refptr/refs/refstest"
)

// overDropped releases two references per drop, so it is destroyed while
// workers still hold it.
type overDropped struct {
	refstest.Tracked
}

func (o *overDropped) DropRef() {
	refs.DropObject(o)
	refs.DropObject(o)
}

func TestRunTrial_EarlyDestroyIsAFailedTrial(t *testing.T) {
	cfg := Config{Workers: 4, Trials: 1, CopiesPerWorker: 4, Shape: ShapeEmbedded}

	var err error
	assert.NotPanics(t, func() {
		err = runTrial(cfg, &overDropped{})
	})
	assert.ErrorIs(t, err, ErrDestroyedEarly)
}

func TestRunTrial_Succeeds(t *testing.T) {
	cfg := Config{Workers: 4, Trials: 1, CopiesPerWorker: 4, Shape: ShapeForeign}

	assert.NoError(t, runTrial(cfg, refstest.NewForeign("ok")))
}
