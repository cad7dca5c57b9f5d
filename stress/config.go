package stress

import (
	"errors"
	"fmt"
)

// Shape selects how the pointee counts its references.
type Shape string

const (
	// ShapeEmbedded objects embed refs.RefCount.
	ShapeEmbedded Shape = "embedded"
	// ShapeForeign objects implement HoldRef and DropRef themselves.
	ShapeForeign Shape = "foreign"
)

func ParseShape(s string) (Shape, error) {
	switch Shape(s) {
	case ShapeEmbedded, ShapeForeign:
		return Shape(s), nil
	}
	return "", fmt.Errorf("unknown shape %q, want %q or %q", s, ShapeEmbedded, ShapeForeign)
}

// Config for a stress run.
type Config struct {
	// Workers is the number of goroutines sharing each object.
	Workers int
	// Trials is the number of objects created, one after another.
	Trials int
	// CopiesPerWorker is how many extra Refs each worker clones and drops
	// before dropping its own.
	CopiesPerWorker int
	Shape           Shape
}

func DefaultConfig() Config {
	return Config{
		Workers:         8,
		Trials:          1000,
		CopiesPerWorker: 16,
		Shape:           ShapeEmbedded,
	}
}

func (c *Config) Validate() (err error) {
	if c.Workers < 1 {
		err = errors.Join(err, fmt.Errorf("Workers must be at least 1 but was %d", c.Workers))
	}
	if c.Trials < 1 {
		err = errors.Join(err, fmt.Errorf("Trials must be at least 1 but was %d", c.Trials))
	}
	if c.CopiesPerWorker < 0 {
		err = errors.Join(err, fmt.Errorf("CopiesPerWorker can't be negative but was %d", c.CopiesPerWorker))
	}
	if _, shapeErr := ParseShape(string(c.Shape)); shapeErr != nil {
		err = errors.Join(err, shapeErr)
	}
	return err
}
