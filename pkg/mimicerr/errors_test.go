package mimicerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindFatal(t *testing.T) {
	assert.True(t, Config.Fatal())
	assert.True(t, Invariant.Fatal())
	assert.True(t, Memory.Fatal())
	assert.True(t, Limit.Fatal())
	assert.False(t, IO.Fatal())
	assert.False(t, Format.Fatal())
	assert.False(t, Module.Fatal())
}

func TestWrapAndUnwrap(t *testing.T) {
	cause := errors.New("truncated record")
	err := Wrap(IO, "tree_000.dat", "reading header: %w", cause)

	assert.True(t, errors.Is(err, cause))
	kind, ok := KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, IO, kind)
	assert.Contains(t, err.Error(), "tree_000.dat")
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(New(Config, "", errors.New("missing key"))))
	assert.False(t, IsFatal(New(IO, "", errors.New("skip"))))
	assert.False(t, IsFatal(nil))
	assert.True(t, IsFatal(errors.New("unclassified")))
}
