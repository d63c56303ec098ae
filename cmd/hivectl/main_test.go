package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUsageErrf_CarriesExitCode2(t *testing.T) {
	err := usageErrf("bad flag %q", "--foo")
	var ec *exitCodeError
	ok := errors.As(err, &ec)
	assert.True(t, ok)
	assert.Equal(t, 2, ec.code)
}

func TestRuntimeErrf_CarriesExitCode1(t *testing.T) {
	err := runtimeErrf("boom: %w", errors.New("disk full"))
	var ec *exitCodeError
	assert.True(t, errors.As(err, &ec))
	assert.Equal(t, 1, ec.code)
}

func TestWrapRuntimeErr_PreservesExistingExitCode(t *testing.T) {
	inner := usageErrf("already classified")
	wrapped := wrapRuntimeErr(inner)
	var ec *exitCodeError
	assert.True(t, errors.As(wrapped, &ec))
	assert.Equal(t, 2, ec.code, "wrapping an already-classified error must not downgrade it to exit 1")
}

func TestWrapRuntimeErr_Nil(t *testing.T) {
	assert.Nil(t, wrapRuntimeErr(nil))
}
