package dberrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Error(t *testing.T) {
	err := NotFound("entity %s", "#1-1")
	assert.Equal(t, "entity #1-1", err.Error())
}

func TestError_ErrorFallsBackToWrapped(t *testing.T) {
	cause := errors.New("boom")
	err := DatabaseError(cause, "")
	err.Message = ""

	assert.Equal(t, "boom", err.Error())
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := DatabaseError(cause, "persist failed")

	assert.ErrorIs(t, err, cause)
}

func TestIs(t *testing.T) {
	err := SecurityViolation("missing capability")

	assert.True(t, Is(err, KindSecurityViolation))
	assert.False(t, Is(err, KindNotFound))
	assert.False(t, Is(errors.New("plain"), KindSecurityViolation))
}

func TestError_IsMatchesOnKindOnly(t *testing.T) {
	a := NotFound("a")
	b := NotFound("different message")

	assert.True(t, errors.Is(a, b))
}

func TestRaiseAndRecoverPanicMode(t *testing.T) {
	var caught error

	func() {
		defer Recover(&caught)

		_ = Raise(Panic, Impossible("cannot delete reserved entity"))
	}()

	assert.True(t, Is(caught, KindImpossible))
}

func TestRaiseReturnMode(t *testing.T) {
	err := Raise(Return, BadArguments("empty name"))
	assert.True(t, Is(err, KindBadArguments))
}

func TestAmbiguous(t *testing.T) {
	err := Ambiguous("%q matches more than one entity", "go")
	assert.True(t, Is(err, KindAmbiguous))
	assert.Equal(t, `"go" matches more than one entity`, err.Error())
}
