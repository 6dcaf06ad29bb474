package aegiserr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapStorageWrapsUnknownErrors(t *testing.T) {
	boom := errors.New("disk full")
	err := WrapStorage(boom)
	assert.True(t, errors.Is(err, ErrStorageFailure))
	assert.True(t, errors.Is(err, boom))
}

func TestWrapStorageLeavesSentinelsAlone(t *testing.T) {
	err := WrapStorage(ErrEntityNotFound)
	assert.True(t, errors.Is(err, ErrEntityNotFound))
	assert.False(t, errors.Is(err, ErrStorageFailure))
}

func TestWrapStorageLeavesInsufficientPermissionAlone(t *testing.T) {
	permErr := &InsufficientPermissionError{Actor: "user:bob", Scope: "team:sales", Required: 0x01, Have: 0}
	err := WrapStorage(permErr)
	assert.True(t, errors.Is(err, ErrInsufficientPermission))
	assert.False(t, errors.Is(err, ErrStorageFailure))
}

func TestWrapStorageNilIsNil(t *testing.T) {
	assert.NoError(t, WrapStorage(nil))
}
