package storage

import (
	"errors"
	"io/fs"
	"testing"

	platformerrors "github.com/jmgilman/go/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrors_Codes(t *testing.T) {
	cases := map[error]platformerrors.ErrorCode{
		ErrNotFound:                   platformerrors.CodeNotFound,
		ErrMalformed:                  platformerrors.CodeInternal,
		ErrTypeMismatch:               platformerrors.CodeInvalidInput,
		ErrWriteFailed:                platformerrors.CodeInternal,
		ErrDirectoryEnumerationFailed: platformerrors.CodeInternal,
		ErrDeallocated:                platformerrors.CodeUnavailable,
		ErrInvalidConfig:              platformerrors.CodeInvalidConfig,
	}
	for err, code := range cases {
		assert.Equal(t, code, platformerrors.GetCode(err), err.Error())
	}
}

func TestErrors_WrapKeepsBoth(t *testing.T) {
	err := wrap(ErrNotFound, fs.ErrNotExist)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, platformerrors.CodeNotFound, platformerrors.GetCode(err))
	assert.Contains(t, err.Error(), "object not found")

	assert.Same(t, ErrDeallocated, wrap(ErrDeallocated, nil))
	assert.False(t, IsNotFound(errors.New("other")))
}
