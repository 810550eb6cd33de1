package clierr_test

import (
	"errors"
	"testing"

	"github.com/andrewbearsley/withings-skill/pkg/clierr"
	"github.com/stretchr/testify/assert"
)

func TestError_MessageAndUnwrap(t *testing.T) {
	underlying := errors.New("boom")
	err := clierr.New(clierr.Transport, "network trouble, retry later", underlying)

	assert.Equal(t, "network trouble, retry later", err.Error())
	assert.ErrorIs(t, err, underlying)
	assert.Equal(t, clierr.Transport, err.Type)
}

func TestError_NilUnderlying(t *testing.T) {
	err := clierr.New(clierr.Validation, "client_id is required", nil)

	assert.Equal(t, "client_id is required", err.Error())
	assert.Nil(t, errors.Unwrap(err))
}

func TestError_TypeMatrix(t *testing.T) {
	testCases := []struct {
		typ clierr.Type
		msg string
	}{
		{clierr.NotAuthorized, "run 'withings authorize' first"},
		{clierr.Provider, "provider rejected the refresh"},
		{clierr.Internal, "unexpected failure"},
	}

	for _, tc := range testCases {
		err := clierr.New(tc.typ, tc.msg, nil)
		assert.Equal(t, tc.typ, err.Type)
		assert.Equal(t, tc.msg, err.Error())
	}
}
