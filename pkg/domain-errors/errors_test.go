package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCodeWalksChain(t *testing.T) {
	base := New(CodeConflict, "type name already exists")
	wrapped := Wrap(base, CodeValidation, "create rejected")

	assert.True(t, HasCode(wrapped, CodeValidation))
	assert.True(t, HasCode(wrapped, CodeConflict))
	assert.False(t, HasCode(wrapped, CodePermission))
}

func TestCodeOfUsesOutermost(t *testing.T) {
	inner := New(CodeNotFound, "row missing")
	outer := Wrap(inner, CodeIntegrity, "service type not found")

	assert.Equal(t, CodeIntegrity, CodeOf(outer))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
}

func TestWrapNilReturnsNil(t *testing.T) {
	require.NoError(t, Wrap(nil, CodeInternal, "should vanish"))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(fmt.Errorf("query failed: %w", cause), CodeInternal, "page query")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "page query")
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeValidation: http.StatusBadRequest,
		CodeAuth:       http.StatusUnauthorized,
		CodePermission: http.StatusForbidden,
		CodeNotFound:   http.StatusNotFound,
		CodeIntegrity:  http.StatusConflict,
		CodeConflict:   http.StatusConflict,
		CodeInternal:   http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, HTTPStatus(code), string(code))
	}
}
