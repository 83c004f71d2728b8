package validator

import (
	"errors"
	"io"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/nulzo/prism-local/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValidationError_FieldNames(t *testing.T) {
	InitValidator()

	err := binding.Validator.ValidateStruct(&api.RecentQuery{Limit: -1})
	require.Error(t, err)

	fields := ParseValidationError(err)
	assert.Contains(t, fields, "limit")
	assert.NotContains(t, fields, "Limit")
}

func TestParseValidationError_Fallbacks(t *testing.T) {
	_, numErr := strconv.Atoi("abc")

	assert.Equal(t, map[string]string{"query": `invalid number "abc"`}, ParseValidationError(numErr))
	assert.Equal(t, map[string]string{"body": "request body is empty"}, ParseValidationError(io.EOF))
	assert.Equal(t, map[string]string{"body": "request body must be a valid JSON object"},
		ParseValidationError(errors.New("boom")))
}
