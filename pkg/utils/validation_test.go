package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/Apanazar/WGE/pkg/errors"
)

type sampleRequest struct {
	URL   string `validate:"required,url"`
	Limit int    `validate:"min=0,max=100"`
}

func TestValidateStruct(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		require.NoError(t, ValidateStruct(sampleRequest{URL: "https://en.wikipedia.org/wiki/Go", Limit: 5}))
	})

	t.Run("reports every field", func(t *testing.T) {
		err := ValidateStruct(sampleRequest{Limit: 500})
		require.Error(t, err)
		assert.True(t, pkgerrors.IsValidation(err))
		assert.Contains(t, err.Error(), "url is required")
		assert.Contains(t, err.Error(), "limit must be at most 100")
	})
}

func TestParseISO(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 30, 0, 123000000, time.UTC)

	parsed, err := ParseISO(FormatISO(ts))
	require.NoError(t, err)
	assert.True(t, ts.Equal(parsed))

	parsed, err = ParseISO("2024-03-01T10:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, 10, parsed.Hour())

	_, err = ParseISO("yesterday")
	assert.Error(t, err)
}
