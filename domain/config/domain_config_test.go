package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultDomainConfig(t *testing.T) {
	cfg := DefaultDomainConfig()

	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 30, cfg.LabelMaxLength)
	assert.Equal(t, 25, cfg.FileLabelMaxLength)
	assert.Equal(t, "3.2", cfg.SchemaVersion)
}

func TestIsBlockedExtension(t *testing.T) {
	cfg := DefaultDomainConfig()

	tests := []struct {
		ext     string
		blocked bool
	}{
		{"exe", true},
		{".EXE", true},
		{"Sh", true},
		{"pdf", false},
		{"", false},
		{"shx", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.blocked, cfg.IsBlockedExtension(tt.ext), tt.ext)
	}
}

func TestEffectiveLinkLimit(t *testing.T) {
	cfg := DefaultDomainConfig()

	assert.Equal(t, 10, cfg.EffectiveLinkLimit(0))
	assert.Equal(t, 3, cfg.EffectiveLinkLimit(3))
	assert.Equal(t, cfg.MaxLinkLimit, cfg.EffectiveLinkLimit(100000))
}

func TestValidateRejectsBadQuality(t *testing.T) {
	cfg := DefaultDomainConfig()
	cfg.ThumbnailQuality = 0
	assert.Error(t, cfg.Validate())
}
