package config

import (
	"fmt"
	"strings"
)

// DomainConfig holds the graph engine rules
type DomainConfig struct {
	// Labels
	LabelMaxLength     int
	FileLabelMaxLength int
	LabelEllipsis      string

	// Expansion
	LinkLimit    int
	MaxLinkLimit int

	// Uploads
	BlockedExtensions []string
	ThumbnailMaxSize  int
	ThumbnailQuality  int
	UploadOffset      float64

	// Persistence
	SchemaVersion   string
	FileNamePrefix  string
	DefaultLanguage string

	// Behaviour switches
	AllowSelfConnections bool
	DropDanglingEdges    bool
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		LabelMaxLength:     30,
		FileLabelMaxLength: 25,
		LabelEllipsis:      "...",

		LinkLimit:    10,
		MaxLinkLimit: 200,

		BlockedExtensions: []string{"exe", "bat", "cmd", "sh", "msi", "dmg", "app", "jar", "pkg"},
		ThumbnailMaxSize:  200,
		ThumbnailQuality:  80,
		UploadOffset:      30,

		SchemaVersion:   "3.2",
		FileNamePrefix:  "wiki-graph",
		DefaultLanguage: "en",

		AllowSelfConnections: false,
		DropDanglingEdges:    true,
	}
}

// ProductionDomainConfig returns production-specific configuration
func ProductionDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()
	config.MaxLinkLimit = 100
	return config
}

// DevelopmentDomainConfig returns development-specific configuration
func DevelopmentDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()
	config.MaxLinkLimit = 1000
	return config
}

// LoadDomainConfig loads domain configuration based on environment
func LoadDomainConfig(environment string) *DomainConfig {
	switch environment {
	case "production":
		return ProductionDomainConfig()
	case "development":
		return DevelopmentDomainConfig()
	default:
		return DefaultDomainConfig()
	}
}

// IsBlockedExtension reports whether ext (with or without the dot) is denied.
func (c *DomainConfig) IsBlockedExtension(ext string) bool {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, blocked := range c.BlockedExtensions {
		if ext == blocked {
			return true
		}
	}
	return false
}

// EffectiveLinkLimit clamps a requested expansion limit.
func (c *DomainConfig) EffectiveLinkLimit(requested int) int {
	if requested <= 0 {
		return c.LinkLimit
	}
	if c.MaxLinkLimit > 0 && requested > c.MaxLinkLimit {
		return c.MaxLinkLimit
	}
	return requested
}

// Validate checks if the configuration is valid
func (c *DomainConfig) Validate() error {
	if c.LabelMaxLength <= 0 || c.FileLabelMaxLength <= 0 {
		return fmt.Errorf("label lengths must be positive")
	}
	if c.ThumbnailMaxSize <= 0 {
		return fmt.Errorf("thumbnail size must be positive")
	}
	if c.ThumbnailQuality < 1 || c.ThumbnailQuality > 100 {
		return fmt.Errorf("thumbnail quality must be within 1..100, got %d", c.ThumbnailQuality)
	}
	if c.LinkLimit < 0 {
		return fmt.Errorf("link limit must not be negative")
	}
	if c.SchemaVersion == "" {
		return fmt.Errorf("schema version is required")
	}
	return nil
}
