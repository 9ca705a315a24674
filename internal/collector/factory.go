package collector

import (
	"fmt"

	"github.com/qepting91/caption-importer/internal/config"
	"github.com/qepting91/caption-importer/internal/domain"
)

// NewCollector selects the correct implementation based on the mode
func NewCollector(cfg config.Collector) (domain.Collector, error) {
	switch cfg.Mode {
	case "instagram":
		ic, err := NewInstagramClient(cfg)
		if err != nil {
			return nil, err
		}
		return ic, nil
	case "reddit":
		if cfg.UserAgent == "" {
			return nil, fmt.Errorf("USER_AGENT is required for reddit mode")
		}
		rc, err := NewRedditClient(cfg)
		if err != nil {
			return nil, err
		}
		return rc, nil
	case "mock":
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unknown COLLECTOR_MODE: %s (use 'instagram', 'reddit', or 'mock')", cfg.Mode)
	}
}
