package postgres

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Params holds PostgreSQL-specific configuration.
// Parsed from adapter.Config.Params using mapstructure.
type Params struct {
	ApplicationName string `mapstructure:"application_name"`
	SearchPath      string `mapstructure:"search_path"`

	// ConnectTimeout in seconds
	ConnectTimeout int `mapstructure:"connect_timeout"`

	MaxOpenConns int `mapstructure:"max_open_conns"`
}

func parseParams(raw map[string]any) (*Params, error) {
	p := &Params{}
	if len(raw) == 0 {
		return p, nil
	}
	if err := mapstructure.WeakDecode(raw, p); err != nil {
		return nil, fmt.Errorf("invalid postgres params: %w", err)
	}
	return p, nil
}
