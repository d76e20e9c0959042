package duckdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParams(t *testing.T) {
	tests := []struct {
		name    string
		input   map[string]any
		want    *Params
		wantErr string
	}{
		{
			name: "nil params",
			want: &Params{},
		},
		{
			name:  "empty map",
			input: map[string]any{},
			want:  &Params{},
		},
		{
			name:  "extensions",
			input: map[string]any{"extensions": []any{"httpfs", "parquet"}},
			want:  &Params{Extensions: []string{"httpfs", "parquet"}},
		},
		{
			name:  "settings are weakly typed",
			input: map[string]any{"settings": map[string]any{"threads": 4, "memory_limit": "1GB"}},
			want:  &Params{Settings: map[string]string{"threads": "4", "memory_limit": "1GB"}},
		},
		{
			name: "secret with scope list",
			input: map[string]any{
				"secrets": []any{
					map[string]any{
						"type":     "s3",
						"provider": "config",
						"key_id":   "minio",
						"use_ssl":  "false",
						"scope":    []any{"s3://members", "s3://seeds"},
					},
				},
			},
			want: &Params{Secrets: []SecretConfig{{
				Type:     "s3",
				Provider: "config",
				KeyID:    "minio",
				UseSSL:   boolPtr(false),
				Scope:    []any{"s3://members", "s3://seeds"},
			}}},
		},
		{
			name:    "unknown key",
			input:   map[string]any{"extension": []any{"httpfs"}},
			wantErr: "invalid duckdb params",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseParams(tt.input)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func boolPtr(b bool) *bool {
	return &b
}
