package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	testCases := []struct {
		name      string
		cfg       Config
		expectErr string
		expected  *Config
	}{
		{
			name:     "defaults",
			cfg:      Config{Paths: []string{"rigs"}},
			expected: &Config{Paths: []string{"rigs"}, LogFormat: "text", LogLevel: "info", ReportFormat: "table"},
		},
		{
			name:     "normalizes case",
			cfg:      Config{Paths: []string{"rigs"}, LogFormat: "JSON", LogLevel: "Debug", ReportFormat: "YAML"},
			expected: &Config{Paths: []string{"rigs"}, LogFormat: "json", LogLevel: "debug", ReportFormat: "yaml"},
		},
		{name: "no paths", cfg: Config{}, expectErr: "manifest path"},
		{name: "bad log format", cfg: Config{Paths: []string{"x"}, LogFormat: "xml"}, expectErr: "invalid log-format"},
		{name: "bad log level", cfg: Config{Paths: []string{"x"}, LogLevel: "trace"}, expectErr: "invalid log-level"},
		{name: "bad report format", cfg: Config{Paths: []string{"x"}, ReportFormat: "csv"}, expectErr: "invalid report-format"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := NewConfig(tc.cfg)
			if tc.expectErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.expectErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, cfg)
		})
	}
}
