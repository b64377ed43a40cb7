package config

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

const templateHeader = `# boxtop configuration
# Dashboard for the shroombox fruiting-chamber controller.
#
# server.url must point at the controller's web API.
`

// yamlConfig mirrors Config with yaml tags for template generation.
// Viper reads with mapstructure tags; this struct exists only so the
// generated template uses the same key names.
type yamlConfig struct {
	Server struct {
		URL            string `yaml:"url"`
		RequestTimeout string `yaml:"request_timeout"`
		PollInterval   string `yaml:"poll_interval"`
		CacheTTL       string `yaml:"cache_ttl"`
	} `yaml:"server"`
	Stream struct {
		BufferSize        int    `yaml:"buffer_size"`
		ReconnectMinDelay string `yaml:"reconnect_min_delay"`
		ReconnectMaxDelay string `yaml:"reconnect_max_delay"`
	} `yaml:"stream"`
	UI struct {
		ShowStatusBar bool `yaml:"show_status_bar"`
		Mouse         bool `yaml:"mouse"`
	} `yaml:"ui"`
	Tracing struct {
		Enabled      bool    `yaml:"enabled"`
		Exporter     string  `yaml:"exporter"`
		OTLPEndpoint string  `yaml:"otlp_endpoint"`
		SampleRate   float64 `yaml:"sample_rate"`
	} `yaml:"tracing"`
}

// DefaultConfigTemplate returns the default config rendered as commented YAML.
func DefaultConfigTemplate() string {
	d := Defaults()

	var y yamlConfig
	y.Server.URL = d.Server.URL
	y.Server.RequestTimeout = d.Server.RequestTimeout.String()
	y.Server.PollInterval = d.Server.PollInterval.String()
	y.Server.CacheTTL = d.Server.CacheTTL.String()
	y.Stream.BufferSize = d.Stream.BufferSize
	y.Stream.ReconnectMinDelay = d.Stream.ReconnectMinDelay.String()
	y.Stream.ReconnectMaxDelay = d.Stream.ReconnectMaxDelay.String()
	y.UI.ShowStatusBar = d.UI.ShowStatusBar
	y.UI.Mouse = d.UI.Mouse
	y.Tracing.Enabled = d.Tracing.Enabled
	y.Tracing.Exporter = d.Tracing.Exporter
	y.Tracing.OTLPEndpoint = d.Tracing.OTLPEndpoint
	y.Tracing.SampleRate = d.Tracing.SampleRate

	var buf bytes.Buffer
	buf.WriteString(templateHeader)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(y); err != nil {
		// Encoding a static struct cannot fail in practice; fall back to
		// an empty file rather than panicking at startup.
		return fmt.Sprintf("%s# template generation failed: %v\n", templateHeader, err)
	}
	_ = enc.Close()
	return buf.String()
}
