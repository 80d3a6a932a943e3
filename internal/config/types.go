// Copyright (c) 2026 John Dewey

// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to
// deal in the Software without restriction, including without limitation the
// rights to use, copy, modify, merge, publish, distribute, sublicense, and/or
// sell copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:

// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.

// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
// FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER
// DEALINGS IN THE SOFTWARE.

package config

import "time"

// Config represents the root structure of the YAML configuration file.
// This struct is used to unmarshal configuration data from Viper.
type Config struct {
	Backend Backend `mapstructure:"backend" mask:"struct"`
	// Environment selects the timeout budgets: "development" or "release".
	Environment string      `mapstructure:"environment" validate:"omitempty,oneof=development release"`
	Timeouts    Timeouts    `mapstructure:"timeouts,omitempty"`
	Session     Session     `mapstructure:"session,omitempty"`
	Realtime    Realtime    `mapstructure:"realtime,omitempty"`
	Diagnostics Diagnostics `mapstructure:"diagnostics,omitempty"`
	Telemetry   Telemetry   `mapstructure:"telemetry"`
	// Debug enable or disable debug option set from CLI.
	Debug bool `mapstructure:"debug"`
}

// Backend holds the connection settings for the hosted backend. Both
// values may be absent; requests then short-circuit with missing_config.
type Backend struct {
	// URL is the backend base URL (e.g., "https://abc.example.co").
	URL string `mapstructure:"url"     validate:"omitempty,url"`
	// APIKey is the public (anonymous) API key sent with every request.
	APIKey string `mapstructure:"api_key" mask:"password"`
}

// Timeouts overrides the per-environment budgets. Zero values fall back
// to the environment defaults.
type Timeouts struct {
	Transport time.Duration `mapstructure:"transport" validate:"gte=0"`
	RPC       time.Duration `mapstructure:"rpc"       validate:"gte=0"`
	Storage   time.Duration `mapstructure:"storage"   validate:"gte=0"`
	Refresh   time.Duration `mapstructure:"refresh"   validate:"gte=0"`
}

// Session configuration for persisting the auth session locally.
type Session struct {
	// Dir is the directory holding the persisted session document.
	Dir string `mapstructure:"dir"`
	// AutoRefreshInterval is how often the foreground auto-refresh tick runs.
	AutoRefreshInterval time.Duration `mapstructure:"auto_refresh_interval" validate:"gte=0"`
}

// Realtime configuration for the NATS-backed realtime channel.
type Realtime struct {
	// Enabled turns the realtime channel on.
	Enabled bool `mapstructure:"enabled"`
	// Host the NATS server hostname.
	Host string `mapstructure:"host"`
	// Port the NATS server port.
	Port int `mapstructure:"port" validate:"gte=0,lte=65535"`
	// ClientName the NATS client name for identification.
	ClientName string `mapstructure:"client_name"`
	// Prefix is prepended to every realtime subject.
	Prefix string `mapstructure:"prefix"`
}

// Diagnostics configuration for the event recorder and debug surfaces.
type Diagnostics struct {
	// Capacity is the number of network events retained.
	Capacity int `mapstructure:"capacity" validate:"gte=0"`
	// ThrottleWindow is the minimum spacing of reports sharing a key.
	ThrottleWindow time.Duration `mapstructure:"throttle_window" validate:"gte=0"`
	// StartupGrace downgrades auth-class reports right after launch.
	StartupGrace time.Duration `mapstructure:"startup_grace" validate:"gte=0"`
	// Server is the local debug HTTP server.
	Server DiagnosticsServer `mapstructure:"server,omitempty"`
	// Export is the NATS KV bucket receiving snapshots.
	Export DiagnosticsExport `mapstructure:"export,omitempty"`
}

// DiagnosticsServer configuration for the debug HTTP server.
type DiagnosticsServer struct {
	// Port the server will bind to.
	Port int `mapstructure:"port" validate:"gte=0,lte=65535"`
	// ShutdownTimeout bounds the graceful stop of the server.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gte=0"`
}

// DiagnosticsExport configuration for pushing snapshots to NATS KV.
type DiagnosticsExport struct {
	// Bucket is the KV bucket name for snapshots.
	Bucket string `mapstructure:"bucket"`
	// TTL of each snapshot entry (e.g., "24h").
	TTL time.Duration `mapstructure:"ttl" validate:"gte=0"`
}

// Telemetry configuration settings.
type Telemetry struct {
	Tracing TracingConfig `mapstructure:"tracing,omitempty"`
	Metrics MetricsConfig `mapstructure:"metrics,omitempty"`
}

// MetricsConfig configuration settings for Prometheus metrics.
type MetricsConfig struct {
	// Path is the HTTP path for the Prometheus scrape endpoint.
	// Defaults to "/metrics" when empty.
	Path string `mapstructure:"path"`
}

// TracingConfig configuration settings for distributed tracing.
type TracingConfig struct {
	// Enabled enables or disables tracing.
	Enabled bool `mapstructure:"enabled"`
	// Exporter selects the trace exporter: "stdout" or "otlp".
	Exporter string `mapstructure:"exporter" validate:"omitempty,oneof=none stdout otlp"`
	// OTLPEndpoint is the gRPC endpoint for the OTLP exporter (e.g., "localhost:4317").
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}
