// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package observability

// Config groups the tracing and metrics settings loaded from the root
// config file's observability section.
type Config struct {
	Tracing TracingConfig `yaml:"tracing,omitempty"`
	Metrics MetricsConfig `yaml:"metrics,omitempty"`
}

// TracingConfig controls whether graph runs are traced and where spans
// are exported.
type TracingConfig struct {
	Enabled       bool    `yaml:"enabled,omitempty"`
	ExporterType  string  `yaml:"exporter_type,omitempty"` // "otlp" or "" (noop)
	EndpointURL   string  `yaml:"endpoint_url,omitempty"`
	SamplingRatio float64 `yaml:"sampling_ratio,omitempty"`
	ServiceName   string  `yaml:"service_name,omitempty"`
}

// MetricsConfig controls whether Prometheus metrics are collected and
// exposed.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled,omitempty"`
}
