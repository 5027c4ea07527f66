// SPDX-License-Identifier: AGPL-3.0
// Copyright 2025 Kadir Pekel
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0) (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.gnu.org/licenses/agpl-3.0.en.html
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects Prometheus counters/histograms for the graph runner,
// the executor's tool steps, and the HTTP surface. A nil *Metrics is
// valid everywhere it's accepted: every recording method is a no-op on a
// nil receiver, so callers never need to branch on whether metrics are
// enabled.
type Metrics struct {
	registry *prometheus.Registry

	nodeRuns     *prometheus.CounterVec
	nodeDuration *prometheus.HistogramVec
	nodeErrors   *prometheus.CounterVec

	llmCalls        *prometheus.CounterVec
	llmCallDuration *prometheus.HistogramVec

	toolCalls        *prometheus.CounterVec
	toolCallDuration *prometheus.HistogramVec
	toolErrors       *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// NewMetrics builds a Metrics instance registered against a fresh
// Prometheus registry, or returns (nil, nil) when cfg disables metrics.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	m := &Metrics{registry: prometheus.NewRegistry()}

	m.nodeRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "genesis_graph_node_runs_total",
		Help: "Agent Graph node invocations, by node name.",
	}, []string{"node"})
	m.nodeDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "genesis_graph_node_duration_seconds",
		Help:    "Agent Graph node wall-clock duration.",
		Buckets: prometheus.DefBuckets,
	}, []string{"node"})
	m.nodeErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "genesis_graph_node_errors_total",
		Help: "Agent Graph node invocations that returned an error.",
	}, []string{"node"})

	m.llmCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "genesis_llm_calls_total",
		Help: "LLM chat-completion calls, by node.",
	}, []string{"node"})
	m.llmCallDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "genesis_llm_call_duration_seconds",
		Help:    "LLM chat-completion call duration.",
		Buckets: prometheus.DefBuckets,
	}, []string{"node"})

	m.toolCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "genesis_tool_calls_total",
		Help: "Tool pipeline runs, by the joined tool names of the path.",
	}, []string{"tool"})
	m.toolCallDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "genesis_tool_call_duration_seconds",
		Help:    "Tool pipeline wall-clock duration, including subprocess spawns.",
		Buckets: prometheus.DefBuckets,
	}, []string{"tool"})
	m.toolErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "genesis_tool_errors_total",
		Help: "Tool pipeline runs that failed, including step timeouts.",
	}, []string{"tool"})

	m.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "genesis_http_requests_total",
		Help: "HTTP requests, by route and status class.",
	}, []string{"route", "status"})
	m.httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "genesis_http_request_duration_seconds",
		Help:    "HTTP request duration, by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	m.registry.MustRegister(
		m.nodeRuns, m.nodeDuration, m.nodeErrors,
		m.llmCalls, m.llmCallDuration,
		m.toolCalls, m.toolCallDuration, m.toolErrors,
		m.httpRequests, m.httpDuration,
	)

	return m, nil
}

// Registry exposes the underlying registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) RecordNode(node string, dur time.Duration, err error) {
	if m == nil {
		return
	}
	m.nodeRuns.WithLabelValues(node).Inc()
	m.nodeDuration.WithLabelValues(node).Observe(dur.Seconds())
	if err != nil {
		m.nodeErrors.WithLabelValues(node).Inc()
	}
}

func (m *Metrics) RecordLLMCall(node string, dur time.Duration) {
	if m == nil {
		return
	}
	m.llmCalls.WithLabelValues(node).Inc()
	m.llmCallDuration.WithLabelValues(node).Observe(dur.Seconds())
}

func (m *Metrics) RecordToolCall(tool string, dur time.Duration, failed bool) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(tool).Inc()
	m.toolCallDuration.WithLabelValues(tool).Observe(dur.Seconds())
	if failed {
		m.toolErrors.WithLabelValues(tool).Inc()
	}
}

func (m *Metrics) RecordHTTPRequest(route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, status).Inc()
	m.httpDuration.WithLabelValues(route).Observe(dur.Seconds())
}
