/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/uptrace/bun"
)

// MetricsHook records query counts and latencies per operation and table.
type MetricsHook struct {
	QueryTotal    *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec
}

var _ bun.QueryHook = (*MetricsHook)(nil)

var (
	defaultMetricsHook     *MetricsHook
	defaultMetricsHookOnce sync.Once
)

// NewMetricsHook registers the query collectors on reg.
func NewMetricsHook(reg prometheus.Registerer) *MetricsHook {
	factory := promauto.With(reg)
	return &MetricsHook{
		QueryTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "keeper_db_queries_total",
			Help: "Total number of database queries by operation, table and status",
		}, []string{"operation", "table", "status"}),

		QueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "keeper_db_query_duration_seconds",
			Help:    "Duration of database queries by operation and table",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation", "table"}),
	}
}

// DefaultMetricsHook returns the hook registered on the default Prometheus registry.
func DefaultMetricsHook() *MetricsHook {
	defaultMetricsHookOnce.Do(func() {
		defaultMetricsHook = NewMetricsHook(prometheus.DefaultRegisterer)
	})
	return defaultMetricsHook
}

func (h *MetricsHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (h *MetricsHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	operation := event.Operation()
	table := "unknown"
	if event.IQuery != nil {
		if name := event.IQuery.GetTableName(); name != "" {
			table = name
		}
	}

	status := "ok"
	if event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows) {
		status = "error"
	}

	h.QueryTotal.WithLabelValues(operation, table, status).Inc()
	h.QueryDuration.WithLabelValues(operation, table).Observe(time.Since(event.StartTime).Seconds())
}
