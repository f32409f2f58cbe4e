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
	"bytes"
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

type hookItem struct {
	bun.BaseModel `bun:"table:hook_items"`

	ID   int64  `bun:"id,pk,autoincrement"`
	Name string `bun:"name"`
}

func TestMetricsHook(t *testing.T) {
	db := newMemoryDB(t)
	reg := prometheus.NewRegistry()
	hook := NewMetricsHook(reg)
	db.AddQueryHook(hook)

	ctx := context.Background()
	_, err := db.NewCreateTable().Model((*hookItem)(nil)).Exec(ctx)
	require.NoError(t, err)
	_, err = db.NewInsert().Model(&hookItem{Name: "a"}).Exec(ctx)
	require.NoError(t, err)
	_, err = db.NewSelect().Model((*hookItem)(nil)).Where("nope = 1").Count(ctx)
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(hook.QueryTotal.WithLabelValues("INSERT", "hook_items", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(hook.QueryTotal.WithLabelValues("SELECT", "hook_items", "error")))
	assert.Equal(t, 3, testutil.CollectAndCount(hook.QueryDuration), "create table, insert, select")
}

func TestQueryHook(t *testing.T) {
	t.Setenv("KEEPER_SQL_LOG", "1")
	db := newMemoryDB(t)
	var buf bytes.Buffer
	db.AddQueryHook(NewQueryHook(&buf, false))

	ctx := context.Background()
	_, err := db.NewCreateTable().Model((*hookItem)(nil)).Exec(ctx)
	require.NoError(t, err)
	assert.Empty(t, buf.String(), "successful queries are only printed in verbose mode")

	_, _ = db.NewSelect().Model((*hookItem)(nil)).Where("nope = 1").Count(ctx)
	assert.Contains(t, buf.String(), "[BUN]")
	assert.Contains(t, buf.String(), "nope")

	buf.Reset()
	t.Setenv("KEEPER_SQL_LOG", "2")
	_, err = db.NewInsert().Model(&hookItem{Name: "b"}).Exec(ctx)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "INSERT")

	buf.Reset()
	EnableBunSqlSilent(true)
	defer EnableBunSqlSilent(false)
	_, err = db.NewInsert().Model(&hookItem{Name: "c"}).Exec(ctx)
	require.NoError(t, err)
	assert.Empty(t, buf.String())
}
