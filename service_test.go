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

package keeper

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/keeper/database"
	"github.com/tomoncle/keeper/repository"
	"github.com/tomoncle/keeper/types"
	"github.com/uptrace/bun"
)

type Article struct {
	bun.BaseModel `bun:"table:articles,alias:a"`

	ID    int64  `bun:"id,pk,autoincrement"`
	Title string `bun:"title,notnull" validate:"required"`
	Body  string `bun:"body"`
	repository.SoftDeletes
}

func (*Article) Relations() map[string]repository.Relation {
	return map[string]repository.Relation{
		"labels": repository.BelongsToMany[ArticleLabel]{OwnerKey: "article_id", RelatedKey: "label_id"},
	}
}

type Label struct {
	bun.BaseModel `bun:"table:labels,alias:l"`

	ID   int64  `bun:"id,pk,autoincrement"`
	Name string `bun:"name"`
}

type ArticleLabel struct {
	bun.BaseModel `bun:"table:article_labels,alias:al"`

	ArticleID int64 `bun:"article_id,pk"`
	LabelID   int64 `bun:"label_id,pk"`
	Weight    int   `bun:"weight"`
}

func setupDB(t *testing.T) {
	t.Helper()
	database.RegisterModels(1, (*Article)(nil), (*Label)(nil))
	database.RegisterModels(2, (*ArticleLabel)(nil))

	cfg := database.DefaultConfig()
	cfg.ConnectionConfig.Type = "sqlite"
	cfg.ConnectionConfig.DBName = ":memory:"
	cfg.DataMigrateConfig.EnableMigrateOnStartup = true

	_, err := database.InitDB(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.CloseDB() })
}

func TestService(t *testing.T) {
	setupDB(t)
	ctx := context.Background()
	articles := NewService[Article]()
	labels := NewService[Label]()

	first, err := articles.Save(ctx, map[string]any{"title": "hello", "body": "world"})
	require.NoError(t, err)
	second, err := articles.Save(ctx, map[string]any{"title": "bye"})
	require.NoError(t, err)

	_, err = articles.Save(ctx, map[string]any{"body": "no title"})
	assert.True(t, repository.IsValidation(err))

	got, err := articles.Get(ctx, first["id"], "title")
	require.NoError(t, err)
	assert.Equal(t, repository.Record{"title": "hello", repository.TrashedKey: false}, got)

	ok, err := articles.Update(ctx, second["id"], map[string]any{"body": "see you"})
	require.NoError(t, err)
	assert.True(t, ok)

	n, err := articles.Delete(ctx, second["id"])
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	all, err := articles.All(ctx, types.NewOrder().Desc("id"))
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "bye", all[0]["title"])
	assert.True(t, all[0].Trashed())
	assert.Equal(t, "see you", all[0]["body"])

	n, err = articles.Restore(ctx, second["id"])
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	visible, err := articles.SelectBuilder().Model((*Article)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, visible)

	label, err := labels.Save(ctx, map[string]any{"name": "news"})
	require.NoError(t, err)
	require.NoError(t, articles.Attach(ctx, first["id"], "labels", label["id"], map[string]any{"weight": 3}))

	var pivot ArticleLabel
	require.NoError(t, database.GetDB().NewSelect().Model(&pivot).Scan(ctx))
	assert.Equal(t, 3, pivot.Weight)
	require.NoError(t, articles.Detach(ctx, first["id"], "labels", nil))

	page, err := articles.Page(ctx, types.NewPageRequest(1, 1, types.NewWhere().Eq("title", "hello"), nil))
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, "hello", page.Items[0]["title"])

	rows, err := articles.Where(ctx, nil, nil, 1, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "bye", rows[0]["title"])

	n, err = articles.ForceDelete(ctx, first["id"], second["id"])
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	count, err := articles.Count(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestServiceTx(t *testing.T) {
	setupDB(t)
	ctx := context.Background()
	labels := NewService[Label]()

	err := database.GetDB().RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := labels.Repository(tx).Create(ctx, map[string]any{"name": "in-tx"})
		return err
	})
	require.NoError(t, err)

	rows, err := labels.Where(ctx, types.NewWhere().Eq("name", "in-tx"), nil, 0, 0)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
