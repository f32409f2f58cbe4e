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
	"sync"

	"github.com/tomoncle/keeper/database"
	"github.com/tomoncle/keeper/repository"
	"github.com/tomoncle/keeper/types"
	"github.com/uptrace/bun"
)

type Service[T any] interface {
	// Get returns a single record by its identifier, or nil when absent.
	Get(ctx context.Context, id any, columns ...string) (repository.Record, error)

	// All returns every record, trashed ones included.
	All(ctx context.Context, order types.Order, columns ...string) (repository.Collection, error)

	// Where returns records matching the equality filters.
	Where(ctx context.Context, where types.Where, order types.Order, offset, limit int, columns ...string) (repository.Collection, error)

	// Count returns the number of rows matching the filters.
	Count(ctx context.Context, where types.Where) (int, error)

	// Page returns a paginated list of records.
	Page(ctx context.Context, page *types.PageRequest) (*types.Pagination, error)

	// Save inserts a new entity built from data.
	Save(ctx context.Context, data map[string]any) (repository.Record, error)

	// Update applies data to an existing entity.
	Update(ctx context.Context, id any, data map[string]any) (bool, error)

	// Delete removes, or soft-deletes, entities by identifier.
	Delete(ctx context.Context, ids ...any) (int, error)

	// ForceDelete removes entities even when they are soft-deletable.
	ForceDelete(ctx context.Context, ids ...any) (int, error)

	// Restore brings soft-deleted entities back.
	Restore(ctx context.Context, ids ...any) (int, error)

	// Attach links the entity to relatedID through the named relation.
	Attach(ctx context.Context, id any, relation string, relatedID any, pivot map[string]any) error

	// Detach unlinks relatedID, or every related row when relatedID is nil.
	Detach(ctx context.Context, id any, relation string, relatedID any) error

	// Repository returns the underlying repository, bound to tx when given.
	Repository(tx ...bun.IDB) repository.Repository[T]

	// SelectBuilder returns a Bun select query builder for the entity.
	SelectBuilder() *bun.SelectQuery

	// InsertBuilder returns a Bun insert query builder for the entity.
	InsertBuilder() *bun.InsertQuery

	// UpdateBuilder returns a Bun update query builder for the entity.
	UpdateBuilder() *bun.UpdateQuery

	// DeleteBuilder returns a Bun delete query builder for the entity.
	DeleteBuilder() *bun.DeleteQuery
}

type baseServiceImpl[T any] struct {
	repo repository.Repository[T]
	once sync.Once
}

// NewService returns a default Service implementation using the generic
// repository backed by the global database connection.
func NewService[T any]() Service[T] {
	return newBaseServiceImpl[T]()
}

func newBaseServiceImpl[T any]() *baseServiceImpl[T] {
	return &baseServiceImpl[T]{}
}

func (s *baseServiceImpl[T]) baseRepo() repository.Repository[T] {
	s.once.Do(func() { s.repo = repository.NewRepository[T](database.GetDB()) })
	return s.repo
}

func (s *baseServiceImpl[T]) Repository(tx ...bun.IDB) repository.Repository[T] {
	if len(tx) > 0 && tx[0] != nil {
		return s.baseRepo().WithTx(tx[0])
	}
	return s.baseRepo()
}

func (s *baseServiceImpl[T]) Get(ctx context.Context, id any, columns ...string) (repository.Record, error) {
	return s.baseRepo().Find(ctx, id, columns)
}

func (s *baseServiceImpl[T]) All(ctx context.Context, order types.Order, columns ...string) (repository.Collection, error) {
	return s.baseRepo().All(ctx, columns, order)
}

func (s *baseServiceImpl[T]) Where(ctx context.Context, where types.Where, order types.Order, offset, limit int, columns ...string) (repository.Collection, error) {
	return s.baseRepo().FindWhere(ctx, where, columns, order, offset, limit)
}

func (s *baseServiceImpl[T]) Count(ctx context.Context, where types.Where) (int, error) {
	return s.baseRepo().Count(ctx, where)
}

func (s *baseServiceImpl[T]) Page(ctx context.Context, page *types.PageRequest) (*types.Pagination, error) {
	return s.baseRepo().Page(ctx, page)
}

func (s *baseServiceImpl[T]) Save(ctx context.Context, data map[string]any) (repository.Record, error) {
	return s.baseRepo().Create(ctx, data)
}

func (s *baseServiceImpl[T]) Update(ctx context.Context, id any, data map[string]any) (bool, error) {
	return s.baseRepo().Update(ctx, id, data)
}

func (s *baseServiceImpl[T]) Delete(ctx context.Context, ids ...any) (int, error) {
	return s.baseRepo().Delete(ctx, ids...)
}

func (s *baseServiceImpl[T]) ForceDelete(ctx context.Context, ids ...any) (int, error) {
	return s.baseRepo().ForceDelete(ctx, ids...)
}

func (s *baseServiceImpl[T]) Restore(ctx context.Context, ids ...any) (int, error) {
	return s.baseRepo().Restore(ctx, ids...)
}

func (s *baseServiceImpl[T]) Attach(ctx context.Context, id any, relation string, relatedID any, pivot map[string]any) error {
	return s.baseRepo().Attach(ctx, id, relation, relatedID, pivot)
}

func (s *baseServiceImpl[T]) Detach(ctx context.Context, id any, relation string, relatedID any) error {
	return s.baseRepo().Detach(ctx, id, relation, relatedID)
}

func (s *baseServiceImpl[T]) SelectBuilder() *bun.SelectQuery {
	return s.baseRepo().NewSelect()
}

func (s *baseServiceImpl[T]) InsertBuilder() *bun.InsertQuery {
	return s.baseRepo().NewInsert()
}

func (s *baseServiceImpl[T]) UpdateBuilder() *bun.UpdateQuery {
	return s.baseRepo().NewUpdate()
}

func (s *baseServiceImpl[T]) DeleteBuilder() *bun.DeleteQuery {
	return s.baseRepo().NewDelete()
}
