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

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/tomoncle/keeper/database"
	"github.com/tomoncle/keeper/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/feature"
	"github.com/uptrace/bun/schema"
)

type baseRepositoryImpl[T any] struct {
	db     bun.IDB
	logger database.Logger
}

// NewRepository returns a generic repository backed by the provided Bun DB,
// transaction or connection.
func NewRepository[T any](db bun.IDB) Repository[T] {
	return &baseRepositoryImpl[T]{db: db, logger: database.GetLogger()}
}

func (r *baseRepositoryImpl[T]) WithTx(tx bun.IDB) Repository[T] {
	return &baseRepositoryImpl[T]{db: tx, logger: r.logger}
}

func (r *baseRepositoryImpl[T]) SoftDeletes() bool { return isSoftDeletable[T]() }

func (r *baseRepositoryImpl[T]) Dialect() schema.Dialect { return r.db.Dialect() }

func (r *baseRepositoryImpl[T]) NewSelect() *bun.SelectQuery { return r.db.NewSelect() }

func (r *baseRepositoryImpl[T]) NewInsert() *bun.InsertQuery { return r.db.NewInsert() }

func (r *baseRepositoryImpl[T]) NewUpdate() *bun.UpdateQuery { return r.db.NewUpdate() }

func (r *baseRepositoryImpl[T]) NewDelete() *bun.DeleteQuery { return r.db.NewDelete() }

func (r *baseRepositoryImpl[T]) table() *schema.Table {
	return r.db.Dialect().Tables().Get(reflect.TypeOf((*T)(nil)).Elem())
}

// pk returns the single primary key column of T.
func (r *baseRepositoryImpl[T]) pk() (*schema.Field, error) {
	t := r.table()
	if len(t.PKs) != 1 {
		return nil, fmt.Errorf("%s: repository needs exactly one primary key column, got %d", t.TypeName, len(t.PKs))
	}
	return t.PKs[0], nil
}

func (r *baseRepositoryImpl[T]) All(ctx context.Context, columns []string, order types.Order) (Collection, error) {
	return r.selectRecords(ctx, nil, columns, order, 0, 0)
}

func (r *baseRepositoryImpl[T]) Find(ctx context.Context, id any, columns []string) (Record, error) {
	pk, err := r.pk()
	if err != nil {
		return nil, err
	}
	projection, err := r.projection(columns)
	if err != nil {
		return nil, err
	}

	var entity T
	q := r.db.NewSelect().Model(&entity).
		Where("?TableAlias.? = ?", bun.Ident(pk.Name), id).
		Limit(1)
	q = r.withTrashed(r.applyColumns(q, projection))
	if err := q.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, r.dbError("find", err)
	}
	return convertEntity(r.table(), reflect.ValueOf(&entity), projection), nil
}

func (r *baseRepositoryImpl[T]) FindWhere(ctx context.Context, where types.Where, columns []string, order types.Order, offset, limit int) (Collection, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return r.selectRecords(ctx, where, columns, order, offset, limit)
}

func (r *baseRepositoryImpl[T]) Count(ctx context.Context, where types.Where) (int, error) {
	q := r.db.NewSelect().Model((*T)(nil))
	q, err := r.applyWhere(q, where)
	if err != nil {
		return 0, err
	}
	total, err := r.withTrashed(q).Count(ctx)
	if err != nil {
		return 0, r.dbError("count", err)
	}
	return total, nil
}

func (r *baseRepositoryImpl[T]) Page(ctx context.Context, pageRequest *types.PageRequest) (*types.Pagination, error) {
	if pageRequest == nil {
		pageRequest = types.NewDefaultPageRequest(1, 0)
	}
	pagination := types.NewDefaultPagination(pageRequest.GetPage(), pageRequest.GetPageSize())
	total, err := r.Count(ctx, pageRequest.GetWhere())
	if err != nil || total == 0 {
		return pagination, err
	}
	items, err := r.selectRecords(ctx, pageRequest.GetWhere(), nil, pageRequest.GetOrder(),
		pageRequest.GetOffset(), pageRequest.GetPageSize())
	if err != nil {
		return nil, err
	}
	pagination.Total = total
	pagination.Items = items
	return pagination, nil
}

// selectRecords runs the shared read path; limit 0 means unlimited.
func (r *baseRepositoryImpl[T]) selectRecords(ctx context.Context, where types.Where, columns []string, order types.Order, offset, limit int) (Collection, error) {
	projection, err := r.projection(columns)
	if err != nil {
		return nil, err
	}

	var entities []T
	q := r.db.NewSelect().Model(&entities)
	if q, err = r.applyWhere(q, where); err != nil {
		return nil, err
	}
	if q, err = r.applyOrder(q, order); err != nil {
		return nil, err
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	q = r.withTrashed(r.applyColumns(q, projection))
	if err := q.Scan(ctx); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, r.dbError("select", err)
	}

	table := r.table()
	out := make(Collection, 0, len(entities))
	for i := range entities {
		out = append(out, convertEntity(table, reflect.ValueOf(&entities[i]), projection))
	}
	return out, nil
}

// projection validates the requested columns. A nil result selects all of them.
func (r *baseRepositoryImpl[T]) projection(columns []string) (map[string]struct{}, error) {
	if len(columns) == 0 || (len(columns) == 1 && columns[0] == "*") {
		return nil, nil
	}
	t := r.table()
	set := make(map[string]struct{}, len(columns)+1)
	var unknown []string
	for _, col := range columns {
		if col == "*" {
			return nil, nil
		}
		if _, ok := t.FieldMap[col]; !ok {
			unknown = append(unknown, col)
			continue
		}
		set[col] = struct{}{}
	}
	if len(unknown) > 0 {
		return nil, newValidationError(t.TypeName, fmt.Errorf("unknown columns: %v", unknown), unknown...)
	}
	return set, nil
}

// applyColumns selects the projected columns. The soft-delete column is
// always loaded so the trashed flag stays accurate.
func (r *baseRepositoryImpl[T]) applyColumns(q *bun.SelectQuery, projection map[string]struct{}) *bun.SelectQuery {
	if projection == nil {
		return q
	}
	cols := make([]string, 0, len(projection)+1)
	for col := range projection {
		cols = append(cols, col)
	}
	if sd := r.table().SoftDeleteField; sd != nil {
		if _, ok := projection[sd.Name]; !ok {
			cols = append(cols, sd.Name)
		}
	}
	sort.Strings(cols)
	return q.Column(cols...)
}

func (r *baseRepositoryImpl[T]) applyWhere(q *bun.SelectQuery, where types.Where) (*bun.SelectQuery, error) {
	t := r.table()
	for _, cond := range where {
		if _, ok := t.FieldMap[cond.Column]; !ok {
			return nil, newValidationError(t.TypeName, fmt.Errorf("unknown filter column %q", cond.Column), cond.Column)
		}
		if cond.Value == nil {
			q = q.Where("?TableAlias.? IS NULL", bun.Ident(cond.Column))
			continue
		}
		q = q.Where("?TableAlias.? = ?", bun.Ident(cond.Column), cond.Value)
	}
	return q, nil
}

// applyOrder sorts by the directives in order, or by primary key so that
// unordered reads come back in insertion order.
func (r *baseRepositoryImpl[T]) applyOrder(q *bun.SelectQuery, order types.Order) (*bun.SelectQuery, error) {
	t := r.table()
	if err := order.Validate(); err != nil {
		return nil, newValidationError(t.TypeName, err)
	}
	if len(order) == 0 {
		for _, pk := range t.PKs {
			q = q.OrderExpr("?TableAlias.? ASC", bun.Ident(pk.Name))
		}
		return q, nil
	}
	for _, ob := range order {
		if _, ok := t.FieldMap[ob.Column]; !ok {
			return nil, newValidationError(t.TypeName, fmt.Errorf("unknown order column %q", ob.Column), ob.Column)
		}
		q = q.OrderExpr("?TableAlias.? ?", bun.Ident(ob.Column), bun.Safe(ob.Direction.String()))
	}
	return q, nil
}

// withTrashed makes reads of soft-deletable models include trashed rows.
func (r *baseRepositoryImpl[T]) withTrashed(q *bun.SelectQuery) *bun.SelectQuery {
	if isSoftDeletable[T]() {
		return q.WhereAllWithDeleted()
	}
	return q
}

func (r *baseRepositoryImpl[T]) Create(ctx context.Context, data map[string]any) (Record, error) {
	t := r.table()
	entity := new(T)
	if err := assign(t, entity, data); err != nil {
		return nil, err
	}
	if err := validateEntity(t, entity); err != nil {
		return nil, err
	}

	q := r.db.NewInsert().Model(entity)
	if r.db.Dialect().Features().Has(feature.InsertReturning) {
		q = q.Returning("*")
	}
	if _, err := q.Exec(ctx); err != nil {
		return nil, r.dbError("create", err)
	}
	return r.ConvertModel(entity), nil
}

func (r *baseRepositoryImpl[T]) Update(ctx context.Context, id any, data map[string]any) (bool, error) {
	pk, err := r.pk()
	if err != nil {
		return false, err
	}
	entity, err := r.load(ctx, pk, id)
	if err != nil {
		return false, err
	}

	t := r.table()
	strct := reflect.ValueOf(entity).Elem()
	guarded := make([]string, 0, len(t.PKs))
	for _, f := range t.PKs {
		guarded = append(guarded, f.Name)
	}
	data = dropUnchanged(t, strct, data, guarded)

	before := make(map[string]any, len(data))
	for col := range data {
		if field, ok := t.FieldMap[col]; ok {
			before[field.Name] = types.CloneValue(field.Value(strct).Interface())
		}
	}

	if err := assign(t, entity, data, guarded...); err != nil {
		return false, err
	}

	var dirty []string
	for col, old := range before {
		if !sameValue(old, t.FieldMap[col].Value(strct).Interface()) {
			dirty = append(dirty, col)
		}
	}
	if len(dirty) == 0 {
		r.logger.Debug("Update skipped, nothing changed", "table", t.Name, "id", id)
		return true, nil
	}
	sort.Strings(dirty)
	if err := validateEntity(t, entity); err != nil {
		return false, err
	}

	q := r.db.NewUpdate().Model(entity).Column(dirty...).WherePK()
	if isSoftDeletable[T]() {
		q = q.WhereAllWithDeleted()
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return false, r.dbError("update", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *baseRepositoryImpl[T]) Delete(ctx context.Context, ids ...any) (int, error) {
	return r.destroy(ctx, false, ids)
}

func (r *baseRepositoryImpl[T]) ForceDelete(ctx context.Context, ids ...any) (int, error) {
	return r.destroy(ctx, true, ids)
}

func (r *baseRepositoryImpl[T]) destroy(ctx context.Context, force bool, ids []any) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	pk, err := r.pk()
	if err != nil {
		return 0, err
	}

	var entity T
	q := r.db.NewDelete().Model(&entity).
		Where("?TableAlias.? IN (?)", bun.Ident(pk.Name), bun.In(ids))
	if force {
		q = q.ForceDelete()
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return 0, r.dbError("delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if len(ids) > 1 {
		r.logger.Debug("Batch delete", "table", r.table().Name, "requested", len(ids), "deleted", n, "force", force)
	}
	return int(n), nil
}

func (r *baseRepositoryImpl[T]) Restore(ctx context.Context, ids ...any) (int, error) {
	t := r.table()
	if len(ids) == 0 || t.SoftDeleteField == nil {
		return 0, nil
	}
	pk, err := r.pk()
	if err != nil {
		return 0, err
	}

	var entity T
	res, err := r.db.NewUpdate().Model(&entity).
		Set("? = NULL", bun.Ident(t.SoftDeleteField.Name)).
		Where("?TableAlias.? IN (?)", bun.Ident(pk.Name), bun.In(ids)).
		WhereDeleted().
		Exec(ctx)
	if err != nil {
		return 0, r.dbError("restore", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (r *baseRepositoryImpl[T]) Attach(ctx context.Context, id any, relation string, relatedID any, pivot map[string]any) error {
	rel, ownerID, err := r.resolveRelation(ctx, id, relation)
	if err != nil {
		return err
	}
	if err := rel.Attach(ctx, r.db, ownerID, relatedID, pivot); err != nil {
		return r.dbError("attach", err)
	}
	return nil
}

func (r *baseRepositoryImpl[T]) Detach(ctx context.Context, id any, relation string, relatedID any) error {
	rel, ownerID, err := r.resolveRelation(ctx, id, relation)
	if err != nil {
		return err
	}
	if err := rel.Detach(ctx, r.db, ownerID, relatedID); err != nil {
		return r.dbError("detach", err)
	}
	return nil
}

// resolveRelation loads the owner, then looks up the named relation on it.
// The owner key passed on is the loaded primary key value.
func (r *baseRepositoryImpl[T]) resolveRelation(ctx context.Context, id any, name string) (Relation, any, error) {
	pk, err := r.pk()
	if err != nil {
		return nil, nil, err
	}
	owner, err := r.load(ctx, pk, id)
	if err != nil {
		return nil, nil, err
	}
	t := r.table()
	var rel Relation
	if provider, ok := any(owner).(RelationProvider); ok {
		rel = provider.Relations()[name]
	}
	if rel == nil {
		return nil, nil, &UnknownRelationError{Model: t.TypeName, Relation: name}
	}
	return rel, pk.Value(reflect.ValueOf(owner).Elem()).Interface(), nil
}

// load fetches the entity by primary key including trashed rows.
func (r *baseRepositoryImpl[T]) load(ctx context.Context, pk *schema.Field, id any) (*T, error) {
	entity := new(T)
	q := r.db.NewSelect().Model(entity).
		Where("?TableAlias.? = ?", bun.Ident(pk.Name), id).
		Limit(1)
	if err := r.withTrashed(q).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &NotFoundError{Model: r.table().TypeName, ID: id}
		}
		return nil, r.dbError("load", err)
	}
	return entity, nil
}

// dbError logs database failures with their kind and returns err unchanged.
func (r *baseRepositoryImpl[T]) dbError(op string, err error) error {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return err
	}
	_, kind := database.IsSqlError(err)
	r.logger.Warn("Repository query failed", "op", op, "table", r.table().Name, "kind", kind.String(), "error", err)
	return err
}

func sameValue(a, b any) bool {
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Equal(tb)
		}
	}
	return reflect.DeepEqual(a, b)
}
