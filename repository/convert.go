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
	"reflect"

	"github.com/tomoncle/keeper/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

// ConvertModel returns the column values of entity as a detached record.
func (r *baseRepositoryImpl[T]) ConvertModel(entity *T) Record {
	if entity == nil {
		return nil
	}
	return convertEntity(r.table(), reflect.ValueOf(entity), nil)
}

// ConvertCollection converts items in order. Records and plain maps are
// passed through, nil stays nil, and bun models (structs embedding
// bun.BaseModel or already registered on the db) are converted with their own
// table. Any other value is wrapped as Record{ValueKey: <deep copy>}.
func (r *baseRepositoryImpl[T]) ConvertCollection(items []any) Collection {
	out := make(Collection, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case nil:
			out = append(out, nil)
		case Record:
			out = append(out, v)
		case map[string]any:
			out = append(out, Record(v))
		case *T:
			out = append(out, r.ConvertModel(v))
		case T:
			out = append(out, r.ConvertModel(&v))
		default:
			out = append(out, r.convertAny(item))
		}
	}
	return out
}

func (r *baseRepositoryImpl[T]) convertAny(item any) Record {
	v := reflect.ValueOf(item)
	if v.Kind() == reflect.Ptr && v.IsNil() {
		return nil
	}
	typ := reflect.Indirect(v).Type()
	table := r.modelTable(typ)
	if table == nil {
		return Record{ValueKey: types.CloneValue(item)}
	}
	if v.Kind() != reflect.Ptr {
		// addressable copy so pointer receivers such as Trashed are visible
		cp := reflect.New(typ)
		cp.Elem().Set(v)
		v = cp
	}
	return convertEntity(table, v, nil)
}

// modelTable returns the table of typ when typ is a bun model, nil otherwise.
// Only types embedding bun.BaseModel are added to the table registry.
func (r *baseRepositoryImpl[T]) modelTable(typ reflect.Type) *schema.Table {
	if typ.Kind() != reflect.Struct {
		return nil
	}
	tables := r.db.Dialect().Tables()
	for _, table := range tables.All() {
		if table.Type == typ {
			return table
		}
	}
	if f, ok := typ.FieldByName("BaseModel"); ok && f.Anonymous && f.Type == baseModelType {
		return tables.Get(typ)
	}
	return nil
}

var baseModelType = reflect.TypeOf(bun.BaseModel{})

// convertEntity reads the fields of ptr (a pointer to a model struct). A
// non-empty columns set limits the record to those columns.
func convertEntity(table *schema.Table, ptr reflect.Value, columns map[string]struct{}) Record {
	strct := ptr.Elem()
	record := make(Record, len(table.Fields)+1)
	for _, field := range table.Fields {
		if columns != nil {
			if _, ok := columns[field.Name]; !ok {
				continue
			}
		}
		fv := field.Value(strct)
		if field.NullZero && fv.IsZero() {
			record[field.Name] = nil
			continue
		}
		record[field.Name] = types.CloneValue(fv.Interface())
	}
	if sd, ok := ptr.Interface().(SoftDeletable); ok {
		record[TrashedKey] = sd.Trashed()
	}
	return record
}
