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

package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"reflect"
)

// Record is the plain column -> value form of a single entity.
// It can also be stored in a JSON column.
type Record map[string]interface{}

// Collection is an ordered list of records.
type Collection []Record

// Get returns the value stored under key and whether it was present.
func (r Record) Get(key string) (interface{}, bool) {
	v, ok := r[key]
	return v, ok
}

// TrashedKey is the record key carrying the soft-delete flag.
const TrashedKey = "trashed"

// Trashed reports the TrashedKey flag of a soft-deletable record.
func (r Record) Trashed() bool {
	b, _ := r[TrashedKey].(bool)
	return b
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = CloneValue(v)
	}
	return out
}

// CloneValue returns a deep copy of v. Pointers are followed and maps, slices,
// arrays and structs are copied element by element, so the result shares no
// mutable state with v. Unexported struct fields, funcs and channels are
// copied by value.
func CloneValue(v interface{}) interface{} {
	if v == nil {
		return nil
	}
	return deepCopy(reflect.ValueOf(v), make(map[visit]reflect.Value)).Interface()
}

type visit struct {
	ptr uintptr
	typ reflect.Type
}

func deepCopy(v reflect.Value, seen map[visit]reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Ptr:
		if v.IsNil() {
			return v
		}
		key := visit{v.Pointer(), v.Type()}
		if cp, ok := seen[key]; ok {
			return cp
		}
		cp := reflect.New(v.Type().Elem())
		seen[key] = cp
		cp.Elem().Set(deepCopy(v.Elem(), seen))
		return cp
	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		cp := reflect.New(v.Type()).Elem()
		cp.Set(deepCopy(v.Elem(), seen))
		return cp
	case reflect.Map:
		if v.IsNil() {
			return v
		}
		key := visit{v.Pointer(), v.Type()}
		if cp, ok := seen[key]; ok {
			return cp
		}
		cp := reflect.MakeMapWithSize(v.Type(), v.Len())
		seen[key] = cp
		iter := v.MapRange()
		for iter.Next() {
			cp.SetMapIndex(iter.Key(), deepCopy(iter.Value(), seen))
		}
		return cp
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		cp := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			cp.Index(i).Set(deepCopy(v.Index(i), seen))
		}
		return cp
	case reflect.Array:
		cp := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			cp.Index(i).Set(deepCopy(v.Index(i), seen))
		}
		return cp
	case reflect.Struct:
		cp := reflect.New(v.Type()).Elem()
		cp.Set(v)
		for i := 0; i < v.NumField(); i++ {
			if f := cp.Field(i); f.CanSet() {
				f.Set(deepCopy(v.Field(i), seen))
			}
		}
		return cp
	}
	return v
}

// Value implements driver.Valuer for Record.
func (r Record) Value() (driver.Value, error) {
	if r == nil {
		return nil, nil
	}
	return json.Marshal(r)
}

// Scan implements sql.Scanner for Record.
func (r *Record) Scan(value interface{}) error {
	if value == nil {
		*r = make(Record)
		return nil
	}
	bytes, err := asBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, r)
}

// Value implements driver.Valuer for Collection.
func (c Collection) Value() (driver.Value, error) {
	if c == nil {
		return nil, nil
	}
	return json.Marshal(c)
}

// Scan implements sql.Scanner for Collection.
func (c *Collection) Scan(value interface{}) error {
	if value == nil {
		*c = make(Collection, 0)
		return nil
	}
	bytes, err := asBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, c)
}

// sqlite hands JSON columns back as text, mysql and postgres as bytes.
func asBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, errors.New("type assertion must be []byte or string")
	}
}
