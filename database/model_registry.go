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
	"reflect"
	"sort"
	"sync"
)

// SQLModel is a model known to keeper: the first migration creates its table
// and Open registers it on the bun.DB. Lower priorities come first, so pivot
// models of many-to-many relations take a higher priority than the models
// they link.
type SQLModel interface {
	Instance() interface{}
	Priority() int
}

type registeredModel struct {
	instance interface{}
	priority int
}

func (m registeredModel) Instance() interface{} { return m.instance }
func (m registeredModel) Priority() int         { return m.priority }

var registry = struct {
	sync.RWMutex
	models []SQLModel
	types  map[reflect.Type]struct{}
}{types: make(map[reflect.Type]struct{})}

// RegisteredModel adds model unless one of the same Go type is already known.
func RegisteredModel(model SQLModel) {
	typ := reflect.TypeOf(model.Instance())
	registry.Lock()
	defer registry.Unlock()
	if _, ok := registry.types[typ]; ok {
		return
	}
	registry.types[typ] = struct{}{}
	registry.models = append(registry.models, model)
}

// RegisterModels registers each instance, e.g. (*User)(nil), with priority.
func RegisterModels(priority int, instances ...interface{}) {
	for _, instance := range instances {
		RegisteredModel(registeredModel{instance: instance, priority: priority})
	}
}

// GetRegisteredModels returns the models by ascending priority, keeping
// registration order within a priority.
func GetRegisteredModels() []SQLModel {
	registry.RLock()
	models := append([]SQLModel(nil), registry.models...)
	registry.RUnlock()
	sort.SliceStable(models, func(i, j int) bool {
		return models[i].Priority() < models[j].Priority()
	})
	return models
}

// RegisteredModelInstances returns the model instances in priority order.
func RegisteredModelInstances() []interface{} {
	models := GetRegisteredModels()
	out := make([]interface{}, len(models))
	for i, m := range models {
		out[i] = m.Instance()
	}
	return out
}
