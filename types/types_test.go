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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordClone(t *testing.T) {
	src := Record{
		"id":    int64(1),
		"tags":  []string{"a", "b"},
		"blob":  []byte("xyz"),
		"extra": map[string]interface{}{"k": "v"},
	}
	cp := src.Clone()
	assert.Equal(t, src, cp)

	cp["tags"].([]string)[0] = "changed"
	cp["blob"].([]byte)[0] = 'X'
	cp["extra"].(map[string]interface{})["k"] = "changed"

	assert.Equal(t, "a", src["tags"].([]string)[0])
	assert.Equal(t, byte('x'), src["blob"].([]byte)[0])
	assert.Equal(t, "v", src["extra"].(map[string]interface{})["k"])

	assert.Nil(t, Record(nil).Clone())
}

func TestCloneValueDeep(t *testing.T) {
	type inner struct {
		Tags []string
		at   time.Time
	}
	title := "draft"
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	src := Record{
		"title": &title,
		"meta":  map[string][]int{"a": {1, 2}},
		"rows":  []interface{}{map[string]interface{}{"n": []int{7}}},
		"grid":  [2][]int{{1}, {2}},
		"inner": inner{Tags: []string{"x"}, at: at},
		"at":    at,
	}
	cp := src.Clone()
	assert.Equal(t, src, cp)

	title = "mutated"
	src["meta"].(map[string][]int)["a"][0] = 99
	src["rows"].([]interface{})[0].(map[string]interface{})["n"].([]int)[0] = 99
	src["grid"].([2][]int)[0][0] = 99
	src["inner"].(inner).Tags[0] = "y"

	assert.Equal(t, "draft", *cp["title"].(*string))
	assert.Equal(t, []int{1, 2}, cp["meta"].(map[string][]int)["a"])
	assert.Equal(t, []int{7}, cp["rows"].([]interface{})[0].(map[string]interface{})["n"])
	assert.Equal(t, []int{1}, cp["grid"].([2][]int)[0])
	assert.Equal(t, []string{"x"}, cp["inner"].(inner).Tags)
	assert.True(t, at.Equal(cp["inner"].(inner).at))
	assert.True(t, at.Equal(cp["at"].(time.Time)))

	self := map[string]interface{}{}
	self["self"] = self
	assert.NotPanics(t, func() { CloneValue(self) })
	assert.Nil(t, CloneValue(nil))
}

func TestRecordTrashed(t *testing.T) {
	assert.Equal(t, "trashed", TrashedKey)
	assert.True(t, Record{"trashed": true}.Trashed())
	assert.False(t, Record{"trashed": false}.Trashed())
	assert.False(t, Record{"id": 1}.Trashed())
}

func TestRecordValueScan(t *testing.T) {
	v, err := Record{"role": "admin"}.Value()
	require.NoError(t, err)

	var r Record
	require.NoError(t, r.Scan(v))
	assert.Equal(t, "admin", r["role"])

	require.NoError(t, r.Scan(`{"role":"guest"}`))
	assert.Equal(t, "guest", r["role"])

	require.NoError(t, r.Scan(nil))
	assert.Empty(t, r)

	assert.Error(t, r.Scan(42))

	var c Collection
	require.NoError(t, c.Scan([]byte(`[{"id":1},{"id":2}]`)))
	assert.Len(t, c, 2)
}

func TestParseDirection(t *testing.T) {
	for in, want := range map[string]Direction{"": Asc, "asc": Asc, "ASC": Asc, "desc": Desc, " Descending ": Desc} {
		got, err := ParseDirection(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseDirection("sideways")
	assert.Error(t, err)

	assert.Equal(t, "DESC", Desc.String())
	assert.Equal(t, "asc", Asc.Name())
	assert.Equal(t, IllegalValue, Direction(7).Number())
}

func TestOrder(t *testing.T) {
	o := NewOrder().Desc("created_at").Asc("id")
	assert.Equal(t, Order{{"created_at", Desc}, {"id", Asc}}, o)
	assert.NoError(t, o.Validate())

	assert.Error(t, Order{{"", Asc}}.Validate())
	assert.Error(t, Order{{"id", Direction(9)}}.Validate())

	parsed, err := ParseOrder("name DESC, id", "age asc")
	require.NoError(t, err)
	assert.Equal(t, Order{{"name", Desc}, {"id", Asc}, {"age", Asc}}, parsed)

	_, err = ParseOrder("name up down")
	assert.Error(t, err)
}

func TestPageRequest(t *testing.T) {
	p := NewPageRequest(0, 0, NewWhere().Eq("status", "active"), nil)
	assert.Equal(t, 1, p.GetPage())
	assert.Equal(t, 10, p.GetPageSize())
	assert.Equal(t, 0, p.GetOffset())
	assert.Equal(t, Where{{"status", "active"}}, p.GetWhere())

	p = NewDefaultPageRequest(3, 25)
	assert.Equal(t, 50, p.GetOffset())

	page := NewDefaultPagination(1, 10)
	assert.Equal(t, 0, page.Pages())
	page.Total = 21
	assert.Equal(t, 3, page.Pages())
}
