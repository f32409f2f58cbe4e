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

package utils

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, ParseLogLevel("DEBUG"))
	assert.Equal(t, logrus.WarnLevel, ParseLogLevel("warning"))
	assert.Equal(t, logrus.InfoLevel, ParseLogLevel(""))
	assert.Equal(t, logrus.InfoLevel, ParseLogLevel("nonsense"))
}

func TestNewLoggerIsRegistered(t *testing.T) {
	l := NewLogger("UTILTEST")
	assert.Same(t, l, NewLogger("UTILTEST"))

	assert.True(t, SetLoggerLevel("UTILTEST", "error"))
	assert.Equal(t, logrus.ErrorLevel, l.GetLevel())
	assert.False(t, SetLoggerLevel("NOPE", "error"))
}

func TestLog4jColorFormatter(t *testing.T) {
	f := &Log4jColorFormatter{LoggerName: "REPO", NameWidth: 6}
	entry := &logrus.Entry{
		Time:    time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Level:   logrus.InfoLevel,
		Message: "record updated",
		Data:    logrus.Fields{"table": "users", "id": 7},
	}
	b, err := f.Format(entry)
	require.NoError(t, err)
	line := string(b)
	assert.Contains(t, line, "2025-01-02 03:04:05.000")
	assert.Contains(t, line, "INFO")
	assert.Contains(t, line, "[  REPO]")
	assert.Contains(t, line, "record updated id=7 table=users")
	assert.NotContains(t, line, "\x1b[")
}

func TestJSONLogFormatter(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetFormatter(&JSONLogFormatter{LoggerName: "REPO"})
	l.WithField("table", "users").Warn("nothing to update")

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "warning", rec["level"])
	assert.Equal(t, "REPO", rec["logger"])
	assert.Equal(t, "nothing to update", rec["message"])
	assert.Equal(t, map[string]interface{}{"table": "users"}, rec["fields"])
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("KEEPER_TEST_BOOL", "true")
	t.Setenv("KEEPER_TEST_DUR", "15")
	t.Setenv("KEEPER_TEST_DUR2", "250ms")
	t.Setenv("KEEPER_TEST_INT", "12")
	t.Setenv("KEEPER_TEST_BAD_INT", "twelve")
	assert.True(t, EnvDefaultBool("KEEPER_TEST_BOOL", false))
	assert.Equal(t, 12, EnvDefaultInt("KEEPER_TEST_INT", 3))
	assert.Equal(t, 3, EnvDefaultInt("KEEPER_TEST_BAD_INT", 3))
	assert.Equal(t, "x", EnvDefaultString("KEEPER_TEST_MISSING", "x"))
	assert.Equal(t, 15*time.Second, EnvDefaultDuration("KEEPER_TEST_DUR", time.Second))
	assert.Equal(t, 250*time.Millisecond, EnvDefaultDuration("KEEPER_TEST_DUR2", time.Second))
}
