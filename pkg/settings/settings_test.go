// Copyright 2025 CardinalHQ, Inc
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package settings

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardinalhq/rollcall/pkg/announce"
	"github.com/cardinalhq/rollcall/pkg/rollerr"
	"github.com/cardinalhq/rollcall/pkg/sampler"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		want       error
	}{
		{"valid", "1", "30", nil},
		{"equal bounds", "7", "7", nil},
		{"negative bounds", "-5", "-1", nil},
		{"missing start wins over missing end", "", "", rollerr.ErrStartMissing},
		{"missing end", "1", "", rollerr.ErrEndMissing},
		{"start not a number", "a", "b", rollerr.ErrStartNotNumber},
		{"end not a number", "1", "x", rollerr.ErrEndNotNumber},
		{"start after end", "9", "3", rollerr.ErrStartAfterEnd},
		{"widest range that fits", "1", "9223372036854775807", nil},
		{"range too large", "0", "9223372036854775807", rollerr.ErrRangeTooLarge},
		{"full int range", "-9223372036854775808", "9223372036854775807", rollerr.ErrRangeTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Defaults()
			s.Start, s.End = tt.start, tt.end
			err := s.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRange(t *testing.T) {
	s := Defaults()
	assert.Equal(t, sampler.Range{Start: 1, End: 30}, s.Range())

	s.Start, s.End = "12", "4"
	assert.Equal(t, sampler.Range{Start: 4, End: 12}, s.Range())

	s.Start, s.End = "oops", "40"
	assert.Equal(t, sampler.Range{Start: 1, End: 40}, s.Range())

	s.Start, s.End = "50", ""
	assert.Equal(t, sampler.Range{Start: 30, End: 50}, s.Range())
}

func TestDelay(t *testing.T) {
	tests := map[string]time.Duration{
		"10":   10 * time.Millisecond,
		"250":  250 * time.Millisecond,
		" 20 ": 20 * time.Millisecond,
		"0":    DefaultAnimationDelay,
		"-5":   DefaultAnimationDelay,
		"fast": DefaultAnimationDelay,
		"":     DefaultAnimationDelay,
	}
	for in, want := range tests {
		s := Settings{AnimationDelay: in}
		assert.Equal(t, want, s.Delay(), "input %q", in)
	}
}

func TestDecode(t *testing.T) {
	t.Run("string values from a command line", func(t *testing.T) {
		s := Defaults()
		err := Decode(&s, map[string]any{
			"start":           "5",
			"allowDuplicates": "true",
			"announce":        "1",
		})
		require.NoError(t, err)
		assert.Equal(t, "5", s.Start)
		assert.Equal(t, "30", s.End)
		assert.True(t, s.AllowDuplicates)
		assert.True(t, s.Announce)
	})

	t.Run("numbers from yaml", func(t *testing.T) {
		s := Defaults()
		require.NoError(t, Decode(&s, map[string]any{"end": 45, "animationDelay": 15}))
		assert.Equal(t, "45", s.End)
		assert.Equal(t, 15*time.Millisecond, s.Delay())
	})

	t.Run("unknown key", func(t *testing.T) {
		s := Defaults()
		err := Decode(&s, map[string]any{"volume": 11})
		var de *rollerr.DecodeError
		assert.ErrorAs(t, err, &de)
	})
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("ROLLCALL_END", "42")
	t.Setenv("ROLLCALL_ALLOW_DUPLICATES", "true")

	s := Defaults()
	require.NoError(t, ApplyEnv(&s))
	assert.Equal(t, "1", s.Start)
	assert.Equal(t, "42", s.End)
	assert.True(t, s.AllowDuplicates)
	assert.Equal(t, announce.DefaultTemplate, s.AnnounceTemplate)
}

func TestGetAndKeys(t *testing.T) {
	s := Defaults()
	v, err := s.Get("transitionAnimation")
	require.NoError(t, err)
	assert.Equal(t, "true", v)

	_, err = s.Get("volume")
	assert.ErrorIs(t, err, rollerr.ErrUnknownSetting)

	assert.Equal(t, []string{
		"allowDuplicates",
		"animationDelay",
		"announce",
		"announceTemplate",
		"end",
		"start",
		"transitionAnimation",
	}, Keys())
}

func TestResetTemplate(t *testing.T) {
	s := Defaults()
	s.AnnounceTemplate = "next: %学号"
	s.ResetTemplate()
	assert.Equal(t, announce.DefaultTemplate, s.AnnounceTemplate)
}

func testStoreRoundTrip(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, Defaults(), loaded)

	want := Defaults()
	want.Start = "3"
	want.End = "33"
	want.AllowDuplicates = true
	want.TransitionAnimation = false
	want.AnnounceTemplate = "第%学号号"
	want.AnimationDelay = "25"
	require.NoError(t, store.Save(ctx, want))

	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, loaded)

	want.End = "34"
	require.NoError(t, store.Save(ctx, want))
	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "34", loaded.End)
}

func TestYAMLStore(t *testing.T) {
	store := NewYAMLStore(filepath.Join(t.TempDir(), "nested", "settings.yaml"))
	defer store.Close()
	testStoreRoundTrip(t, store)
}

func TestYAMLStoreBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("start: [1, 2\n"), 0o644))
	_, err := NewYAMLStore(path).Load(context.Background())
	assert.Error(t, err)
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	store, err := OpenSQLiteStore(ctx, filepath.Join(t.TempDir(), "settings.db"))
	require.NoError(t, err)
	defer store.Close()
	testStoreRoundTrip(t, store)
}

func TestSQLiteStoreIgnoresUnknownRows(t *testing.T) {
	ctx := context.Background()
	store, err := OpenSQLiteStore(ctx, filepath.Join(t.TempDir(), "settings.db"))
	require.NoError(t, err)
	defer store.Close()

	_, err = store.db.ExecContext(ctx, `INSERT INTO preferences (key, value) VALUES ('theme', 'dark'), ('end', '12')`)
	require.NoError(t, err)

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "12", loaded.End)
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := OpenStore(ctx, filepath.Join(dir, "prefs.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	s, err = OpenStore(ctx, filepath.Join(dir, "prefs.yaml"))
	require.NoError(t, err)
	assert.IsType(t, &YAMLStore{}, s)
}
