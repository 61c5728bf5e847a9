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

package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardinalhq/rollcall/pkg/config"
	"github.com/cardinalhq/rollcall/pkg/sampler"
	"github.com/cardinalhq/rollcall/pkg/scriptaction"
)

func TestParseTimeline(t *testing.T) {
	t.Run("valid lesson plan", func(t *testing.T) {
		input := `
		{
			"lessons": [
				{
					"name": "period-1",
					"range": {"start": 1, "end": 40},
					"rounds": [
						{"start_ts": "0s", "draws": 2, "previews": 10},
						{"start_ts": 600}
					]
				},
				{
					"name": "period-2",
					"range": {"start": 1, "end": 35},
					"allowDuplicates": true,
					"rounds": [
						{"start_ts": "45m"}
					]
				}
			]
		}`
		tl, err := ParseTimeline([]byte(input))
		require.NoError(t, err)
		require.Len(t, tl.Lessons, 2)

		first := tl.Lessons[0]
		assert.Equal(t, "period-1", first.Name)
		assert.Equal(t, sampler.Range{Start: 1, End: 40}, first.Range)
		require.Len(t, first.Rounds, 2)
		assert.Equal(t, 2, first.Rounds[0].Draws)
		assert.Equal(t, 10, first.Rounds[0].Previews)
		assert.Equal(t, 10*time.Minute, first.Rounds[1].StartTs.Get())

		second := tl.Lessons[1]
		assert.True(t, second.AllowDuplicates)
		assert.Equal(t, 45*time.Minute, second.Rounds[0].StartTs.Get())
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := ParseTimeline([]byte(`{"lessons": [{"name": "x", "students": 40}]}`))
		assert.Error(t, err)
	})

	t.Run("bad duration", func(t *testing.T) {
		_, err := ParseTimeline([]byte(`{"lessons": [{"name": "x", "rounds": [{"start_ts": "soon"}]}]}`))
		assert.Error(t, err)
	})
}

func TestMergeIntoConfig(t *testing.T) {
	tl := &Timeline{
		Lessons: []Lesson{
			{
				Name:  "period-1",
				Range: sampler.Range{Start: 40, End: 1},
				Rounds: []Round{
					{StartTs: config.Duration{Duration: 0}, Draws: 2, Previews: 5},
					{StartTs: config.Duration{Duration: 10 * time.Minute}},
				},
			},
		},
	}
	cfg := &config.Config{}
	require.NoError(t, tl.MergeIntoConfig(cfg))
	require.Len(t, cfg.Script, 3)

	id := makeID(tl.Lessons[0])
	assert.Equal(t, scriptaction.ScriptAction{
		At:   0,
		Name: id,
		Type: scriptaction.TypeConfigure,
		Spec: map[string]any{"start": 1, "end": 40, "resetProgress": true, "allowDuplicates": false},
	}, cfg.Script[0])
	assert.Equal(t, scriptaction.ScriptAction{
		At:   0,
		Name: id + "_round_0",
		Type: scriptaction.TypeDraw,
		Spec: map[string]any{"count": 2, "previews": 5},
	}, cfg.Script[1])
	assert.Equal(t, 10*time.Minute, cfg.Script[2].At)
	assert.Equal(t, map[string]any{"count": 1, "previews": 0}, cfg.Script[2].Spec)
}

func TestMergeIntoConfigErrors(t *testing.T) {
	t.Run("no rounds", func(t *testing.T) {
		tl := &Timeline{Lessons: []Lesson{{Name: "empty"}}}
		assert.Error(t, tl.MergeIntoConfig(&config.Config{}))
	})

	t.Run("rounds out of order", func(t *testing.T) {
		tl := &Timeline{Lessons: []Lesson{{
			Name: "backwards",
			Rounds: []Round{
				{StartTs: config.Duration{Duration: time.Minute}},
				{StartTs: config.Duration{Duration: time.Second}},
			},
		}}}
		assert.Error(t, tl.MergeIntoConfig(&config.Config{}))
	})
}

func TestMakeID(t *testing.T) {
	a := Lesson{Name: "p1", Range: sampler.Range{Start: 1, End: 30}}
	b := a
	b.AllowDuplicates = true
	assert.Equal(t, makeID(a), makeID(a))
	assert.NotEqual(t, makeID(a), makeID(b))
}
