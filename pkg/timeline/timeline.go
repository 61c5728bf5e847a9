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

// Package timeline expands a lesson plan into session script actions.
// Each lesson starts a fresh roll call over its own range; each round
// draws one or more numbers at a point in time.
package timeline

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/cardinalhq/rollcall/pkg/config"
	"github.com/cardinalhq/rollcall/pkg/sampler"
	"github.com/cardinalhq/rollcall/pkg/scriptaction"
)

type Timeline struct {
	Lessons []Lesson `json:"lessons"`
}

type Lesson struct {
	Name            string        `json:"name"`
	Range           sampler.Range `json:"range"`
	AllowDuplicates bool          `json:"allowDuplicates,omitempty"`
	Rounds          []Round       `json:"rounds"`
}

type Round struct {
	StartTs  config.Duration `json:"start_ts"`
	Draws    int             `json:"draws,omitempty"` // defaults to 1
	Previews int             `json:"previews,omitempty"`
}

func ParseTimeline(b []byte) (*Timeline, error) {
	var timeline Timeline
	if err := config.JSONDecode(bytes.NewReader(b), &timeline); err != nil {
		return nil, err
	}
	return &timeline, nil
}

func (t *Timeline) MergeIntoConfig(cfg *config.Config) error {
	for _, lesson := range t.Lessons {
		if err := mergeLesson(cfg, lesson); err != nil {
			return err
		}
	}
	return nil
}

func mergeLesson(cfg *config.Config, lesson Lesson) error {
	if len(lesson.Rounds) == 0 {
		return fmt.Errorf("no rounds for lesson %s", lesson.Name)
	}
	id := makeID(lesson)
	r := sampler.NormalizeRange(lesson.Range.Start, lesson.Range.End)

	cfg.Script = append(cfg.Script, scriptaction.ScriptAction{
		At:   lesson.Rounds[0].StartTs.Get(),
		Name: id,
		Type: scriptaction.TypeConfigure,
		Spec: map[string]any{
			"start":           r.Start,
			"end":             r.End,
			"resetProgress":   true,
			"allowDuplicates": lesson.AllowDuplicates,
		},
	})

	prev := lesson.Rounds[0].StartTs.Get()
	for i, round := range lesson.Rounds {
		at := round.StartTs.Get()
		if at < prev {
			return fmt.Errorf("round %d of lesson %s starts before the round ahead of it", i, lesson.Name)
		}
		prev = at

		count := round.Draws
		if count <= 0 {
			count = 1
		}
		cfg.Script = append(cfg.Script, scriptaction.ScriptAction{
			At:   at,
			Name: id + "_round_" + strconv.Itoa(i),
			Type: scriptaction.TypeDraw,
			Spec: map[string]any{
				"count":    count,
				"previews": round.Previews,
			},
		})
	}
	return nil
}

func makeID(lesson Lesson) string {
	id := lesson.Name + "|"
	id += lesson.Range.String() + "|"
	id += strconv.FormatBool(lesson.AllowDuplicates) + "|"

	x := xxhash.Sum64([]byte(id))
	return strconv.FormatUint(x, 32)
}
