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

// Package settings holds the user preferences that feed the sampling
// engine and the announcer. Range bounds and the animation delay are kept
// as the text the user typed; Validate, Range and Delay interpret
// them.
package settings

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/mitchellh/mapstructure"

	"github.com/cardinalhq/rollcall/pkg/announce"
	"github.com/cardinalhq/rollcall/pkg/config"
	"github.com/cardinalhq/rollcall/pkg/rollerr"
	"github.com/cardinalhq/rollcall/pkg/sampler"
)

type Settings struct {
	Start               string `mapstructure:"start" yaml:"start" json:"start" env:"ROLLCALL_START"`
	End                 string `mapstructure:"end" yaml:"end" json:"end" env:"ROLLCALL_END"`
	AllowDuplicates     bool   `mapstructure:"allowDuplicates" yaml:"allowDuplicates" json:"allowDuplicates" env:"ROLLCALL_ALLOW_DUPLICATES"`
	TransitionAnimation bool   `mapstructure:"transitionAnimation" yaml:"transitionAnimation" json:"transitionAnimation" env:"ROLLCALL_TRANSITION_ANIMATION"`
	Announce            bool   `mapstructure:"announce" yaml:"announce" json:"announce" env:"ROLLCALL_ANNOUNCE"`
	AnnounceTemplate    string `mapstructure:"announceTemplate" yaml:"announceTemplate" json:"announceTemplate" env:"ROLLCALL_ANNOUNCE_TEMPLATE"`
	AnimationDelay      string `mapstructure:"animationDelay" yaml:"animationDelay" json:"animationDelay" env:"ROLLCALL_ANIMATION_DELAY"`
}

const (
	DefaultStart          = 1
	DefaultEnd            = 30
	DefaultAnimationDelay = 10 * time.Millisecond
)

func Defaults() Settings {
	return Settings{
		Start:               strconv.Itoa(DefaultStart),
		End:                 strconv.Itoa(DefaultEnd),
		TransitionAnimation: true,
		AnnounceTemplate:    announce.DefaultTemplate,
		AnimationDelay:      strconv.Itoa(int(DefaultAnimationDelay / time.Millisecond)),
	}
}

// Validate reports the first problem with the range inputs.
func (s Settings) Validate() error {
	if s.Start == "" {
		return rollerr.ErrStartMissing
	}
	if s.End == "" {
		return rollerr.ErrEndMissing
	}
	start, err := strconv.Atoi(s.Start)
	if err != nil {
		return fmt.Errorf("%w: %q", rollerr.ErrStartNotNumber, s.Start)
	}
	end, err := strconv.Atoi(s.End)
	if err != nil {
		return fmt.Errorf("%w: %q", rollerr.ErrEndNotNumber, s.End)
	}
	if start > end {
		return fmt.Errorf("%w: %d > %d", rollerr.ErrStartAfterEnd, start, end)
	}
	if r := (sampler.Range{Start: start, End: end}); !r.Fits() {
		return fmt.Errorf("%w: %s", rollerr.ErrRangeTooLarge, r)
	}
	return nil
}

// Range parses the bounds, falling back to the defaults for unparsable
// input, and orders them.
func (s Settings) Range() sampler.Range {
	start, err := strconv.Atoi(s.Start)
	if err != nil {
		start = DefaultStart
	}
	end, err := strconv.Atoi(s.End)
	if err != nil {
		end = DefaultEnd
	}
	return sampler.NormalizeRange(start, end)
}

// Delay is the pause between preview frames. Unparsable or non-positive
// values give DefaultAnimationDelay.
func (s Settings) Delay() time.Duration {
	ms, err := strconv.Atoi(strings.TrimSpace(s.AnimationDelay))
	if err != nil || ms <= 0 {
		return DefaultAnimationDelay
	}
	return time.Duration(ms) * time.Millisecond
}

func (s *Settings) ResetTemplate() {
	s.AnnounceTemplate = announce.DefaultTemplate
}

// ApplyEnv overlays any ROLLCALL_* variables that are set.
func ApplyEnv(s *Settings) error {
	if err := env.Parse(s); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Decode applies a partial update. Values may be strings, as typed on a
// command line.
func Decode(s *Settings, m map[string]any) error {
	decoder, err := config.NewWeakMapstructureDecoder(s)
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(m); err != nil {
		return &rollerr.DecodeError{Name: "settings", Err: err}
	}
	return nil
}

// ToMap flattens the settings into their string form, keyed like the
// YAML file.
func (s Settings) ToMap() map[string]string {
	raw := map[string]any{}
	// Decoding a flat struct of strings and bools into a map cannot fail.
	_ = mapstructure.Decode(s, &raw)
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		out[k] = fmt.Sprint(v)
	}
	return out
}

// Keys lists the setting names in sorted order.
func Keys() []string {
	return slices.Sorted(maps.Keys(Defaults().ToMap()))
}

func (s Settings) Get(key string) (string, error) {
	v, ok := s.ToMap()[key]
	if !ok {
		return "", fmt.Errorf("%w: %q", rollerr.ErrUnknownSetting, key)
	}
	return v, nil
}
