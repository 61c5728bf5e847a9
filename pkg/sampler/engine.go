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

// Package sampler draws integers from an inclusive range, with or without
// replacement, and reports progress through the range.
//
// Only Commit records a value. PreviewValue may be called any number of
// times to animate a pending draw without touching progress.
package sampler

import (
	"math"
	"math/rand/v2"
	"slices"

	"github.com/antithesishq/antithesis-sdk-go/assert"

	"github.com/cardinalhq/rollcall/pkg/rollerr"
	"github.com/cardinalhq/rollcall/pkg/state"
)

// Phase tracks whether a real draw has been attempted since the last reset.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRunning
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRunning:
		return "running"
	default:
		return "unknown"
	}
}

// Engine is not safe for concurrent use. Wrap it in a Locked when more
// than one goroutine drives it.
type Engine struct {
	rnd             *rand.Rand
	rng             Range
	allowDuplicates bool
	drawn           map[int]struct{}
	phase           Phase
	previewing      bool
}

type Option func(*Engine)

// WithRand sets the random source. The engine owns it afterwards.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) {
		e.rnd = r
	}
}

func WithRange(r Range) Option {
	return func(e *Engine) {
		e.rng = r
	}
}

func WithAllowDuplicates(allow bool) Option {
	return func(e *Engine) {
		e.allowDuplicates = allow
	}
}

// New returns an engine over DefaultRange that does not allow duplicates.
func New(opts ...Option) *Engine {
	e := &Engine{
		rng:   DefaultRange,
		drawn: map[int]struct{}{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rnd == nil {
		e.rnd = state.MakeRNG(0)
	}
	return e
}

// Configure replaces the range. With resetProgress the drawn set and
// flags are cleared as well; without it they are kept so a resumed
// preview does not lose earlier draws. r must already be normalized.
func (e *Engine) Configure(r Range, resetProgress bool) {
	e.rng = r
	if resetProgress {
		e.Reset()
	}
}

// SetAllowDuplicates sets the sampling policy. Turning duplicates off
// resets progress when more values are marked drawn than the current
// range holds.
func (e *Engine) SetAllowDuplicates(allow bool) {
	e.allowDuplicates = allow
	if !allow && len(e.drawn) > e.rng.Total() {
		e.Reset()
	}
}

func (e *Engine) BeginPreview() {
	e.previewing = true
}

// PreviewValue returns a uniform value in the range. It is never recorded.
func (e *Engine) PreviewValue() int {
	return e.sample()
}

// Commit ends the preview and performs the draw that counts toward
// progress. It returns rollerr.ErrExhausted once a no-duplicates range
// has been fully drawn.
func (e *Engine) Commit() (int, error) {
	e.previewing = false
	e.phase = PhaseRunning

	if e.allowDuplicates {
		return e.sample(), nil
	}

	total := e.rng.Total()
	if len(e.drawn) >= total {
		return 0, rollerr.ErrExhausted
	}

	// Bounded rejection sampling, then the lowest unused value.
	maxAttempts := total
	if maxAttempts <= math.MaxInt/2 {
		maxAttempts *= 2
	}
	for range maxAttempts {
		v := e.sample()
		if _, ok := e.drawn[v]; !ok {
			e.drawn[v] = struct{}{}
			return v, nil
		}
	}

	for v := e.rng.Start; v <= e.rng.End; v++ {
		if _, ok := e.drawn[v]; !ok {
			e.drawn[v] = struct{}{}
			return v, nil
		}
	}

	assert.Unreachable("scan found no unused value after capacity check", map[string]any{
		"start": e.rng.Start,
		"end":   e.rng.End,
		"drawn": len(e.drawn),
	})
	return 0, rollerr.ErrExhausted
}

// CanContinue is false only once a no-duplicates range is used up.
func (e *Engine) CanContinue() bool {
	if e.phase == PhaseIdle || e.allowDuplicates {
		return true
	}
	return len(e.drawn) < e.rng.Total()
}

// Progress is the drawn fraction of the range. It stays at zero while
// duplicates are allowed.
func (e *Engine) Progress() float64 {
	if e.phase == PhaseIdle || e.allowDuplicates {
		return 0
	}
	total := e.rng.Total()
	if total <= 0 {
		return 0
	}
	return float64(len(e.drawn)) / float64(total)
}

// Probability is the chance of any one remaining value being the next
// draw.
func (e *Engine) Probability() float64 {
	if e.allowDuplicates {
		return e.FixedProbability()
	}
	remaining := e.rng.Total() - len(e.drawn)
	if remaining <= 0 {
		return 0
	}
	return 1 / float64(remaining)
}

// FixedProbability is 1/total regardless of history or policy.
func (e *Engine) FixedProbability() float64 {
	total := e.rng.Total()
	if total <= 0 {
		return 0
	}
	return 1 / float64(total)
}

// Reset clears progress. The range and policy are kept.
func (e *Engine) Reset() {
	clear(e.drawn)
	e.phase = PhaseIdle
	e.previewing = false
}

func (e *Engine) Range() Range {
	return e.rng
}

func (e *Engine) AllowDuplicates() bool {
	return e.allowDuplicates
}

func (e *Engine) Phase() Phase {
	return e.phase
}

func (e *Engine) Previewing() bool {
	return e.previewing
}

func (e *Engine) DrawnCount() int {
	return len(e.drawn)
}

// TotalPossible is the size of the range once a draw has been attempted,
// and zero before.
func (e *Engine) TotalPossible() int {
	if e.phase == PhaseIdle {
		return 0
	}
	return e.rng.Total()
}

func (e *Engine) Remaining() int {
	return max(e.rng.Total()-len(e.drawn), 0)
}

// Drawn returns the committed values in ascending order.
func (e *Engine) Drawn() []int {
	out := make([]int, 0, len(e.drawn))
	for v := range e.drawn {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

// Snapshot is a point-in-time copy of the engine's observable state.
type Snapshot struct {
	Range            Range   `json:"range"`
	AllowDuplicates  bool    `json:"allowDuplicates"`
	Phase            string  `json:"phase"`
	Previewing       bool    `json:"previewing"`
	Drawn            int     `json:"drawn"`
	Remaining        int     `json:"remaining"`
	CanContinue      bool    `json:"canContinue"`
	Progress         float64 `json:"progress"`
	Probability      float64 `json:"probability"`
	FixedProbability float64 `json:"fixedProbability"`
}

func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		Range:            e.rng,
		AllowDuplicates:  e.allowDuplicates,
		Phase:            e.phase.String(),
		Previewing:       e.previewing,
		Drawn:            len(e.drawn),
		Remaining:        e.Remaining(),
		CanContinue:      e.CanContinue(),
		Progress:         e.Progress(),
		Probability:      e.Probability(),
		FixedProbability: e.FixedProbability(),
	}
}

func (e *Engine) sample() int {
	total := e.rng.Total()
	if total <= 1 {
		return e.rng.Start
	}
	return e.rng.Start + e.rnd.IntN(total)
}
