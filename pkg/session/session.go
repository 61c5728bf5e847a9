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

// Package session replays a timed script of engine operations, one tick
// per second, and hands every draw and a metrics batch per tick to the
// configured emitters.
package session

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/cardinalhq/oteltools/signalbuilder"

	"github.com/cardinalhq/rollcall/pkg/announce"
	"github.com/cardinalhq/rollcall/pkg/config"
	"github.com/cardinalhq/rollcall/pkg/emitter"
	"github.com/cardinalhq/rollcall/pkg/rollerr"
	"github.com/cardinalhq/rollcall/pkg/sampler"
	"github.com/cardinalhq/rollcall/pkg/scriptaction"
	"github.com/cardinalhq/rollcall/pkg/settings"
	"github.com/cardinalhq/rollcall/pkg/state"
	"github.com/cardinalhq/rollcall/pkg/telemetry"
	"github.com/cardinalhq/rollcall/pkg/traceproducer"
)

type Script struct {
	actions  []scriptaction.ScriptAction
	emitters []emitter.Emitter
	attrs    telemetry.Attributes
	duration time.Duration
	from     time.Duration
}

func NewScript() *Script {
	return &Script{
		actions: []scriptaction.ScriptAction{},
		attrs: telemetry.Attributes{
			Resource: map[string]any{"service.name": "rollcall"},
		},
	}
}

func (s *Script) AddAction(action scriptaction.ScriptAction) {
	s.actions = append(s.actions, action)
}

func (s *Script) AddEmitter(e emitter.Emitter) {
	s.emitters = append(s.emitters, e)
}

// SetAttributes replaces the attributes stamped on every metric batch.
func (s *Script) SetAttributes(attrs telemetry.Attributes) {
	s.attrs = attrs
}

// runner is the mutable state of one session.
type runner struct {
	script   *Script
	cfg      *config.Config
	engine   *sampler.Engine
	settings settings.Settings
	producer *telemetry.Producer
	traces   *traceproducer.Producer
}

// Run plays the script against a fresh engine built from cfg.
func Run(ctx context.Context, cfg *config.Config, script *Script) error {
	if err := prepareScript(cfg, script); err != nil {
		return fmt.Errorf("error creating running config: %w", err)
	}
	script.from = cfg.From

	r, err := newRunner(cfg, script)
	if err != nil {
		return err
	}
	return r.run(ctx)
}

func prepareScript(cfg *config.Config, script *Script) error {
	slices.SortStableFunc(script.actions, func(a, b scriptaction.ScriptAction) int {
		if a.At != b.At {
			if a.At < b.At {
				return -1
			}
			return 1
		}
		if v := cmp.Compare(scriptaction.Rank(a.Type), scriptaction.Rank(b.Type)); v != 0 {
			return v
		}
		if v := strings.Compare(a.Type, b.Type); v != 0 {
			return v
		}
		return strings.Compare(a.Name, b.Name)
	})

	d, err := calculateDuration(cfg.Duration, script.actions)
	if err != nil {
		return err
	}
	cfg.Duration = d
	script.duration = d
	return nil
}

func calculateDuration(cd time.Duration, actions []scriptaction.ScriptAction) (time.Duration, error) {
	if len(actions) == 0 {
		return 0, rollerr.ErrNoActions
	}
	last := actions[len(actions)-1].At
	if cd == 0 {
		return last, nil
	}
	if cd < last {
		return 0, rollerr.ErrDurationTooLow
	}
	return cd, nil
}

func newRunner(cfg *config.Config, script *Script) (*runner, error) {
	s := settings.Defaults()
	if err := settings.Decode(&s, cfg.Settings); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session settings: %w", err)
	}

	rnd, err := state.NewRNG(cfg.Source, cfg.Seed)
	if err != nil {
		return nil, err
	}

	return &runner{
		script: script,
		cfg:    cfg,
		engine: sampler.New(
			sampler.WithRand(rnd),
			sampler.WithRange(s.Range()),
			sampler.WithAllowDuplicates(s.AllowDuplicates),
		),
		settings: s,
		producer: telemetry.NewProducer(script.attrs),
		traces:   traceproducer.New(state.MakeRNG(cfg.Seed), script.attrs.Resource),
	}, nil
}

func (r *runner) run(ctx context.Context) error {
	rs := state.NewRunState(r.script.duration)
	if r.cfg.WallclockStart.IsZero() {
		r.cfg.WallclockStart = time.Now()
	}
	slog.Info("Starting session",
		"duration", rs.Duration,
		"actions", len(r.script.actions),
		"range", r.engine.Range().String(),
		"dryrun", r.cfg.Dryrun)

	seconds := int64(rs.Duration.Seconds())
	for now := range seconds + 1 {
		rs.Tick = time.Duration(now) * time.Second
		rs.Wallclock = r.cfg.WallclockStart.Add(rs.Tick)
		if err := r.tick(ctx, rs); err != nil {
			return fmt.Errorf("error running script: %w", err)
		}
		if !r.cfg.Dryrun && rs.Tick < r.script.duration {
			if err := sleep(ctx, time.Second); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *runner) tick(ctx context.Context, rs *state.RunState) error {
	for rs.CurrentAction < len(r.script.actions) && r.script.actions[rs.CurrentAction].At <= rs.Tick {
		action := r.script.actions[rs.CurrentAction]
		rs.CurrentAction++
		if err := r.execute(ctx, rs, action); err != nil {
			return err
		}
	}

	md, err := r.producer.Build(r.engine.Snapshot(), rs.Wallclock)
	if err != nil {
		return fmt.Errorf("error building metrics: %w", err)
	}
	if !r.emitting(rs) {
		return nil
	}
	for _, e := range r.script.emitters {
		if err := e.EmitMetrics(ctx, rs, md); err != nil {
			return fmt.Errorf("error emitting metrics: %w", err)
		}
	}
	return nil
}

func (r *runner) emitting(rs *state.RunState) bool {
	return rs.Tick >= r.script.from
}

type configureSpec struct {
	Start           int   `mapstructure:"start"`
	End             int   `mapstructure:"end"`
	ResetProgress   bool  `mapstructure:"resetProgress"`
	AllowDuplicates *bool `mapstructure:"allowDuplicates"`
}

type duplicatesSpec struct {
	Allow bool `mapstructure:"allow"`
}

type drawSpec struct {
	Count    int `mapstructure:"count"`
	Previews int `mapstructure:"previews"`
}

func decodeSpec(action scriptaction.ScriptAction, target any) error {
	decoder, err := config.NewMapstructureDecoder(target)
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(action.Spec); err != nil {
		return &rollerr.DecodeError{Name: action.Name, Err: err}
	}
	return nil
}

func (r *runner) execute(ctx context.Context, rs *state.RunState, action scriptaction.ScriptAction) error {
	slog.Debug("Running action", "at", action.At, "type", action.Type, "name", action.Name)

	switch action.Type {
	case scriptaction.TypeConfigure:
		cur := r.engine.Range()
		spec := configureSpec{Start: cur.Start, End: cur.End}
		if err := decodeSpec(action, &spec); err != nil {
			return err
		}
		rng := sampler.NormalizeRange(spec.Start, spec.End)
		if !rng.Fits() {
			return fmt.Errorf("%w: %s", rollerr.ErrRangeTooLarge, rng)
		}
		r.engine.Configure(rng, spec.ResetProgress)
		if spec.AllowDuplicates != nil {
			r.engine.SetAllowDuplicates(*spec.AllowDuplicates)
		}

	case scriptaction.TypeDuplicates:
		spec := duplicatesSpec{Allow: r.engine.AllowDuplicates()}
		if err := decodeSpec(action, &spec); err != nil {
			return err
		}
		r.engine.SetAllowDuplicates(spec.Allow)

	case scriptaction.TypeDraw:
		spec := drawSpec{Count: 1}
		if err := decodeSpec(action, &spec); err != nil {
			return err
		}
		return r.draw(ctx, rs, action.Name, spec)

	case scriptaction.TypeReset:
		r.engine.Reset()

	case scriptaction.TypeSettings:
		if err := settings.Decode(&r.settings, action.Spec); err != nil {
			return err
		}

	default:
		return fmt.Errorf("%w: %q", rollerr.ErrUnknownAction, action.Type)
	}
	return nil
}

func (r *runner) draw(ctx context.Context, rs *state.RunState, name string, spec drawSpec) error {
	for range spec.Count {
		d := emitter.Draw{Action: name}

		r.engine.BeginPreview()
		for range spec.Previews {
			d.Previews = append(d.Previews, r.engine.PreviewValue())
			if r.cfg.Dryrun || !r.settings.TransitionAnimation {
				continue
			}
			if err := sleep(ctx, r.settings.Delay()); err != nil {
				return err
			}
		}

		v, err := r.engine.Commit()
		switch {
		case errors.Is(err, rollerr.ErrExhausted):
			d.Exhausted = true
		case err != nil:
			return err
		default:
			d.Value = v
			if r.settings.Announce {
				d.Announcement = announce.Render(r.settings.AnnounceTemplate, v, rs.Wallclock)
			}
		}
		r.producer.RecordCommit(d.Exhausted)
		d.Snapshot = r.engine.Snapshot()

		if r.emitting(rs) {
			if err := r.emitDraw(ctx, rs, d); err != nil {
				return err
			}
		}
		if d.Exhausted {
			slog.Info("Range exhausted", "action", name, "range", r.engine.Range().String())
			return nil
		}
	}
	return nil
}

func (r *runner) emitDraw(ctx context.Context, rs *state.RunState, d emitter.Draw) error {
	tb := signalbuilder.NewTracesBuilder()
	if err := r.traces.Add(tb, d, rs.Wallclock, r.settings.Delay()); err != nil {
		return fmt.Errorf("error building draw trace: %w", err)
	}
	td := tb.Build()

	for _, e := range r.script.emitters {
		if err := e.EmitDraw(ctx, rs, d); err != nil {
			return fmt.Errorf("error emitting draw: %w", err)
		}
		if err := e.EmitTraces(ctx, rs, td); err != nil {
			return fmt.Errorf("error emitting traces: %w", err)
		}
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
