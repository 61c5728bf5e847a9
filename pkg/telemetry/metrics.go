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

package telemetry

import (
	"fmt"
	"strconv"
	"time"

	"github.com/cardinalhq/oteltools/signalbuilder"
	"github.com/cespare/xxhash/v2"
	"go.opentelemetry.io/collector/pdata/pcommon"
	"go.opentelemetry.io/collector/pdata/pmetric"

	"github.com/cardinalhq/rollcall/pkg/sampler"
)

const (
	MetricDraws       = "rollcall.draws"
	MetricExhausted   = "rollcall.exhausted"
	MetricProgress    = "rollcall.progress"
	MetricProbability = "rollcall.probability"
	MetricRemaining   = "rollcall.remaining"

	AttrSessionID       = "rollcall.session.id"
	AttrRangeStart      = "rollcall.range.start"
	AttrRangeEnd        = "rollcall.range.end"
	AttrAllowDuplicates = "rollcall.allow_duplicates"
)

type Attributes struct {
	Resource  map[string]any `mapstructure:"resource,omitempty" yaml:"resource,omitempty" json:"resource,omitempty"`
	Scope     map[string]any `mapstructure:"scope,omitempty" yaml:"scope,omitempty" json:"scope,omitempty"`
	Datapoint map[string]any `mapstructure:"datapoint,omitempty" yaml:"datapoint,omitempty" json:"datapoint,omitempty"`
}

// Producer turns engine snapshots into metric batches. It counts commits
// itself because the engine does not record draws made with duplicates.
type Producer struct {
	attrs     Attributes
	draws     int64
	exhausted int64
}

func NewProducer(attrs Attributes) *Producer {
	return &Producer{attrs: attrs}
}

func (p *Producer) RecordCommit(exhausted bool) {
	if exhausted {
		p.exhausted++
		return
	}
	p.draws++
}

func (p *Producer) Draws() int64 {
	return p.draws
}

// SessionID identifies a range and policy combination.
func SessionID(r sampler.Range, allowDuplicates bool) string {
	id := r.String() + "|" + strconv.FormatBool(allowDuplicates)
	return strconv.FormatUint(xxhash.Sum64String(id), 32)
}

func (p *Producer) Build(snap sampler.Snapshot, wallclock time.Time) (pmetric.Metrics, error) {
	mb := signalbuilder.NewMetricsBuilder()

	rattr := pcommon.NewMap()
	if err := rattr.FromRaw(p.attrs.Resource); err != nil {
		return pmetric.Metrics{}, fmt.Errorf("failed to create resource attributes: %w", err)
	}
	rattr.PutStr(AttrSessionID, SessionID(snap.Range, snap.AllowDuplicates))
	r := mb.Resource(rattr)

	sattr := pcommon.NewMap()
	if err := sattr.FromRaw(p.attrs.Scope); err != nil {
		return pmetric.Metrics{}, fmt.Errorf("failed to create scope attributes: %w", err)
	}
	s := r.Scope(sattr)

	ts := pcommon.NewTimestampFromTime(wallclock)
	points := []struct {
		name  string
		unit  string
		kind  pmetric.MetricType
		value float64
	}{
		{MetricDraws, "{draw}", pmetric.MetricTypeSum, float64(p.draws)},
		{MetricExhausted, "{draw}", pmetric.MetricTypeSum, float64(p.exhausted)},
		{MetricProgress, "1", pmetric.MetricTypeGauge, snap.Progress},
		{MetricProbability, "1", pmetric.MetricTypeGauge, snap.Probability},
		{MetricRemaining, "{number}", pmetric.MetricTypeGauge, float64(snap.Remaining)},
	}
	for _, pt := range points {
		mm, err := s.Metric(pt.name, pt.unit, pt.kind)
		if err != nil {
			return pmetric.Metrics{}, fmt.Errorf("failed to create metric %s: %w", pt.name, err)
		}
		dattr := pcommon.NewMap()
		if err := dattr.FromRaw(p.attrs.Datapoint); err != nil {
			return pmetric.Metrics{}, fmt.Errorf("failed to create datapoint attributes: %w", err)
		}
		dattr.PutInt(AttrRangeStart, int64(snap.Range.Start))
		dattr.PutInt(AttrRangeEnd, int64(snap.Range.End))
		dattr.PutBool(AttrAllowDuplicates, snap.AllowDuplicates)

		dp, _, _ := mm.Datapoint(dattr, ts)
		dp.SetDoubleValue(pt.value)
	}

	return mb.Build(), nil
}
