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

// Package traceproducer renders committed draws as traces: one root span
// per draw covering its preview animation, with a child span for every
// preview frame.
package traceproducer

import (
	"math/rand/v2"
	"time"

	"github.com/cardinalhq/oteltools/signalbuilder"
	"go.opentelemetry.io/collector/pdata/pcommon"
	"go.opentelemetry.io/collector/pdata/ptrace"

	"github.com/cardinalhq/rollcall/pkg/emitter"
	"github.com/cardinalhq/rollcall/pkg/telemetry"
)

const (
	SpanDraw    = "rollcall.draw"
	SpanPreview = "rollcall.preview"

	AttrAction       = "rollcall.action"
	AttrValue        = "rollcall.value"
	AttrExhausted    = "rollcall.exhausted"
	AttrPreviews     = "rollcall.previews"
	AttrPreviewValue = "rollcall.preview.value"
)

type Producer struct {
	rnd      *rand.Rand
	resource map[string]any
}

// New returns a Producer drawing span ids from rnd. rnd must not be the
// engine's generator or ids would perturb the draw sequence.
func New(rnd *rand.Rand, resource map[string]any) *Producer {
	return &Producer{
		rnd:      rnd,
		resource: resource,
	}
}

func randomTraceID(r *rand.Rand) pcommon.TraceID {
	traceidBytes := make([]byte, 16)
	for i := range 16 {
		traceidBytes[i] = byte(r.IntN(256))
	}

	return pcommon.TraceID(traceidBytes)
}

func randomSpanID(r *rand.Rand) pcommon.SpanID {
	spanidBytes := make([]byte, 8)
	for i := range 8 {
		spanidBytes[i] = byte(r.IntN(256))
	}

	return pcommon.SpanID(spanidBytes)
}

// Add appends the trace of d to tb. The draw ends at end and each preview
// frame lasts frame.
func (p *Producer) Add(tb *signalbuilder.TracesBuilder, d emitter.Draw, end time.Time, frame time.Duration) error {
	rattr := pcommon.NewMap()
	if err := rattr.FromRaw(p.resource); err != nil {
		return err
	}
	rattr.PutStr(telemetry.AttrSessionID, telemetry.SessionID(d.Snapshot.Range, d.Snapshot.AllowDuplicates))

	sattr := pcommon.NewMap()
	scope := tb.Resource(rattr).Scope(sattr)

	start := end.Add(-frame * time.Duration(len(d.Previews)))
	traceID := randomTraceID(p.rnd)
	rootID := randomSpanID(p.rnd)

	root := scope.AddSpan()
	root.SetTraceID(traceID)
	root.SetSpanID(rootID)
	root.SetParentSpanID(pcommon.NewSpanIDEmpty())
	root.SetName(SpanDraw)
	root.SetKind(ptrace.SpanKindInternal)
	root.SetStartTimestamp(pcommon.NewTimestampFromTime(start))
	root.SetEndTimestamp(pcommon.NewTimestampFromTime(end))
	root.Attributes().PutStr(AttrAction, d.Action)
	root.Attributes().PutInt(AttrPreviews, int64(len(d.Previews)))
	if d.Exhausted {
		root.Attributes().PutBool(AttrExhausted, true)
		root.Status().SetCode(ptrace.StatusCodeError)
		root.Status().SetMessage("exhausted")
	} else {
		root.Attributes().PutInt(AttrValue, int64(d.Value))
		root.Status().SetCode(ptrace.StatusCodeOk)
		root.Status().SetMessage("")
	}

	for i, v := range d.Previews {
		fstart := start.Add(frame * time.Duration(i))
		child := scope.AddSpan()
		child.SetTraceID(traceID)
		child.SetSpanID(randomSpanID(p.rnd))
		child.SetParentSpanID(rootID)
		child.SetName(SpanPreview)
		child.SetKind(ptrace.SpanKindInternal)
		child.SetStartTimestamp(pcommon.NewTimestampFromTime(fstart))
		child.SetEndTimestamp(pcommon.NewTimestampFromTime(fstart.Add(frame)))
		child.Attributes().PutInt(AttrPreviewValue, int64(v))
		child.Status().SetCode(ptrace.StatusCodeOk)
	}

	return nil
}
