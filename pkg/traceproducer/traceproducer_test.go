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

package traceproducer

import (
	"testing"
	"time"

	"github.com/cardinalhq/oteltools/signalbuilder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/collector/pdata/ptrace"

	"github.com/cardinalhq/rollcall/pkg/emitter"
	"github.com/cardinalhq/rollcall/pkg/sampler"
	"github.com/cardinalhq/rollcall/pkg/state"
)

func spans(td ptrace.Traces) []ptrace.Span {
	var out []ptrace.Span
	rss := td.ResourceSpans()
	for i := range rss.Len() {
		sss := rss.At(i).ScopeSpans()
		for j := range sss.Len() {
			ss := sss.At(j).Spans()
			for k := range ss.Len() {
				out = append(out, ss.At(k))
			}
		}
	}
	return out
}

func TestAddDraw(t *testing.T) {
	p := New(state.MakeRNG(1), map[string]any{"service.name": "rollcall"})
	tb := signalbuilder.NewTracesBuilder()
	end := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	d := emitter.Draw{
		Action:   "first",
		Value:    12,
		Previews: []int{3, 17, 8},
		Snapshot: sampler.Snapshot{Range: sampler.Range{Start: 1, End: 30}},
	}
	require.NoError(t, p.Add(tb, d, end, 10*time.Millisecond))

	td := tb.Build()
	require.Equal(t, 4, td.SpanCount())

	all := spans(td)
	var root ptrace.Span
	var children []ptrace.Span
	for _, s := range all {
		if s.Name() == SpanDraw {
			root = s
		} else {
			children = append(children, s)
		}
	}
	assert.Equal(t, ptrace.StatusCodeOk, root.Status().Code())
	assert.Equal(t, end.Add(-30*time.Millisecond), root.StartTimestamp().AsTime())
	assert.Equal(t, end, root.EndTimestamp().AsTime())
	v, ok := root.Attributes().Get(AttrValue)
	require.True(t, ok)
	assert.Equal(t, int64(12), v.Int())

	require.Len(t, children, 3)
	for _, c := range children {
		assert.Equal(t, SpanPreview, c.Name())
		assert.Equal(t, root.TraceID(), c.TraceID())
		assert.Equal(t, root.SpanID(), c.ParentSpanID())
		assert.Equal(t, 10*time.Millisecond, c.EndTimestamp().AsTime().Sub(c.StartTimestamp().AsTime()))
	}
}

func TestAddExhaustedDraw(t *testing.T) {
	p := New(state.MakeRNG(2), nil)
	tb := signalbuilder.NewTracesBuilder()
	end := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	require.NoError(t, p.Add(tb, emitter.Draw{Exhausted: true}, end, time.Millisecond))

	td := tb.Build()
	require.Equal(t, 1, td.SpanCount())
	root := spans(td)[0]
	assert.Equal(t, ptrace.StatusCodeError, root.Status().Code())
	assert.Equal(t, "exhausted", root.Status().Message())
	_, ok := root.Attributes().Get(AttrValue)
	assert.False(t, ok)
	assert.Equal(t, root.StartTimestamp(), root.EndTimestamp())
}
