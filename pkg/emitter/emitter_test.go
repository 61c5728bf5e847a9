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

package emitter

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/collector/pdata/pmetric"
	"go.opentelemetry.io/collector/pdata/pmetric/pmetricotlp"
	"go.opentelemetry.io/collector/pdata/ptrace"
	"go.opentelemetry.io/collector/pdata/ptrace/ptraceotlp"

	"github.com/cardinalhq/rollcall/pkg/rollerr"
	"github.com/cardinalhq/rollcall/pkg/sampler"
	"github.com/cardinalhq/rollcall/pkg/state"
)

func testMetrics() pmetric.Metrics {
	md := pmetric.NewMetrics()
	m := md.ResourceMetrics().AppendEmpty().ScopeMetrics().AppendEmpty().Metrics().AppendEmpty()
	m.SetName("rollcall.progress")
	m.SetEmptyGauge().DataPoints().AppendEmpty().SetDoubleValue(0.25)
	return md
}

func testTraces() ptrace.Traces {
	td := ptrace.NewTraces()
	span := td.ResourceSpans().AppendEmpty().ScopeSpans().AppendEmpty().Spans().AppendEmpty()
	span.SetName("rollcall.draw")
	return td
}

func testRunState() *state.RunState {
	rs := state.NewRunState(10 * time.Second)
	rs.Tick = 5 * time.Second
	rs.Wallclock = time.Date(2025, 3, 1, 8, 0, 5, 0, time.UTC)
	return rs
}

func testDraw() Draw {
	return Draw{
		Action:   "first",
		Value:    7,
		Previews: []int{3, 9},
		Snapshot: sampler.Snapshot{Range: sampler.Range{Start: 1, End: 30}, Progress: 0.25},
	}
}

func TestDebugEmitter(t *testing.T) {
	var buf bytes.Buffer
	e := NewDebugEmitter(&buf)
	ctx := context.Background()
	rs := testRunState()

	require.NoError(t, e.EmitDraw(ctx, rs, testDraw()))
	require.NoError(t, e.EmitMetrics(ctx, rs, testMetrics()))
	require.NoError(t, e.EmitMetrics(ctx, rs, pmetric.NewMetrics()))
	require.NoError(t, e.EmitTraces(ctx, rs, testTraces()))
	require.NoError(t, e.EmitTraces(ctx, rs, ptrace.NewTraces()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)

	var msg DebugMessage
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &msg))
	assert.Equal(t, "5s", msg.Now)
	require.NotNil(t, msg.Draw)
	assert.Equal(t, 7, msg.Draw.Value)
	assert.Equal(t, []int{3, 9}, msg.Draw.Previews)

	assert.Contains(t, lines[1], "rollcall.progress")
	assert.Contains(t, lines[2], "rollcall.draw")
}

func TestTickerEmitter(t *testing.T) {
	var buf bytes.Buffer
	e := NewTickerEmitter(&buf)
	rs := testRunState()

	require.NoError(t, e.EmitDraw(context.Background(), rs, testDraw()))
	assert.Equal(t, "Tick 5 50.00% drew 7 progress 25% 2025-03-01 08:00:05\r", buf.String())

	buf.Reset()
	require.NoError(t, e.EmitDraw(context.Background(), rs, Draw{Exhausted: true}))
	assert.Contains(t, buf.String(), "drew -")
}

func TestJSONEmitter(t *testing.T) {
	var buf bytes.Buffer
	e := NewJSONEmitter(&buf)
	rs := testRunState()

	require.NoError(t, e.EmitMetrics(context.Background(), rs, testMetrics()))

	var j jsonWrapper
	require.NoError(t, json.Unmarshal(buf.Bytes(), &j))
	assert.Equal(t, "5s", j.At)

	raw, err := base64.StdEncoding.DecodeString(j.MetricsProtobuf)
	require.NoError(t, err)
	zr, err := gzip.NewReader(bytes.NewReader(raw))
	require.NoError(t, err)
	pb, err := io.ReadAll(zr)
	require.NoError(t, err)

	md, err := (&pmetric.ProtoUnmarshaler{}).UnmarshalMetrics(pb)
	require.NoError(t, err)
	assert.Equal(t, 1, md.DataPointCount())
}

func TestOTLPEmitter(t *testing.T) {
	t.Run("posts protobuf", func(t *testing.T) {
		var got pmetric.Metrics
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/metrics", r.URL.Path)
			assert.Equal(t, "application/x-protobuf", r.Header.Get("Content-Type"))
			assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
			body, err := io.ReadAll(r.Body)
			assert.NoError(t, err)
			req := pmetricotlp.NewExportRequest()
			assert.NoError(t, req.UnmarshalProto(body))
			got = req.Metrics()
		}))
		defer srv.Close()

		e, err := NewOTLPEmitter(srv.Client(), srv.URL+"/", map[string]string{"X-Api-Key": "secret"})
		require.NoError(t, err)
		require.NoError(t, e.EmitMetrics(context.Background(), testRunState(), testMetrics()))
		assert.Equal(t, 1, got.DataPointCount())
	})

	t.Run("posts traces", func(t *testing.T) {
		var got ptrace.Traces
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/traces", r.URL.Path)
			body, err := io.ReadAll(r.Body)
			assert.NoError(t, err)
			req := ptraceotlp.NewExportRequest()
			assert.NoError(t, req.UnmarshalProto(body))
			got = req.Traces()
		}))
		defer srv.Close()

		e, err := NewOTLPEmitter(srv.Client(), srv.URL, nil)
		require.NoError(t, err)
		require.NoError(t, e.EmitTraces(context.Background(), testRunState(), testTraces()))
		assert.Equal(t, 1, got.SpanCount())
	})

	t.Run("collector error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "nope", http.StatusBadRequest)
		}))
		defer srv.Close()

		e, err := NewOTLPEmitter(srv.Client(), srv.URL, nil)
		require.NoError(t, err)
		err = e.EmitMetrics(context.Background(), testRunState(), testMetrics())
		var he *rollerr.HTTPError
		require.ErrorAs(t, err, &he)
		assert.Contains(t, he.Body, "nope")
	})

	t.Run("endpoint required", func(t *testing.T) {
		_, err := NewOTLPEmitter(nil, "", nil)
		assert.Error(t, err)
	})
}
