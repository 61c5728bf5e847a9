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
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/collector/pdata/pmetric"
	"go.opentelemetry.io/collector/pdata/ptrace"

	"github.com/cardinalhq/rollcall/pkg/state"
)

// JSONEmitter records a session for later replay: draws as plain JSON and
// metrics and traces as gzipped OTLP protobuf.
type JSONEmitter struct {
	out io.Writer
}

var _ Emitter = (*JSONEmitter)(nil)

func NewJSONEmitter(out io.Writer) *JSONEmitter {
	return &JSONEmitter{
		out: out,
	}
}

type jsonWrapper struct {
	Timestamp       time.Time `json:"timestamp"`
	At              string    `json:"at"`
	Draw            *Draw     `json:"draw,omitempty"`
	MetricsProtobuf string    `json:"metricsProtobuf,omitempty"`
	TracesProtobuf  string    `json:"tracesProtobuf,omitempty"`
}

func (e *JSONEmitter) EmitDraw(_ context.Context, rs *state.RunState, d Draw) error {
	return e.write(jsonWrapper{
		Timestamp: rs.Wallclock,
		At:        rs.Tick.String(),
		Draw:      &d,
	})
}

func (e *JSONEmitter) EmitMetrics(_ context.Context, rs *state.RunState, md pmetric.Metrics) error {
	if md.DataPointCount() == 0 {
		return nil
	}

	marshaller := pmetric.ProtoMarshaler{}

	msgBody, err := marshaller.MarshalMetrics(md)
	if err != nil {
		return fmt.Errorf("failed to marshal metrics: %w", err)
	}

	msgBody, err = gzipBytes(msgBody)
	if err != nil {
		return fmt.Errorf("failed to gzip metrics: %w", err)
	}

	return e.write(jsonWrapper{
		Timestamp:       rs.Wallclock,
		At:              rs.Tick.String(),
		MetricsProtobuf: base64.StdEncoding.EncodeToString(msgBody),
	})
}

func (e *JSONEmitter) EmitTraces(_ context.Context, rs *state.RunState, td ptrace.Traces) error {
	if td.SpanCount() == 0 {
		return nil
	}

	marshaller := ptrace.ProtoMarshaler{}

	msgBody, err := marshaller.MarshalTraces(td)
	if err != nil {
		return fmt.Errorf("failed to marshal traces: %w", err)
	}

	msgBody, err = gzipBytes(msgBody)
	if err != nil {
		return fmt.Errorf("failed to gzip traces: %w", err)
	}

	return e.write(jsonWrapper{
		Timestamp:      rs.Wallclock,
		At:             rs.Tick.String(),
		TracesProtobuf: base64.StdEncoding.EncodeToString(msgBody),
	})
}

func (e *JSONEmitter) write(j jsonWrapper) error {
	jsonData, err := json.Marshal(j)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Fprintln(e.out, string(jsonData))
	return nil
}

func gzipBytes(b []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(b); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
