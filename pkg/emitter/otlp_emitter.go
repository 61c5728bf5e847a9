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
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.opentelemetry.io/collector/pdata/pmetric"
	"go.opentelemetry.io/collector/pdata/pmetric/pmetricotlp"
	"go.opentelemetry.io/collector/pdata/ptrace"
	"go.opentelemetry.io/collector/pdata/ptrace/ptraceotlp"

	"github.com/cardinalhq/rollcall/pkg/rollerr"
	"github.com/cardinalhq/rollcall/pkg/state"
)

// OTLPEmitter posts metrics and traces to an OTLP/HTTP collector. Draw
// events are not exported on their own; each one arrives as a trace.
type OTLPEmitter struct {
	client   *http.Client
	endpoint string
	headers  map[string]string
}

var _ Emitter = (*OTLPEmitter)(nil)

func NewOTLPEmitter(client *http.Client, endpoint string, headers map[string]string) (*OTLPEmitter, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("otlp endpoint is required")
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &OTLPEmitter{
		client:   client,
		endpoint: endpoint,
		headers:  headers,
	}, nil
}

func (e *OTLPEmitter) EmitDraw(_ context.Context, _ *state.RunState, _ Draw) error {
	return nil
}

func (e *OTLPEmitter) EmitMetrics(ctx context.Context, _ *state.RunState, md pmetric.Metrics) error {
	if md.DataPointCount() == 0 {
		return nil
	}

	req := pmetricotlp.NewExportRequestFromMetrics(md)

	body, err := req.MarshalProto()
	if err != nil {
		return fmt.Errorf("failed to marshal metrics to protobuf: %w", err)
	}
	return e.post(ctx, "/v1/metrics", body)
}

func (e *OTLPEmitter) EmitTraces(ctx context.Context, _ *state.RunState, td ptrace.Traces) error {
	if td.SpanCount() == 0 {
		return nil
	}

	req := ptraceotlp.NewExportRequestFromTraces(td)

	body, err := req.MarshalProto()
	if err != nil {
		return fmt.Errorf("failed to marshal traces to protobuf: %w", err)
	}
	return e.post(ctx, "/v1/traces", body)
}

func (e *OTLPEmitter) post(ctx context.Context, path string, body []byte) error {
	url := strings.TrimRight(e.endpoint, "/") + path

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	for k, v := range e.headers {
		httpReq.Header.Set(k, v)
	}
	httpReq.Header.Set("Content-Type", "application/x-protobuf")

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send telemetry: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return &rollerr.HTTPError{URL: url, Status: resp.Status, Body: string(respBody)}
	}

	return nil
}
