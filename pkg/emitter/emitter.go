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

// Package emitter delivers session events to their destinations.
package emitter

import (
	"context"

	"go.opentelemetry.io/collector/pdata/pmetric"
	"go.opentelemetry.io/collector/pdata/ptrace"

	"github.com/cardinalhq/rollcall/pkg/sampler"
	"github.com/cardinalhq/rollcall/pkg/state"
)

type Emitter interface {
	EmitDraw(ctx context.Context, rs *state.RunState, d Draw) error
	EmitMetrics(ctx context.Context, rs *state.RunState, md pmetric.Metrics) error
	EmitTraces(ctx context.Context, rs *state.RunState, td ptrace.Traces) error
}

// Draw is the outcome of one committed draw.
type Draw struct {
	Action       string           `json:"action,omitempty"`
	Value        int              `json:"value"`
	Exhausted    bool             `json:"exhausted,omitempty"`
	Previews     []int            `json:"previews,omitempty"`
	Announcement string           `json:"announcement,omitempty"`
	Snapshot     sampler.Snapshot `json:"snapshot"`
}
