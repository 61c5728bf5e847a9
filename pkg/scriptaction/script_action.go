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

package scriptaction

import (
	"slices"
	"time"
)

// Action types understood by a session.
const (
	TypeConfigure  = "configure"
	TypeDuplicates = "duplicates"
	TypeDraw       = "draw"
	TypeReset      = "reset"
	TypeSettings   = "settings"
)

// order is the run order of action types sharing a tick. Changes to the
// range, policy and settings land before any draw at that tick.
var order = []string{TypeConfigure, TypeDuplicates, TypeReset, TypeSettings, TypeDraw}

// Rank orders action types within a tick. Unknown types sort last.
func Rank(actionType string) int {
	if i := slices.Index(order, actionType); i >= 0 {
		return i
	}
	return len(order)
}

type ScriptAction struct {
	At   time.Duration  `mapstructure:"at" yaml:"at" json:"at"`
	Name string         `mapstructure:"name" yaml:"name" json:"name"`
	Type string         `mapstructure:"type" yaml:"type" json:"type"`
	Spec map[string]any `mapstructure:"spec" yaml:"spec" json:"spec"`
}
