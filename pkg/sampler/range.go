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

package sampler

import (
	"fmt"
	"math"
)

// Range is an inclusive interval. Start must not exceed End.
type Range struct {
	Start int `mapstructure:"start" yaml:"start" json:"start"`
	End   int `mapstructure:"end" yaml:"end" json:"end"`
}

var DefaultRange = Range{Start: 1, End: 30}

// NormalizeRange orders a and b into a valid Range.
func NormalizeRange(a, b int) Range {
	return Range{Start: min(a, b), End: max(a, b)}
}

func (r Range) Total() int {
	return r.End - r.Start + 1
}

// Fits reports whether Total is representable as an int. Ranges that
// span more than math.MaxInt values do not fit.
func (r Range) Fits() bool {
	d := r.End - r.Start
	return d >= 0 && d < math.MaxInt
}

func (r Range) Contains(v int) bool {
	return v >= r.Start && v <= r.End
}

func (r Range) String() string {
	return fmt.Sprintf("[%d,%d]", r.Start, r.End)
}
