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

package percent

import (
	"strconv"
	"strings"
)

// DefaultPlaces is the precision used for on-screen probabilities.
const DefaultPlaces = 5

// Format renders a probability in [0,1] as a percentage with at most
// places decimals, dropping trailing zeros and a dangling point.
func Format(p float64, places int) string {
	s := strconv.FormatFloat(p*100, 'f', max(places, 0), 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	return s + "%"
}
