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

package state

import (
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/antithesishq/antithesis-sdk-go/random"

	"github.com/cardinalhq/rollcall/pkg/rollerr"
)

// RunState is the clock of a scripted session.
type RunState struct {
	Tick          time.Duration
	Wallclock     time.Time
	Duration      time.Duration
	CurrentAction int
}

func NewRunState(duration time.Duration) *RunState {
	return &RunState{
		Duration: duration,
	}
}

// Percent reports how far through the session the clock is.
func (rs *RunState) Percent() float64 {
	if rs.Duration <= 0 {
		return 100
	}
	return rs.Tick.Seconds() / rs.Duration.Seconds() * 100
}

const (
	SourcePCG        = "pcg"
	SourceChaCha8    = "chacha8"
	SourceAntithesis = "antithesis"
)

// MakeRNG returns a PCG generator. A zero seed is replaced with the
// current time.
func MakeRNG(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed))
}

// NewRNG builds the generator named by source. The antithesis source
// ignores the seed; under the Antithesis platform its values are
// chosen by the fuzzer.
func NewRNG(source string, seed uint64) (*rand.Rand, error) {
	switch source {
	case "", SourcePCG:
		return MakeRNG(seed), nil
	case SourceChaCha8:
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}
		var key [32]byte
		for i := range 4 {
			binary.LittleEndian.PutUint64(key[i*8:], seed+uint64(i))
		}
		return rand.New(rand.NewChaCha8(key)), nil
	case SourceAntithesis:
		return rand.New(antithesisSource{}), nil
	default:
		return nil, fmt.Errorf("%w: %q", rollerr.ErrUnknownSource, source)
	}
}

type antithesisSource struct{}

var _ rand.Source = antithesisSource{}

func (antithesisSource) Uint64() uint64 {
	return random.GetRandom()
}
