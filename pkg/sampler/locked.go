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

import "sync"

// Locked serializes every call on an Engine behind one mutex.
type Locked struct {
	mu sync.Mutex
	e  *Engine
}

func NewLocked(e *Engine) *Locked {
	return &Locked{e: e}
}

func (l *Locked) Configure(r Range, resetProgress bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.e.Configure(r, resetProgress)
}

func (l *Locked) SetAllowDuplicates(allow bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.e.SetAllowDuplicates(allow)
}

func (l *Locked) BeginPreview() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.e.BeginPreview()
}

func (l *Locked) PreviewValue() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.e.PreviewValue()
}

func (l *Locked) Commit() (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.e.Commit()
}

func (l *Locked) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.e.Reset()
}

func (l *Locked) Previewing() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.e.Previewing()
}

func (l *Locked) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.e.Snapshot()
}
