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

package rollerr

import (
	"errors"
	"fmt"
)

// ErrExhausted is returned by a commit once every value in the range has
// been drawn without duplicates. It is an expected outcome, not a fault.
var ErrExhausted = errors.New("all numbers in range have been drawn")

// Settings validation errors, reported in this order.
var (
	ErrStartMissing   = errors.New("start number is missing")
	ErrEndMissing     = errors.New("end number is missing")
	ErrStartNotNumber = errors.New("start number must be an integer")
	ErrEndNotNumber   = errors.New("end number must be an integer")
	ErrStartAfterEnd  = errors.New("start number must not be greater than end number")
	ErrRangeTooLarge  = errors.New("range holds too many numbers")
)

// Session and update errors.
var (
	ErrNoActions       = errors.New("no script actions found in config")
	ErrUnknownAction   = errors.New("unknown action type")
	ErrDurationTooLow  = errors.New("duration must be greater than or equal to the last script action time, or set to 0")
	ErrUnknownSource   = errors.New("unknown random source")
	ErrNoRelease       = errors.New("release descriptor has no version or package")
	ErrUnknownSetting  = errors.New("unknown setting")
	ErrDownloadStopped = errors.New("download stopped before completion")
)

type DecodeError struct {
	Name string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("unable to decode spec for %q: %v", e.Name, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// HTTPError reports a non-200 response from a remote endpoint.
type HTTPError struct {
	URL    string
	Status string
	Body   string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s returned %s", e.URL, e.Status)
	}
	return fmt.Sprintf("%s returned %s: %s", e.URL, e.Status, e.Body)
}
