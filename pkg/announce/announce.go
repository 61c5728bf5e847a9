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

// Package announce turns a committed draw into the text read out to the
// class.
package announce

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// DefaultTemplate congratulates the drawn student.
const DefaultTemplate = "恭喜%学号号同学成功被抽中！"

// Placeholders understood by Render.
const (
	PlaceholderNumber = "%学号"
	PlaceholderYear   = "%y"
	PlaceholderMonth  = "%m"
	PlaceholderDay    = "%d"
	PlaceholderHour   = "%h"
	PlaceholderMinute = "%M"
	PlaceholderSecond = "%s"
)

// Render substitutes the drawn value and the date and time fields of now
// into template. Month, day, hour, minute and second are zero padded.
func Render(template string, value int, now time.Time) string {
	r := strings.NewReplacer(
		PlaceholderNumber, strconv.Itoa(value),
		PlaceholderYear, strconv.Itoa(now.Year()),
		PlaceholderMonth, fmt.Sprintf("%02d", int(now.Month())),
		PlaceholderDay, fmt.Sprintf("%02d", now.Day()),
		PlaceholderHour, fmt.Sprintf("%02d", now.Hour()),
		PlaceholderMinute, fmt.Sprintf("%02d", now.Minute()),
		PlaceholderSecond, fmt.Sprintf("%02d", now.Second()),
	)
	return r.Replace(template)
}

// Announcer delivers rendered text. Speech engines live outside this
// module.
type Announcer interface {
	Announce(text string) error
}

type WriterAnnouncer struct {
	out io.Writer
}

func NewWriterAnnouncer(out io.Writer) *WriterAnnouncer {
	return &WriterAnnouncer{out: out}
}

func (a *WriterAnnouncer) Announce(text string) error {
	_, err := fmt.Fprintln(a.out, text)
	return err
}
