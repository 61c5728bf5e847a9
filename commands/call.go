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

package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/cardinalhq/rollcall/pkg/announce"
	"github.com/cardinalhq/rollcall/pkg/rollerr"
	"github.com/cardinalhq/rollcall/pkg/sampler"
	"github.com/cardinalhq/rollcall/pkg/settings"
	"github.com/cardinalhq/rollcall/pkg/state"
)

var callFrames int

var CallCmd = &cobra.Command{
	Use:   "call",
	Short: "Draw interactively, one number per Enter",
	Long: `Start an interactive roll call. Press Enter to draw, "r" to start over,
"s" for status and "q" to quit. Numbers flicker on screen before each draw
when the transition animation is enabled.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := loadSettings(cmd.Context(), true)
		if err != nil {
			return err
		}
		if err := s.Validate(); err != nil {
			return err
		}
		e := sampler.NewLocked(sampler.New(
			sampler.WithRand(state.MakeRNG(0)),
			sampler.WithRange(s.Range()),
			sampler.WithAllowDuplicates(s.AllowDuplicates),
		))
		c := &caller{
			engine:    e,
			settings:  s,
			frames:    callFrames,
			out:       cmd.OutOrStdout(),
			announcer: announce.NewWriterAnnouncer(cmd.OutOrStdout()),
		}
		return c.loop(cmd.Context(), cmd.InOrStdin())
	},
}

func init() {
	CallCmd.Flags().StringVar(&storePath, "store", "", "preferences file; defaults to the user config dir")
	CallCmd.Flags().IntVar(&callFrames, "frames", 30, "preview frames shown before each draw")
}

type caller struct {
	engine    *sampler.Locked
	settings  settings.Settings
	frames    int
	out       io.Writer
	announcer announce.Announcer
}

// lockedWriter serializes writes from the animation and the input loop.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// readLines feeds input lines to the caller until EOF or ctx is done.
// The scanner error, if any, is sent on errc before lines is closed.
func readLines(ctx context.Context, in io.Reader, lines chan<- string, errc chan<- error) {
	defer close(lines)
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		select {
		case lines <- strings.TrimSpace(strings.ToLower(scanner.Text())):
		case <-ctx.Done():
			return
		}
	}
	errc <- scanner.Err()
}

func (c *caller) loop(ctx context.Context, in io.Reader) error {
	c.out = &lockedWriter{w: c.out}
	fmt.Fprintf(c.out, "Drawing from %s. Enter to draw, r to reset, s for status, q to quit.\n", c.settings.Range())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	lines := make(chan string)
	errc := make(chan error, 1)
	go readLines(ctx, in, lines, errc)

	for {
		var line string
		var ok bool
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok = <-lines:
		}
		if !ok {
			select {
			case err := <-errc:
				return err
			default:
				return ctx.Err()
			}
		}

		switch line {
		case "":
			if err := c.draw(ctx, lines); err != nil {
				return err
			}
		case "r":
			c.engine.Reset()
			fmt.Fprintln(c.out, "Progress cleared")
		case "s":
			printStatus(c.out, c.engine.Snapshot())
		case "q":
			return nil
		default:
			fmt.Fprintln(c.out, "Enter to draw, r to reset, s for status, q to quit")
		}
	}
}

func (c *caller) draw(ctx context.Context, lines <-chan string) error {
	if !c.engine.Snapshot().CanContinue {
		fmt.Fprintln(c.out, "All numbers have been drawn, press r to start over")
		return nil
	}
	if c.settings.TransitionAnimation && c.frames > 0 {
		if err := c.animate(ctx, lines); err != nil {
			return err
		}
	}

	v, err := c.engine.Commit()
	if errors.Is(err, rollerr.ErrExhausted) {
		fmt.Fprintln(c.out, "All numbers have been drawn, press r to start over")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "\r%d\n", v)
	if c.settings.Announce {
		return c.announcer.Announce(announce.Render(c.settings.AnnounceTemplate, v, time.Now()))
	}
	return nil
}

// animate flickers preview values on a ticker goroutine for the
// configured number of frames. Enter stops it early and s prints the
// status while it runs; other input is ignored until it ends.
func (c *caller) animate(ctx context.Context, lines <-chan string) error {
	c.engine.BeginPreview()

	actx, stop := context.WithCancel(ctx)
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(done)
		ticker := time.NewTicker(c.settings.Delay())
		defer ticker.Stop()
		for range c.frames {
			select {
			case <-actx.Done():
				return
			case <-ticker.C:
				fmt.Fprintf(c.out, "\r%d   ", c.engine.PreviewValue())
			}
		}
	}()
	defer func() {
		stop()
		wg.Wait()
	}()

	for {
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			switch {
			case !ok, line == "":
				return nil
			case line == "s":
				fmt.Fprintln(c.out)
				printStatus(c.out, c.engine.Snapshot())
			}
		}
	}
}
