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
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/cardinalhq/rollcall/pkg/announce"
	"github.com/cardinalhq/rollcall/pkg/percent"
	"github.com/cardinalhq/rollcall/pkg/rollerr"
	"github.com/cardinalhq/rollcall/pkg/sampler"
	"github.com/cardinalhq/rollcall/pkg/settings"
	"github.com/cardinalhq/rollcall/pkg/state"
)

type drawOptions struct {
	start      int
	end        int
	count      int
	duplicates bool
	announce   bool
	previews   int
	seed       uint64
	source     string
}

var drawOpts drawOptions

var DrawCmd = &cobra.Command{
	Use:   "draw",
	Short: "Draw one or more numbers and exit",
	Long: `Draw numbers from the saved range. Flags override the saved preferences
for this run only.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := loadSettings(cmd.Context(), true)
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if flags.Changed("start") {
			s.Start = strconv.Itoa(drawOpts.start)
		}
		if flags.Changed("end") {
			s.End = strconv.Itoa(drawOpts.end)
		}
		if flags.Changed("duplicates") {
			s.AllowDuplicates = drawOpts.duplicates
		}
		if flags.Changed("announce") {
			s.Announce = drawOpts.announce
		}
		if err := s.Validate(); err != nil {
			return err
		}

		rnd, err := state.NewRNG(drawOpts.source, drawOpts.seed)
		if err != nil {
			return err
		}
		e := sampler.New(
			sampler.WithRand(rnd),
			sampler.WithRange(s.Range()),
			sampler.WithAllowDuplicates(s.AllowDuplicates),
		)
		return runDraws(cmd.OutOrStdout(), e, s, drawOpts.count, drawOpts.previews, time.Now())
	},
}

func init() {
	DrawCmd.Flags().StringVar(&storePath, "store", "", "preferences file; defaults to the user config dir")
	DrawCmd.Flags().IntVar(&drawOpts.start, "start", settings.DefaultStart, "first number in the range")
	DrawCmd.Flags().IntVar(&drawOpts.end, "end", settings.DefaultEnd, "last number in the range")
	DrawCmd.Flags().IntVarP(&drawOpts.count, "count", "n", 1, "how many numbers to draw")
	DrawCmd.Flags().BoolVar(&drawOpts.duplicates, "duplicates", false, "allow a number to be drawn more than once")
	DrawCmd.Flags().BoolVar(&drawOpts.announce, "announce", false, "print the announcement for each draw")
	DrawCmd.Flags().IntVar(&drawOpts.previews, "previews", 0, "preview values to show before each draw")
	DrawCmd.Flags().Uint64Var(&drawOpts.seed, "seed", 0, "random seed; 0 uses the clock")
	DrawCmd.Flags().StringVar(&drawOpts.source, "source", state.SourcePCG, "random source: pcg, chacha8 or antithesis")
}

func runDraws(out io.Writer, e *sampler.Engine, s settings.Settings, count, previews int, now time.Time) error {
	announcer := announce.NewWriterAnnouncer(out)
	for range count {
		e.BeginPreview()
		for range previews {
			fmt.Fprintf(out, "… %d\n", e.PreviewValue())
		}

		v, err := e.Commit()
		if errors.Is(err, rollerr.ErrExhausted) {
			fmt.Fprintf(out, "All numbers in %s have been drawn\n", e.Range())
			break
		}
		if err != nil {
			return err
		}

		fmt.Fprintln(out, v)
		if s.Announce {
			if err := announcer.Announce(announce.Render(s.AnnounceTemplate, v, now)); err != nil {
				return err
			}
		}
	}
	printStatus(out, e.Snapshot())
	return nil
}

func printStatus(out io.Writer, snap sampler.Snapshot) {
	if snap.AllowDuplicates {
		fmt.Fprintf(out, "range %s, repeats allowed, chance per draw %s\n",
			snap.Range, percent.Format(snap.Probability, percent.DefaultPlaces))
		return
	}
	fmt.Fprintf(out, "range %s, drawn %d, remaining %d, progress %s, chance per draw %s\n",
		snap.Range, snap.Drawn, snap.Remaining,
		percent.Format(snap.Progress, 2),
		percent.Format(snap.Probability, percent.DefaultPlaces))
}
