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
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/cardinalhq/rollcall/pkg/config"
	"github.com/cardinalhq/rollcall/pkg/emitter"
	"github.com/cardinalhq/rollcall/pkg/session"
	"github.com/cardinalhq/rollcall/pkg/timeline"
)

type sessionOptions struct {
	debug   bool
	ticker  bool
	record  string
	dryrun  bool
	dumpCfg bool
	plans   []string
}

var sessionOpts sessionOptions

var SessionCmd = &cobra.Command{
	Use:   "session CONFIG...",
	Short: "Play a scripted draw session",
	Long: `Play a scripted draw session from one or more YAML files, merged in
order. Draws and metrics go to the selected emitters and, when
otlpDestination.endpoint is set, to an OTLP/HTTP collector.

Actions due in the same second run in this order: configure, duplicates,
reset, settings, then draw.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) < 1 && len(sessionOpts.plans) == 0 {
			return errors.New("no config files provided")
		}

		// load the config files in order, merging as we go
		cfg, err := config.LoadConfigs(args)
		if err != nil {
			return fmt.Errorf("error loading config files: %w", err)
		}
		for _, fname := range sessionOpts.plans {
			if err := mergePlan(cfg, fname); err != nil {
				return err
			}
		}
		if sessionOpts.dryrun {
			cfg.Dryrun = true
		}
		if sessionOpts.dumpCfg {
			b, err := config.MarshalYAML(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		}

		script := session.NewScript()
		for _, action := range cfg.Script {
			script.AddAction(action)
		}

		out := cmd.OutOrStdout()
		if sessionOpts.debug {
			script.AddEmitter(emitter.NewDebugEmitter(out))
		}
		if sessionOpts.ticker {
			script.AddEmitter(emitter.NewTickerEmitter(out))
		}
		if sessionOpts.record != "" {
			f, err := os.Create(sessionOpts.record)
			if err != nil {
				return err
			}
			defer f.Close()
			script.AddEmitter(emitter.NewJSONEmitter(f))
		}
		if cfg.OTLPDestination.Endpoint != "" {
			client := &http.Client{Timeout: cfg.OTLPDestination.Timeout}
			e, err := emitter.NewOTLPEmitter(client, cfg.OTLPDestination.Endpoint, cfg.OTLPDestination.Headers)
			if err != nil {
				return err
			}
			script.AddEmitter(e)
		}

		return session.Run(cmd.Context(), cfg, script)
	},
}

func init() {
	SessionCmd.Flags().BoolVar(&sessionOpts.debug, "debug", false, "write every event as a JSON line to stdout")
	SessionCmd.Flags().BoolVar(&sessionOpts.ticker, "ticker", true, "show a progress line")
	SessionCmd.Flags().StringVar(&sessionOpts.record, "record", "", "record events to this file")
	SessionCmd.Flags().BoolVar(&sessionOpts.dryrun, "dryrun", false, "run without waiting between ticks")
	SessionCmd.Flags().StringSliceVar(&sessionOpts.plans, "plan", nil, "JSON lesson plan to add to the script; may be repeated")
	SessionCmd.Flags().BoolVar(&sessionOpts.dumpCfg, "dump-config", false, "print the merged config and exit")
}

func mergePlan(cfg *config.Config, fname string) error {
	slog.Info("Loading lesson plan", "file", fname)
	b, err := os.ReadFile(fname)
	if err != nil {
		return err
	}
	tl, err := timeline.ParseTimeline(b)
	if err != nil {
		return fmt.Errorf("error parsing lesson plan %s: %w", fname, err)
	}
	return tl.MergeIntoConfig(cfg)
}
