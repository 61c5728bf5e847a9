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
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cardinalhq/rollcall/pkg/settings"
)

var storePath string

var SettingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change saved preferences",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print every preference, with ROLLCALL_* overrides applied",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := loadSettings(cmd.Context(), true)
		if err != nil {
			return err
		}
		printSettings(cmd.OutOrStdout(), s)
		return nil
	},
}

var settingsGetCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Print one preference",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings(cmd.Context(), true)
		if err != nil {
			return err
		}
		v, err := s.Get(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), v)
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set KEY=VALUE...",
	Short: "Change preferences and save them",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		update, err := parseAssignments(args)
		if err != nil {
			return err
		}
		return editSettings(cmd.Context(), func(s *settings.Settings) error {
			if err := settings.Decode(s, update); err != nil {
				return err
			}
			return s.Validate()
		})
	},
}

var settingsResetTemplateCmd = &cobra.Command{
	Use:   "reset-template",
	Short: "Restore the default announcement template",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return editSettings(cmd.Context(), func(s *settings.Settings) error {
			s.ResetTemplate()
			return nil
		})
	},
}

func init() {
	SettingsCmd.PersistentFlags().StringVar(&storePath, "store", "", "preferences file (.yaml, or .db/.sqlite for SQLite); defaults to the user config dir")
	SettingsCmd.AddCommand(settingsShowCmd)
	SettingsCmd.AddCommand(settingsGetCmd)
	SettingsCmd.AddCommand(settingsSetCmd)
	SettingsCmd.AddCommand(settingsResetTemplateCmd)
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "rollcall", "settings.yaml")
}

func openStore(ctx context.Context) (settings.Store, error) {
	path := storePath
	if path == "" {
		path = defaultStorePath()
	}
	slog.Debug("Opening settings store", "path", path)
	return settings.OpenStore(ctx, path)
}

// loadSettings reads the saved preferences. withEnv overlays ROLLCALL_*
// variables, which are never written back.
func loadSettings(ctx context.Context, withEnv bool) (settings.Settings, error) {
	store, err := openStore(ctx)
	if err != nil {
		return settings.Settings{}, err
	}
	defer store.Close()

	s, err := store.Load(ctx)
	if err != nil {
		return settings.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	if withEnv {
		if err := settings.ApplyEnv(&s); err != nil {
			return settings.Settings{}, err
		}
	}
	return s, nil
}

func editSettings(ctx context.Context, edit func(*settings.Settings) error) error {
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	s, err := store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if err := edit(&s); err != nil {
		return err
	}
	if err := store.Save(ctx, s); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	slog.Info("Saved settings")
	return nil
}

func parseAssignments(args []string) (map[string]any, error) {
	update := make(map[string]any, len(args))
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok || k == "" {
			return nil, errors.New("expected KEY=VALUE, got " + arg)
		}
		update[k] = v
	}
	return update, nil
}

func printSettings(out io.Writer, s settings.Settings) {
	m := s.ToMap()
	for _, k := range settings.Keys() {
		fmt.Fprintf(out, "%s=%s\n", k, m[k])
	}
}
