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
	"bytes"
	"fmt"
	"io"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/cardinalhq/rollcall/pkg/update"
)

type updateOptions struct {
	current  string
	endpoint string
	suffix   string
	download string
}

var updateOpts updateOptions

var UpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Check for a newer release",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		checker := update.NewChecker(nil, updateOpts.endpoint, updateOpts.current).WithSuffix(updateOpts.suffix)
		res, err := checker.Check(ctx)
		if err != nil {
			return err
		}
		if !res.Available {
			fmt.Fprintf(out, "Already up to date (%s)\n", res.Current)
			return nil
		}

		rel := res.Release
		fmt.Fprintf(out, "New version %s available (current %s)\n", rel.Version, res.Current)
		if rel.Size > 0 {
			fmt.Fprintf(out, "Package %s, %s\n", rel.AssetName, humanize.Bytes(uint64(rel.Size)))
		}
		if rel.Notes != "" {
			fmt.Fprintf(out, "\n%s\n\n", rel.Notes)
		}
		if updateOpts.download == "" {
			return nil
		}

		var buf bytes.Buffer
		n, err := checker.Download(ctx, rel.DownloadURL, &buf, downloadProgress(out))
		fmt.Fprintln(out)
		if err != nil {
			return err
		}
		slog.Info("Downloaded package", "bytes", n, "asset", rel.AssetName)

		installer := &update.FileInstaller{Dir: updateOpts.download}
		path, err := installer.Install(ctx, rel, &buf)
		if err != nil {
			return fmt.Errorf("failed to hand off package: %w", err)
		}
		fmt.Fprintf(out, "Saved %s to %s\n", humanize.Bytes(uint64(n)), path)
		return nil
	},
}

func init() {
	UpdateCmd.Flags().StringVar(&updateOpts.current, "current", version, "version to compare against")
	UpdateCmd.Flags().StringVar(&updateOpts.endpoint, "endpoint", update.DefaultEndpoint, "latest-release endpoint")
	UpdateCmd.Flags().StringVar(&updateOpts.suffix, "suffix", update.DefaultPackageSuffix, "asset name suffix of the package")
	UpdateCmd.Flags().StringVar(&updateOpts.download, "download", "", "download the package into this directory")
}

func downloadProgress(out io.Writer) update.Progress {
	return func(done, total int64) {
		if total <= 0 {
			fmt.Fprintf(out, "\rDownloading %s", humanize.Bytes(uint64(done)))
			return
		}
		fmt.Fprintf(out, "\rDownloading %s / %s (%d%%)",
			humanize.Bytes(uint64(done)), humanize.Bytes(uint64(total)), done*100/total)
	}
}
