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

// Package update checks a releases endpoint for a newer build and fetches
// its package. It has no interaction with the sampling engine.
package update

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cardinalhq/rollcall/pkg/rollerr"
)

const (
	DefaultEndpoint = "https://api.github.com/repos/Timome-Sudo/Random-Number-Selection/releases/latest"
	DefaultTimeout  = 10 * time.Second

	acceptHeader = "application/vnd.github.v3+json"
	chunkSize    = 4096
)

type Checker struct {
	client         *http.Client
	endpoint       string
	currentVersion string
	suffix         string
}

type Result struct {
	Release   *Release `json:"release"`
	Current   string   `json:"current"`
	Available bool     `json:"available"`
}

func NewChecker(client *http.Client, endpoint, currentVersion string) *Checker {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Checker{
		client:         client,
		endpoint:       endpoint,
		currentVersion: currentVersion,
		suffix:         DefaultPackageSuffix,
	}
}

// WithSuffix changes which release asset counts as the package.
func (c *Checker) WithSuffix(suffix string) *Checker {
	c.suffix = suffix
	return c
}

// Check fetches the latest release and compares it with the running
// version.
func (c *Checker) Check(ctx context.Context) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Accept", acceptHeader)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch release: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read release: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &rollerr.HTTPError{URL: c.endpoint, Status: resp.Status, Body: string(body)}
	}

	rel, err := ParseRelease(body, c.suffix)
	if err != nil {
		return nil, err
	}
	slog.Debug("Fetched release", "version", rel.Version, "asset", rel.AssetName)

	return &Result{
		Release:   rel,
		Current:   c.currentVersion,
		Available: IsNewer(rel.Version, c.currentVersion),
	}, nil
}

// Progress is called after every chunk. total is -1 when the server did
// not send a length.
type Progress func(done, total int64)

// Download copies url into dst in fixed-size chunks, reporting progress.
// Cancelling ctx stops the copy.
func (c *Checker) Download(ctx context.Context, url string, dst io.Writer, progress Progress) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return 0, &rollerr.HTTPError{URL: url, Status: resp.Status, Body: string(body)}
	}

	total := resp.ContentLength
	buf := make([]byte, chunkSize)
	var done int64
	for {
		if err := ctx.Err(); err != nil {
			return done, fmt.Errorf("%w: %w", rollerr.ErrDownloadStopped, err)
		}
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			if _, err := dst.Write(buf[:n]); err != nil {
				return done, fmt.Errorf("failed to write package: %w", err)
			}
			done += int64(n)
			if progress != nil {
				progress(done, total)
			}
		}
		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			return done, fmt.Errorf("%w: %w", rollerr.ErrDownloadStopped, rerr)
		}
	}
	if total > 0 && done != total {
		return done, fmt.Errorf("%w: got %d of %d bytes", rollerr.ErrDownloadStopped, done, total)
	}
	return done, nil
}

// Installer hands a downloaded package to whatever installs it.
type Installer interface {
	Install(ctx context.Context, rel *Release, pkg io.Reader) (string, error)
}

// FileInstaller stores the package in a directory for the platform
// installer to pick up.
type FileInstaller struct {
	Dir  string
	Name string
}

var _ Installer = (*FileInstaller)(nil)

const DefaultPackageName = "update.apk"

func (f *FileInstaller) Install(_ context.Context, _ *Release, pkg io.Reader) (string, error) {
	name := f.Name
	if name == "" {
		name = DefaultPackageName
	}
	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(f.Dir, name)
	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, pkg); err != nil {
		_ = out.Close()
		return "", err
	}
	return path, out.Close()
}
