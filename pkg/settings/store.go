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

package settings

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Store persists Settings. Load returns Defaults for anything never saved.
type Store interface {
	Load(ctx context.Context) (Settings, error)
	Save(ctx context.Context, s Settings) error
	Close() error
}

// OpenStore picks a SQLite store for .db and .sqlite paths and a YAML
// file otherwise.
func OpenStore(ctx context.Context, path string) (Store, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return OpenSQLiteStore(ctx, path)
	default:
		return NewYAMLStore(path), nil
	}
}

type YAMLStore struct {
	path string
}

var _ Store = (*YAMLStore)(nil)

func NewYAMLStore(path string) *YAMLStore {
	return &YAMLStore{path: path}
}

func (y *YAMLStore) Load(_ context.Context) (Settings, error) {
	s := Defaults()
	b, err := os.ReadFile(y.path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, err
	}
	if err := yaml.Unmarshal(b, &s); err != nil {
		return s, fmt.Errorf("failed to parse settings %s: %w", y.path, err)
	}
	return s, nil
}

func (y *YAMLStore) Save(_ context.Context, s Settings) error {
	b, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if dir := filepath.Dir(y.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(y.path, b, 0o644)
}

func (y *YAMLStore) Close() error {
	return nil
}
