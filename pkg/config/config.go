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

package config

import (
	"log/slog"
	"maps"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cardinalhq/rollcall/pkg/scriptaction"
)

// Config describes a scripted draw session.
type Config struct {
	Seed            uint64                      `mapstructure:"seed" yaml:"seed" json:"seed"`
	Source          string                      `mapstructure:"source" yaml:"source" json:"source"`
	WallclockStart  time.Time                   `mapstructure:"wallclockStart" yaml:"wallclockStart" json:"wallclockStart"`
	Duration        time.Duration               `mapstructure:"duration" yaml:"duration" json:"duration"`
	From            time.Duration               `mapstructure:"from" yaml:"from" json:"from"`
	Settings        map[string]any              `mapstructure:"settings" yaml:"settings" json:"settings"`
	Script          []scriptaction.ScriptAction `mapstructure:"script" yaml:"script" json:"script"`
	Dryrun          bool                        `mapstructure:"dryrun" yaml:"dryrun" json:"dryrun"`
	OTLPDestination OTLPDestination             `mapstructure:"otlpDestination" yaml:"otlpDestination" json:"otlpDestination"`
}

type OTLPDestination struct {
	Endpoint string            `mapstructure:"endpoint" yaml:"endpoint" json:"endpoint"`
	Headers  map[string]string `mapstructure:"headers" yaml:"headers" json:"headers"`
	Timeout  time.Duration     `mapstructure:"timeout" yaml:"timeout" json:"timeout"`
}

const DefaultOTLPTimeout = 5 * time.Second

// LoadConfigs loads the files in order. Later files override scalar
// fields, merge settings and headers, and append script actions.
func LoadConfigs(fnames []string) (*Config, error) {
	merged := &Config{
		OTLPDestination: OTLPDestination{
			Timeout: DefaultOTLPTimeout,
		},
	}
	for _, fname := range fnames {
		slog.Info("Loading config", "file", fname)
		config, err := loadConfig(fname)
		if err != nil {
			return nil, err
		}
		Merge(merged, config)
	}
	return merged, nil
}

func Merge(merged, config *Config) {
	if !config.WallclockStart.IsZero() {
		merged.WallclockStart = config.WallclockStart
	}
	if config.Dryrun {
		merged.Dryrun = true
	}
	if config.Seed != 0 {
		merged.Seed = config.Seed
	}
	if config.Source != "" {
		merged.Source = config.Source
	}
	if config.Duration != 0 {
		merged.Duration = config.Duration
	}
	if config.From != 0 {
		merged.From = config.From
	}
	if config.Settings != nil {
		if merged.Settings == nil {
			merged.Settings = make(map[string]any)
		}
		maps.Copy(merged.Settings, config.Settings)
	}
	if config.OTLPDestination.Timeout != 0 {
		merged.OTLPDestination.Timeout = config.OTLPDestination.Timeout
	}
	if config.OTLPDestination.Endpoint != "" {
		merged.OTLPDestination.Endpoint = config.OTLPDestination.Endpoint
	}
	if config.OTLPDestination.Headers != nil {
		if merged.OTLPDestination.Headers == nil {
			merged.OTLPDestination.Headers = make(map[string]string)
		}
		maps.Copy(merged.OTLPDestination.Headers, config.OTLPDestination.Headers)
	}
	merged.Script = append(merged.Script, config.Script...)
}

func loadConfig(fname string) (*Config, error) {
	var config Config
	if err := LoadYAML(fname, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

func LoadYAML(fname string, config *Config) error {
	b, err := os.ReadFile(fname)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(b, config)
}

func MarshalYAML(config *Config) ([]byte, error) {
	b, err := yaml.Marshal(config)
	if err != nil {
		return nil, err
	}
	return b, nil
}
