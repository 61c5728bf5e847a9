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

package update

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/cardinalhq/rollcall/pkg/rollerr"
)

// DefaultPackageSuffix selects the installable asset of a release.
const DefaultPackageSuffix = ".apk"

type Release struct {
	Version     string `json:"version"`
	DownloadURL string `json:"downloadUrl"`
	Notes       string `json:"notes"`
	Size        int64  `json:"size"`
	AssetName   string `json:"assetName"`
}

// ParseRelease reads a GitHub release descriptor. The first asset whose
// name contains suffix is the package. Unknown fields are ignored.
func ParseRelease(b []byte, suffix string) (*Release, error) {
	if !gjson.ValidBytes(b) {
		return nil, errors.New("release descriptor is not valid JSON")
	}
	doc := gjson.ParseBytes(b)

	rel := &Release{
		Version: doc.Get("tag_name").String(),
		Notes:   doc.Get("body").String(),
	}
	doc.Get("assets").ForEach(func(_, asset gjson.Result) bool {
		name := asset.Get("name").String()
		if !strings.Contains(name, suffix) {
			return true
		}
		rel.AssetName = name
		rel.DownloadURL = asset.Get("browser_download_url").String()
		rel.Size = asset.Get("size").Int()
		return false
	})

	if rel.Version == "" || rel.DownloadURL == "" {
		return nil, rollerr.ErrNoRelease
	}
	return rel, nil
}
