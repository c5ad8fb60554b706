// Package media resolves a hosted video's manifest to a playable file and
// drives a custom player around it.
package media

import (
	"cmp"
	"slices"
	"strings"
)

// Asset is one encoded rendition listed in a manifest.
type Asset struct {
	Container string `json:"container,omitempty"`
	Type      string `json:"type,omitempty"`
	URL       string `json:"url,omitempty"`
	Width     int    `json:"width,omitempty"`
}

// Manifest is the subset of the embed metadata document the player reads.
type Manifest struct {
	Media struct {
		Duration float64 `json:"duration,omitempty"`
		Assets   []Asset `json:"assets,omitempty"`
	} `json:"media"`
}

func (a Asset) isMP4() bool {
	if a.Container == "mp4" {
		return true
	}
	return strings.Contains(strings.ToLower(a.Type), "mp4") ||
		strings.Contains(strings.ToLower(a.URL), ".mp4")
}

// PickBestAsset prefers the widest MP4 rendition and otherwise falls back to
// the first asset that has a URL.
func PickBestAsset(assets []Asset) (Asset, bool) {
	var mp4 []Asset
	for _, a := range assets {
		if a.URL != "" && a.isMP4() {
			mp4 = append(mp4, a)
		}
	}
	if len(mp4) > 0 {
		// Stable so equal widths keep manifest order.
		slices.SortStableFunc(mp4, func(x, y Asset) int { return cmp.Compare(y.Width, x.Width) })
		return mp4[0], true
	}
	for _, a := range assets {
		if a.URL != "" {
			return a, true
		}
	}
	return Asset{}, false
}

func PickBestAssetURL(assets []Asset) (string, bool) {
	a, ok := PickBestAsset(assets)
	return a.URL, ok
}
