// Package cli provides shared helpers for playgate commands.
package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/waizdev/playgate/pkg/store"
)

// FilterVideos narrows a video listing by name. A pattern with glob
// characters (*?[) is matched against video names with filepath.Match;
// anything else matches as a case-insensitive substring, so "trip" finds
// "Trip to Osaka.mp4". An empty pattern returns the input unchanged.
func FilterVideos(pattern string, videos []*store.Video) ([]*store.Video, error) {
	if pattern == "" {
		return videos, nil
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	hasGlob := strings.ContainsAny(pattern, "*?[")
	needle := strings.ToLower(pattern)

	var matches []*store.Video
	for _, v := range videos {
		if hasGlob {
			ok, err := filepath.Match(pattern, v.Name)
			if err != nil {
				return nil, err
			}
			if ok {
				matches = append(matches, v)
			}
			continue
		}
		if strings.Contains(strings.ToLower(v.Name), needle) {
			matches = append(matches, v)
		}
	}
	return matches, nil
}
