// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package tmdb

import (
	"sort"

	"github.com/tomtom215/cinematch/internal/recommend"
)

// GenreAnimation is the TMDB genre ID shared by movie and TV animation.
const GenreAnimation = 16

// listResult is one entry of a TMDB list response (trending, popular).
type listResult struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	Name             string  `json:"name"`
	MediaType        string  `json:"media_type"`
	OriginalLanguage string  `json:"original_language"`
	GenreIDs         []int   `json:"genre_ids"`
	Popularity       float64 `json:"popularity"`
}

type listResponse struct {
	Page    int          `json:"page"`
	Results []listResult `json:"results"`
}

// classify maps a TMDB result onto a media type. Animation in Japanese is
// anime, other animation is cartoon. People and unknown kinds return false.
func classify(r *listResult, fallback string) (recommend.MediaType, bool) {
	kind := r.MediaType
	if kind == "" {
		kind = fallback
	}
	if kind != "movie" && kind != "tv" {
		return "", false
	}

	for _, g := range r.GenreIDs {
		if g != GenreAnimation {
			continue
		}
		if r.OriginalLanguage == "ja" {
			return recommend.MediaAnime, true
		}
		return recommend.MediaCartoon, true
	}

	if kind == "tv" {
		return recommend.MediaTV, true
	}
	return recommend.MediaMovie, true
}

// toContentItems converts list results, dropping unclassifiable entries and
// duplicate keys.
func toContentItems(results []listResult, fallbackKind string) []recommend.ContentItem {
	items := make([]recommend.ContentItem, 0, len(results))
	seen := make(map[recommend.ContentKey]bool, len(results))
	for i := range results {
		r := &results[i]
		mt, ok := classify(r, fallbackKind)
		if !ok {
			continue
		}
		key := recommend.ContentKey{ExternalID: r.ID, MediaType: mt}
		if seen[key] {
			continue
		}
		seen[key] = true

		title := r.Title
		if title == "" {
			title = r.Name
		}
		items = append(items, recommend.ContentItem{Key: key, Title: title, Popularity: r.Popularity})
	}
	return items
}

// mergeByPopularity concatenates lists and orders them by popularity
// descending. Ties keep list order.
func mergeByPopularity(lists ...[]recommend.ContentItem) []recommend.ContentItem {
	var merged []recommend.ContentItem
	seen := make(map[recommend.ContentKey]bool)
	for _, list := range lists {
		for _, item := range list {
			if seen[item.Key] {
				continue
			}
			seen[item.Key] = true
			merged = append(merged, item)
		}
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Popularity > merged[j].Popularity
	})
	return merged
}
