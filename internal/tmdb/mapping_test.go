// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package tmdb

import (
	"testing"

	"github.com/tomtom215/cinematch/internal/recommend"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		result   listResult
		fallback string
		want     recommend.MediaType
		ok       bool
	}{
		{"movie", listResult{MediaType: "movie", GenreIDs: []int{28}}, "", recommend.MediaMovie, true},
		{"tv", listResult{MediaType: "tv"}, "", recommend.MediaTV, true},
		{"fallback kind", listResult{}, "tv", recommend.MediaTV, true},
		{"japanese animation", listResult{MediaType: "tv", GenreIDs: []int{16}, OriginalLanguage: "ja"}, "", recommend.MediaAnime, true},
		{"western animation", listResult{MediaType: "movie", GenreIDs: []int{12, 16}, OriginalLanguage: "en"}, "", recommend.MediaCartoon, true},
		{"person", listResult{MediaType: "person"}, "", "", false},
		{"no kind", listResult{}, "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := classify(&tt.result, tt.fallback)
			if got != tt.want || ok != tt.ok {
				t.Errorf("classify = %q, %v, want %q, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestToContentItems_DedupesAndFallsBackToName(t *testing.T) {
	t.Parallel()

	items := toContentItems([]listResult{
		{ID: 1, Name: "Show", Popularity: 3},
		{ID: 1, Name: "Show again", Popularity: 9},
	}, "tv")

	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	if items[0].Title != "Show" || items[0].Popularity != 3 {
		t.Errorf("item = %+v", items[0])
	}
}

func TestMergeByPopularity_StableOnTies(t *testing.T) {
	t.Parallel()

	a := recommend.ContentItem{Key: recommend.ContentKey{ExternalID: 1, MediaType: recommend.MediaMovie}, Popularity: 10}
	b := recommend.ContentItem{Key: recommend.ContentKey{ExternalID: 2, MediaType: recommend.MediaTV}, Popularity: 10}
	c := recommend.ContentItem{Key: recommend.ContentKey{ExternalID: 3, MediaType: recommend.MediaTV}, Popularity: 20}

	got := mergeByPopularity([]recommend.ContentItem{a, b}, []recommend.ContentItem{c, a})
	want := []recommend.ContentItem{c, a, b}
	if len(got) != len(want) {
		t.Fatalf("got %d items, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("item %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}
