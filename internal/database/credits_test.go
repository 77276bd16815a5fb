// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package database

import (
	"context"
	"math"
	"testing"

	"github.com/tomtom215/cinematch/internal/recommend"
)

func movieKey(id int64) recommend.ContentKey {
	return recommend.ContentKey{ExternalID: id, MediaType: recommend.MediaMovie}
}

func setCredits(t *testing.T, db *DB, key recommend.ContentKey, actors, directors []string) {
	t.Helper()
	if err := db.SetContentCredits(context.Background(), key, recommend.Credits{Actors: actors, Directors: directors}); err != nil {
		t.Fatalf("SetContentCredits: %v", err)
	}
}

func TestMissingCredits(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	addItem(t, db, 1, 10, recommend.MediaMovie, recommend.StatusWatched, nil, 1, 0)
	addItem(t, db, 2, 10, recommend.MediaMovie, recommend.StatusRewatched, nil, 1, 0)
	addItem(t, db, 1, 11, recommend.MediaMovie, recommend.StatusWatched, nil, 1, 0)
	addItem(t, db, 1, 12, recommend.MediaMovie, recommend.StatusWant, nil, 1, 0)
	addItem(t, db, 1, 13, recommend.MediaMovie, recommend.StatusWatched, nil, 1, 0)
	addItem(t, db, 1, 14, recommend.MediaMovie, recommend.StatusWatched, nil, 1, 0)
	if err := db.DeleteWatchListItem(ctx, 1, movieKey(14)); err != nil {
		t.Fatalf("DeleteWatchListItem: %v", err)
	}
	// fetched with no credits still counts as fetched
	setCredits(t, db, movieKey(13), nil, nil)

	keys, err := db.MissingCredits(ctx, 0)
	if err != nil {
		t.Fatalf("MissingCredits: %v", err)
	}
	want := []recommend.ContentKey{movieKey(10), movieKey(11)}
	if len(keys) != len(want) {
		t.Fatalf("MissingCredits = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("key %d = %v, want %v", i, keys[i], want[i])
		}
	}

	limited, _ := db.MissingCredits(ctx, 1)
	if len(limited) != 1 || limited[0] != movieKey(10) {
		t.Errorf("limited = %v, want the most listed title", limited)
	}
}

func TestBuildPersonProfile(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	addItem(t, db, 1, 1, recommend.MediaMovie, recommend.StatusWatched, intPtr(10), 1, 0)
	addItem(t, db, 1, 2, recommend.MediaMovie, recommend.StatusWatched, intPtr(6), 1, 0)
	addItem(t, db, 1, 3, recommend.MediaMovie, recommend.StatusWatched, nil, 1, 0)
	addItem(t, db, 1, 4, recommend.MediaMovie, recommend.StatusDropped, intPtr(1), 1, 0)

	setCredits(t, db, movieKey(1), []string{"Keanu Reeves", "Carrie-Anne Moss"}, []string{"Lana Wachowski"})
	setCredits(t, db, movieKey(2), []string{"Keanu Reeves"}, []string{"Chad Stahelski"})
	setCredits(t, db, movieKey(3), []string{"Carrie-Anne Moss"}, nil)
	setCredits(t, db, movieKey(4), []string{"Dropped Actor"}, nil)

	profile, err := db.BuildPersonProfile(ctx, 1)
	if err != nil {
		t.Fatalf("BuildPersonProfile: %v", err)
	}
	if profile == nil {
		t.Fatal("BuildPersonProfile = nil")
	}

	near := func(a, b float64) bool { return math.Abs(a-b) < 1e-9 }
	// Keanu 1.0+0.6, Carrie-Anne 1.0+0.5
	if got := profile.Actors["Keanu Reeves"]; !near(got, 100) {
		t.Errorf("Keanu Reeves = %v, want 100", got)
	}
	if got := profile.Actors["Carrie-Anne Moss"]; !near(got, 1.5/1.6*100) {
		t.Errorf("Carrie-Anne Moss = %v, want %v", got, 1.5/1.6*100)
	}
	if _, ok := profile.Actors["Dropped Actor"]; ok {
		t.Error("dropped title contributed to the profile")
	}
	// directors scale on their own
	if got := profile.Directors["Lana Wachowski"]; !near(got, 100) {
		t.Errorf("Lana Wachowski = %v, want 100", got)
	}
	if got := profile.Directors["Chad Stahelski"]; !near(got, 60) {
		t.Errorf("Chad Stahelski = %v, want 60", got)
	}

	none, err := db.BuildPersonProfile(ctx, 99)
	if err != nil || none != nil {
		t.Errorf("unknown user = %+v, %v; want nil", none, err)
	}
}

func TestSetContentCredits_Replaces(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	addItem(t, db, 1, 1, recommend.MediaMovie, recommend.StatusWatched, nil, 1, 0)
	setCredits(t, db, movieKey(1), []string{"Old Actor"}, nil)
	setCredits(t, db, movieKey(1), []string{"New Actor", "New Actor"}, []string{"New Director"})

	profile, err := db.BuildPersonProfile(ctx, 1)
	if err != nil {
		t.Fatalf("BuildPersonProfile: %v", err)
	}
	if _, ok := profile.Actors["Old Actor"]; ok {
		t.Error("replaced credit still present")
	}
	if len(profile.Actors) != 1 || len(profile.Directors) != 1 {
		t.Errorf("profile = %+v, want one actor and one director", profile)
	}
}

func TestRebuildPersonProfiles(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	addItem(t, db, 1, 1, recommend.MediaMovie, recommend.StatusWatched, intPtr(8), 1, 0)
	addItem(t, db, 2, 2, recommend.MediaMovie, recommend.StatusWatched, nil, 1, 0)
	setCredits(t, db, movieKey(1), []string{"Keanu Reeves"}, []string{"Lana Wachowski"})

	n, err := db.RebuildPersonProfiles(ctx)
	if err != nil {
		t.Fatalf("RebuildPersonProfiles: %v", err)
	}
	if n != 2 {
		t.Errorf("processed %d users, want 2", n)
	}

	p1, err := db.PersonProfile(ctx, 1)
	if err != nil {
		t.Fatalf("PersonProfile: %v", err)
	}
	if p1 == nil || p1.Actors["Keanu Reeves"] != 100 || p1.Directors["Lana Wachowski"] != 100 {
		t.Errorf("user 1 profile = %+v", p1)
	}

	p2, err := db.PersonProfile(ctx, 2)
	if err != nil || p2 != nil {
		t.Errorf("user 2 profile = %+v, %v; want nil without credits", p2, err)
	}
}
