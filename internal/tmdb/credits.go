// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package tmdb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cinematch/internal/recommend"
)

// castLimit is how many top-billed cast members a title contributes.
const castLimit = 5

// jobDirector is the crew job kept as a director credit.
const jobDirector = "Director"

type creditsResponse struct {
	Cast []struct {
		Name  string `json:"name"`
		Order int    `json:"order"`
	} `json:"cast"`
	Crew []struct {
		Name string `json:"name"`
		Job  string `json:"job"`
	} `json:"crew"`
}

// creditPaths lists the credit endpoints for key, most likely first. Anime
// and cartoons can be either kind on TMDB; series are tried first.
func creditPaths(key recommend.ContentKey) []string {
	id := strconv.FormatInt(key.ExternalID, 10)
	movie := "/movie/" + id + "/credits"
	tv := "/tv/" + id + "/credits"

	switch key.MediaType {
	case recommend.MediaMovie:
		return []string{movie}
	case recommend.MediaTV:
		return []string{tv}
	default:
		return []string{tv, movie}
	}
}

// Credits returns the top-billed cast and the directors of a title. A title
// TMDB does not know fails with an error matching recommend.ErrNotFound.
func (c *Client) Credits(ctx context.Context, key recommend.ContentKey) (recommend.Credits, error) {
	if !c.Configured() {
		return recommend.Credits{}, ErrNotConfigured
	}

	var (
		body []byte
		err  error
		path string
	)
	for _, path = range creditPaths(key) {
		body, err = c.get(ctx, path, nil)
		if !isNotFound(err) {
			break
		}
	}
	if err != nil {
		return recommend.Credits{}, err
	}

	var resp creditsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return recommend.Credits{}, fmt.Errorf("decode tmdb %s: %w", path, err)
	}
	return toCredits(&resp), nil
}

// toCredits keeps the castLimit best-billed actors and every distinct
// director.
func toCredits(resp *creditsResponse) recommend.Credits {
	cast := resp.Cast
	sort.SliceStable(cast, func(i, j int) bool { return cast[i].Order < cast[j].Order })

	credits := recommend.Credits{Actors: []string{}, Directors: []string{}}
	seen := make(map[string]bool)
	for _, m := range cast {
		if len(credits.Actors) == castLimit {
			break
		}
		if m.Name == "" || seen[m.Name] {
			continue
		}
		seen[m.Name] = true
		credits.Actors = append(credits.Actors, m.Name)
	}

	seen = make(map[string]bool)
	for _, m := range resp.Crew {
		if m.Job != jobDirector || m.Name == "" || seen[m.Name] {
			continue
		}
		seen[m.Name] = true
		credits.Directors = append(credits.Directors, m.Name)
	}
	return credits
}

func isNotFound(err error) bool {
	return errors.Is(err, recommend.ErrNotFound)
}
