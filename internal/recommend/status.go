// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package recommend

// WatchStatus references an entry of the watch status catalog.
type WatchStatus int

const (
	StatusWant      WatchStatus = 1
	StatusWatched   WatchStatus = 2
	StatusRewatched WatchStatus = 3
	StatusDropped   WatchStatus = 4
)

var statusNames = map[WatchStatus]string{
	StatusWant:      "want",
	StatusWatched:   "watched",
	StatusRewatched: "rewatched",
	StatusDropped:   "dropped",
}

// String returns the catalog name of the status.
func (s WatchStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether the status exists in the catalog.
func (s WatchStatus) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

// ParseWatchStatus looks a status up by catalog name.
func ParseWatchStatus(name string) (WatchStatus, bool) {
	for s, n := range statusNames {
		if n == name {
			return s, true
		}
	}
	return 0, false
}

// StatusCatalog returns the full catalog as ID to name pairs.
func StatusCatalog() map[WatchStatus]string {
	out := make(map[WatchStatus]string, len(statusNames))
	for k, v := range statusNames {
		out[k] = v
	}
	return out
}

// StatusSet is a membership filter over watch statuses.
type StatusSet []WatchStatus

var (
	// WatchedLike counts as having watched the item.
	WatchedLike = StatusSet{StatusWatched, StatusRewatched}
	// WantOnly selects want-list entries.
	WantOnly = StatusSet{StatusWant}
	// DroppedOnly selects dropped entries.
	DroppedOnly = StatusSet{StatusDropped}
	// AllStatuses selects every entry.
	AllStatuses = StatusSet{StatusWant, StatusWatched, StatusRewatched, StatusDropped}
)

// Contains reports whether s is a member of the set.
func (ss StatusSet) Contains(s WatchStatus) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

// IDs returns the catalog IDs of the set for query binding.
func (ss StatusSet) IDs() []int {
	ids := make([]int, len(ss))
	for i, s := range ss {
		ids[i] = int(s)
	}
	return ids
}
