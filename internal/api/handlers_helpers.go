// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/cinematch/internal/logging"
	"github.com/tomtom215/cinematch/internal/models"
	"github.com/tomtom215/cinematch/internal/recommend"
	"github.com/tomtom215/cinematch/internal/validation"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 64 << 10

// dateLayout is the short form accepted by from/to query parameters.
const dateLayout = "2006-01-02"

// sanitizeLogValue escapes control characters so user input cannot forge log lines.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&result, "\\x%02x", r)
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// respondJSON writes response with an ETag over the encoded body.
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Vary", "Accept-Encoding")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("ETag", generateETag(data))
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// generateETag hashes data with FNV-1a.
func generateETag(data []byte) string {
	hash := uint32(2166136261)
	for _, b := range data {
		hash ^= uint32(b)
		hash *= 16777619
	}
	return `"` + strconv.FormatUint(uint64(hash), 16) + `"`
}

// respondSuccess wraps data in a success envelope.
func respondSuccess(w http.ResponseWriter, r *http.Request, status int, data interface{}, start time.Time, cached bool) {
	respondJSON(w, status, &models.APIResponse{
		Status: "success",
		Data:   data,
		Metadata: models.Metadata{
			Timestamp:   time.Now().UTC(),
			RequestID:   logging.RequestIDFromContext(r.Context()),
			QueryTimeMS: time.Since(start).Milliseconds(),
			Cached:      cached,
		},
	})
}

// respondError writes an error envelope and logs err when it is non-nil.
func respondError(w http.ResponseWriter, status int, code, message string, err error) {
	if err != nil {
		logging.Error().
			Str("code", sanitizeLogValue(code)).
			Str("error", sanitizeLogValue(logging.SanitizeError(err))).
			Msg("API error")
	}

	respondJSON(w, status, &models.APIResponse{
		Status: "error",
		Metadata: models.Metadata{
			Timestamp: time.Now().UTC(),
		},
		Error: &models.APIError{
			Code:    code,
			Message: message,
		},
	})
}

// respondValidation writes a VALIDATION_ERROR envelope with field details.
func respondValidation(w http.ResponseWriter, apiErr *models.APIError) {
	respondJSON(w, http.StatusBadRequest, &models.APIResponse{
		Status:   "error",
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
		Error:    apiErr,
	})
}

// validateRequest runs struct validation and converts failures to an APIError.
func validateRequest(v interface{}) *models.APIError {
	validationErr := validation.ValidateStruct(v)
	if validationErr == nil {
		return nil
	}
	apiErr := validationErr.ToAPIError()
	return &models.APIError{
		Code:    apiErr.Code,
		Message: apiErr.Message,
		Details: apiErr.Details,
	}
}

// decodeJSON decodes a bounded request body into dst. Unknown fields are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return err
	}
	return nil
}

// getIntParam extracts an integer query parameter with a default value.
func getIntParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

// parseCommaSeparated splits a comma-separated value, dropping empty parts.
func parseCommaSeparated(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseMediaTypes parses the media_type filter. An empty value allows all types.
func parseMediaTypes(value string) ([]recommend.MediaType, error) {
	parts := parseCommaSeparated(value)
	if len(parts) == 0 {
		return nil, nil
	}
	out := make([]recommend.MediaType, 0, len(parts))
	for _, p := range parts {
		mt := recommend.MediaType(strings.ToLower(p))
		if !mt.Valid() {
			return nil, fmt.Errorf("unknown media type %q", p)
		}
		out = append(out, mt)
	}
	return out, nil
}

// parseStatuses parses a comma-separated list of watch status names.
func parseStatuses(value string) (recommend.StatusSet, error) {
	parts := parseCommaSeparated(value)
	if len(parts) == 0 {
		return recommend.AllStatuses, nil
	}
	out := make(recommend.StatusSet, 0, len(parts))
	for _, p := range parts {
		s, ok := recommend.ParseWatchStatus(strings.ToLower(p))
		if !ok {
			return nil, fmt.Errorf("unknown watch status %q", p)
		}
		out = append(out, s)
	}
	return out, nil
}

// parseTimeParam accepts RFC 3339 timestamps or YYYY-MM-DD dates. dateOnly
// reports the second form.
func parseTimeParam(value string) (t time.Time, dateOnly bool, err error) {
	if ts, perr := time.Parse(time.RFC3339, value); perr == nil {
		return ts.UTC(), false, nil
	}
	t, err = time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid time %q: want RFC 3339 or YYYY-MM-DD", value)
	}
	return t, true, nil
}

// parseDateRange reads the optional from/to query parameters. It returns nil
// when neither is set. A missing bound is left open. A date-only to covers
// the whole day.
func parseDateRange(r *http.Request) (*recommend.DateRange, error) {
	q := r.URL.Query()
	fromStr, toStr := q.Get("from"), q.Get("to")
	if fromStr == "" && toStr == "" {
		return nil, nil
	}

	var dr recommend.DateRange
	if fromStr != "" {
		from, _, err := parseTimeParam(fromStr)
		if err != nil {
			return nil, err
		}
		dr.From = from
	}
	if toStr != "" {
		to, dateOnly, err := parseTimeParam(toStr)
		if err != nil {
			return nil, err
		}
		if dateOnly {
			to = to.Add(24*time.Hour - time.Nanosecond)
		}
		dr.To = to
	}
	if !dr.From.IsZero() && !dr.To.IsZero() && dr.From.After(dr.To) {
		return nil, errors.New("from must not be after to")
	}
	return &dr, nil
}

// userIDFromPath parses the {userID} route parameter.
func userIDFromPath(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "userID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid user id %q", raw)
	}
	return id, nil
}

// userScoped parses {userID}, rejects bad values with 400 and adds the ID to
// the logging context.
func userScoped(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromPath(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_USER_ID", "User ID must be a positive integer", nil)
			return
		}
		ctx := logging.ContextWithUserID(r.Context(), userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestUserID returns the ID stored by userScoped.
func requestUserID(r *http.Request) int64 {
	id, _ := logging.UserIDFromContext(r.Context())
	return id
}
