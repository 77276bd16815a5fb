// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package recommend

import (
	"fmt"

	"github.com/goccy/go-json"
)

// RecordKind tags a context record.
type RecordKind string

const (
	RecordFilters     RecordKind = "filters"
	RecordPoolMetrics RecordKind = "pool_metrics"
	RecordTemporal    RecordKind = "temporal"
	RecordFeatures    RecordKind = "features"
)

// ContextRecord is one tagged entry of a log entry's context.
// Implementations: FiltersRecord, PoolMetricsRecord, TemporalRecord,
// FeaturesRecord and UnknownRecord.
type ContextRecord interface {
	Kind() RecordKind
	contextRecord()
}

// FiltersRecord snapshots the request filters.
type FiltersRecord struct {
	Filters Filters `json:"filters"`
}

// PoolMetricsRecord snapshots the producing algorithm's pool metrics.
type PoolMetricsRecord struct {
	Algorithm string  `json:"algorithm"`
	Metrics   Metrics `json:"metrics"`
}

// TemporalRecord snapshots the session temporal context.
type TemporalRecord struct {
	Temporal TemporalContext `json:"temporal"`
}

// FeaturesRecord snapshots the session ML feature placeholders.
type FeaturesRecord struct {
	Features MLFeatures `json:"features"`
}

// UnknownRecord keeps a record of a kind this version does not understand,
// so it survives a decode/encode round trip.
type UnknownRecord struct {
	Type RecordKind
	Raw  json.RawMessage
}

func (FiltersRecord) Kind() RecordKind { return RecordFilters }
func (PoolMetricsRecord) Kind() RecordKind { return RecordPoolMetrics }
func (TemporalRecord) Kind() RecordKind { return RecordTemporal }
func (FeaturesRecord) Kind() RecordKind { return RecordFeatures }
func (r UnknownRecord) Kind() RecordKind { return r.Type }

func (FiltersRecord) contextRecord() {}
func (PoolMetricsRecord) contextRecord() {}
func (TemporalRecord) contextRecord() {}
func (FeaturesRecord) contextRecord() {}
func (UnknownRecord) contextRecord() {}

// LogContext is the ordered list of context records stored with a log entry.
type LogContext []ContextRecord

type recordEnvelope struct {
	Type RecordKind `json:"type"`
}

// MarshalJSON encodes each record as an object carrying a "type" tag.
func (c LogContext) MarshalJSON() ([]byte, error) {
	out := make([]json.RawMessage, 0, len(c))
	for _, rec := range c {
		raw, err := marshalRecord(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes tagged records, keeping unknown kinds verbatim.
func (c *LogContext) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return fmt.Errorf("decode log context: %w", err)
	}
	records := make(LogContext, 0, len(raws))
	for _, raw := range raws {
		rec, err := unmarshalRecord(raw)
		if err != nil {
			return err
		}
		records = append(records, rec)
	}
	*c = records
	return nil
}

func marshalRecord(rec ContextRecord) (json.RawMessage, error) {
	if u, ok := rec.(UnknownRecord); ok {
		return u.Raw, nil
	}
	body, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode %s record: %w", rec.Kind(), err)
	}
	// Splice the tag into the record object.
	tag, _ := json.Marshal(recordEnvelope{Type: rec.Kind()})
	if len(body) <= 2 {
		return tag, nil
	}
	merged := make([]byte, 0, len(tag)+len(body))
	merged = append(merged, tag[:len(tag)-1]...)
	merged = append(merged, ',')
	merged = append(merged, body[1:]...)
	return merged, nil
}

func unmarshalRecord(raw json.RawMessage) (ContextRecord, error) {
	var env recordEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode context record: %w", err)
	}

	var (
		rec ContextRecord
		err error
	)
	switch env.Type {
	case RecordFilters:
		var r FiltersRecord
		err = json.Unmarshal(raw, &r)
		rec = r
	case RecordPoolMetrics:
		var r PoolMetricsRecord
		err = json.Unmarshal(raw, &r)
		rec = r
	case RecordTemporal:
		var r TemporalRecord
		err = json.Unmarshal(raw, &r)
		rec = r
	case RecordFeatures:
		var r FeaturesRecord
		err = json.Unmarshal(raw, &r)
		rec = r
	default:
		cp := make(json.RawMessage, len(raw))
		copy(cp, raw)
		rec = UnknownRecord{Type: env.Type, Raw: cp}
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s record: %w", env.Type, err)
	}
	return rec, nil
}
