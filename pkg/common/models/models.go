package models

import (
	"encoding/json"
	"time"
)

// Attribute names of an export Record element.
const (
	AttrType         = "type"
	AttrValue        = "value"
	AttrCreationDate = "creationDate"
	AttrUnit         = "unit"
	AttrSourceName   = "sourceName"
)

// RawEntry holds every attribute of one exported Record element. Values are
// kept as text; nothing here parses them.
type RawEntry map[string]string

func NewRawEntry(creationDate, value string) RawEntry {
	return RawEntry{AttrCreationDate: creationDate, AttrValue: value}
}

func (e RawEntry) CreationDate() string {
	return e[AttrCreationDate]
}

func (e RawEntry) Value() string {
	return e[AttrValue]
}

// Reading is an optional measurement value. The zero value is absent.
type Reading struct {
	Value   string
	Present bool
}

func Present(value string) Reading {
	return Reading{Value: value, Present: true}
}

func Absent() Reading {
	return Reading{}
}

// String renders the reading as it appears in a CSV cell; absent is empty.
func (r Reading) String() string {
	if !r.Present {
		return ""
	}
	return r.Value
}

func (r Reading) MarshalJSON() ([]byte, error) {
	if !r.Present {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

// UnifiedRecord is one correlated observation keyed by the systolic reading's
// creationDate, which is carried verbatim in Time.
type UnifiedRecord struct {
	Systolic  string  `json:"systolic"`
	Diastolic Reading `json:"diastolic"`
	HeartRate Reading `json:"hr"`
	Time      string  `json:"time"`

	// Attributes of the systolic source element, for sinks that keep them.
	Attributes map[string]string `json:"-"`
}

// Event bus envelope
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]string      `json:"metadata,omitempty"`
}

type ConversionResult struct {
	RunID     string          `json:"run_id"`
	Records   int             `json:"records"`
	Systolic  int             `json:"systolic_entries"`
	Delivered int             `json:"delivered"`
	Duration  time.Duration   `json:"duration"`
	Sinks     []string        `json:"sinks,omitempty"`
	Stats     CorrelationStat `json:"stats"`
}

type CorrelationStat struct {
	Records           int `json:"records"`
	DiastolicMatched  int `json:"diastolic_matched"`
	HeartRateMatched  int `json:"heart_rate_matched"`
	DuplicatesDropped int `json:"duplicates_dropped"`
}
