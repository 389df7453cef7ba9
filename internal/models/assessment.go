package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownField is returned for names outside the field catalog.
var ErrUnknownField = errors.New("unknown questionnaire field")

// AnswerSet holds one value for every catalog field. The zero value is not
// usable; build one with NewAnswerSet.
type AnswerSet struct {
	values map[string]int
}

// NewAnswerSet returns an answer set with every catalog field at 0.
func NewAnswerSet() AnswerSet {
	values := make(map[string]int, len(fieldNames))
	for _, name := range fieldNames {
		values[name] = 0
	}
	return AnswerSet{values: values}
}

// Set stores value for name, clamped into [0, max]. The stored value is
// returned.
func (a AnswerSet) Set(name string, value int) (int, error) {
	spec, ok := LookupField(name)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	v := clamp(value, 0, spec.Max)
	a.values[name] = v
	return v, nil
}

// Get returns the value of name.
func (a AnswerSet) Get(name string) (int, bool) {
	v, ok := a.values[name]
	return v, ok
}

// Clone returns an independent copy.
func (a AnswerSet) Clone() AnswerSet {
	values := make(map[string]int, len(a.values))
	for k, v := range a.values {
		values[k] = v
	}
	return AnswerSet{values: values}
}

// Values returns the flat wire mapping sent to the scoring service.
func (a AnswerSet) Values() map[string]int {
	return a.Clone().values
}

// MarshalJSON encodes the answer set as its flat mapping.
func (a AnswerSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.values)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// StressLabel is the classification returned by the scoring service.
type StressLabel string

const (
	LabelLow    StressLabel = "Low Stress"
	LabelMedium StressLabel = "Medium Stress"
	LabelHigh   StressLabel = "High Stress"
)

// StressLevel is the short form of a StressLabel.
type StressLevel string

const (
	LevelLow    StressLevel = "Low"
	LevelMedium StressLevel = "Medium"
	LevelHigh   StressLevel = "High"
)

// Valid reports whether l is one of the three known labels.
func (l StressLabel) Valid() bool {
	switch l {
	case LabelLow, LabelMedium, LabelHigh:
		return true
	}
	return false
}

// Level maps the label to its short level. Unknown labels yield "".
func (l StressLabel) Level() StressLevel {
	switch l {
	case LabelLow:
		return LevelLow
	case LabelMedium:
		return LevelMedium
	case LabelHigh:
		return LevelHigh
	}
	return ""
}

// Prediction is the ordinal the scoring service pairs with the label.
func (l StressLabel) Prediction() int {
	switch l {
	case LabelMedium:
		return 1
	case LabelHigh:
		return 2
	}
	return 0
}

// LabelForPrediction maps an ordinal 0|1|2 to its label.
func LabelForPrediction(prediction int) (StressLabel, bool) {
	switch prediction {
	case 0:
		return LabelLow, true
	case 1:
		return LabelMedium, true
	case 2:
		return LabelHigh, true
	}
	return "", false
}

// AssessmentResult is the combined outcome of a score + explain submission.
type AssessmentResult struct {
	Label       StressLabel `json:"label"`
	Level       StressLevel `json:"level"`
	Prediction  int         `json:"prediction"`
	Factors     []string    `json:"factors"`
	Explanation string      `json:"explanation"`
}
