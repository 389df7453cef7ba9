package models

// MonitoringRecord is one historical prediction as read from the record
// store. The metric columns are only present when the store returns them.
type MonitoringRecord struct {
	ID               int64       `json:"id"`
	PredictedLabel   StressLabel `json:"predicted_label"`
	PredictedFactors string      `json:"predicted_factors"`
	AnxietyLevel     *int        `json:"anxiety_level,omitempty"`
	SleepQuality     *int        `json:"sleep_quality,omitempty"`
	StudyLoad        *int        `json:"study_load,omitempty"`
}
