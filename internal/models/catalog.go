package models

// FieldSpec describes one questionnaire metric.
type FieldSpec struct {
	Name        string `json:"name"`
	Label       string `json:"label"`
	Max         int    `json:"max"`
	Description string `json:"description"`
}

// FieldGroup is a titled section of the questionnaire.
type FieldGroup struct {
	Title  string      `json:"title"`
	Fields []FieldSpec `json:"fields"`
}

// ReferenceBand is one column of the scoring reference guide.
type ReferenceBand struct {
	Title          string   `json:"title"`
	Rows           []string `json:"rows"`
	CalculatorLink string   `json:"calculator_link,omitempty"`
}

var fieldGroups = []FieldGroup{
	{
		Title: "Mental & Emotional",
		Fields: []FieldSpec{
			{Name: "anxiety_level", Label: "Anxiety (GAD-7)", Max: 21, Description: "0 (None) → 21 (Severe)"},
			{Name: "depression", Label: "Depression (PHQ-9)", Max: 27, Description: "0 (None) → 27 (Severe)"},
			{Name: "self_esteem", Label: "Self Esteem", Max: 30, Description: "0 (Low) → 30 (High)"},
			{Name: "mental_health_history", Label: "History of Illness", Max: 1, Description: "0 (No) / 1 (Yes)"},
		},
	},
	{
		Title: "Physical Health",
		Fields: []FieldSpec{
			{Name: "headache", Label: "Headache Freq.", Max: 5, Description: "0 (Never) → 5 (Constant)"},
			{Name: "blood_pressure", Label: "Blood Pressure", Max: 3, Description: "0 (Normal) → 3 (High)"},
			{Name: "sleep_quality", Label: "Sleep Quality", Max: 5, Description: "1 (Poor) → 5 (Great)"},
			{Name: "breathing_problem", Label: "Breathing Issues", Max: 5, Description: "0 (None) → 5 (Severe)"},
		},
	},
	{
		Title: "Academic Life",
		Fields: []FieldSpec{
			{Name: "academic_performance", Label: "Performance/Grades", Max: 5, Description: "0 (Low) → 5 (High)"},
			{Name: "study_load", Label: "Study Load", Max: 5, Description: "0 (Light) → 5 (Heavy)"},
			{Name: "teacher_student_relationship", Label: "Teacher Relationship", Max: 5, Description: "0 (Poor) → 5 (Great)"},
			{Name: "future_career_concerns", Label: "Career Worry", Max: 5, Description: "0 (Calm) → 5 (Worried)"},
		},
	},
	{
		Title: "Social Context",
		Fields: []FieldSpec{
			{Name: "social_support", Label: "Support System", Max: 3, Description: "0 (None) → 3 (Strong)"},
			{Name: "peer_pressure", Label: "Peer Pressure", Max: 5, Description: "0 (None) → 5 (High)"},
			{Name: "extracurricular_activities", Label: "Activities", Max: 5, Description: "0 (None) → 5 (Many)"},
			{Name: "bullying", Label: "Bullying", Max: 5, Description: "0 (Never) → 5 (Often)"},
		},
	},
	{
		Title: "Environment",
		Fields: []FieldSpec{
			{Name: "noise_level", Label: "Noise Level", Max: 5, Description: "0 (Quiet) → 5 (Loud)"},
			{Name: "living_conditions", Label: "Living Condition", Max: 5, Description: "0 (Poor) → 5 (Great)"},
			{Name: "safety", Label: "Safety", Max: 5, Description: "0 (Unsafe) → 5 (Safe)"},
			{Name: "basic_needs", Label: "Basic Needs", Max: 5, Description: "0 (Not Met) → 5 (Met)"},
		},
	},
}

var referenceBands = []ReferenceBand{
	{
		Title:          "Anxiety (0-21)",
		Rows:           []string{"0–4 Minimal", "5–9 Mild", "10–14 Moderate", "15+ Severe"},
		CalculatorLink: "https://www.mdcalc.com/calc/1727/gad7-general-anxiety-disorder7",
	},
	{
		Title:          "Depression (0-27)",
		Rows:           []string{"0–4 None", "5–9 Mild", "10–14 Moderate", "15+ Severe"},
		CalculatorLink: "https://www.mdcalc.com/calc/1725/phq9-patient-health-questionnaire-9",
	},
	{
		Title: "Likert (0-5)",
		Rows:  []string{"0 Very Low", "1 Low", "3 Moderate", "5 High"},
	},
}

var (
	fieldIndex = buildFieldIndex()
	fieldNames = buildFieldNames()
)

func buildFieldIndex() map[string]FieldSpec {
	idx := make(map[string]FieldSpec)
	for _, g := range fieldGroups {
		for _, f := range g.Fields {
			idx[f.Name] = f
		}
	}
	return idx
}

func buildFieldNames() []string {
	var names []string
	for _, g := range fieldGroups {
		for _, f := range g.Fields {
			names = append(names, f.Name)
		}
	}
	return names
}

// LookupField returns the catalog entry for name.
func LookupField(name string) (FieldSpec, bool) {
	f, ok := fieldIndex[name]
	return f, ok
}

// FieldNames lists every catalog field in questionnaire order.
func FieldNames() []string {
	out := make([]string, len(fieldNames))
	copy(out, fieldNames)
	return out
}

// FieldGroups returns a copy of the grouped catalog.
func FieldGroups() []FieldGroup {
	out := make([]FieldGroup, len(fieldGroups))
	for i, g := range fieldGroups {
		fields := make([]FieldSpec, len(g.Fields))
		copy(fields, g.Fields)
		out[i] = FieldGroup{Title: g.Title, Fields: fields}
	}
	return out
}

// ReferenceBands returns the static scoring reference guide.
func ReferenceBands() []ReferenceBand {
	out := make([]ReferenceBand, len(referenceBands))
	for i, b := range referenceBands {
		rows := make([]string, len(b.Rows))
		copy(rows, b.Rows)
		out[i] = ReferenceBand{Title: b.Title, Rows: rows, CalculatorLink: b.CalculatorLink}
	}
	return out
}
