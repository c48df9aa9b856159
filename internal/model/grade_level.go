package model

// GradeLevel maps a numeric grade code to its display name. A single
// authoritative table replaces the per-screen mappings that used to disagree
// on codes 7-9; the admin mapping (preparatory stage starts at 7) wins.
type GradeLevel struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

var gradeLevels = []GradeLevel{
	{Code: "1", Name: "Primary 1"},
	{Code: "2", Name: "Primary 2"},
	{Code: "3", Name: "Primary 3"},
	{Code: "4", Name: "Primary 4"},
	{Code: "5", Name: "Primary 5"},
	{Code: "6", Name: "Primary 6"},
	{Code: "7", Name: "Prep 1"},
	{Code: "8", Name: "Prep 2"},
	{Code: "9", Name: "Prep 3"},
	{Code: "10", Name: "Secondary 1"},
	{Code: "11", Name: "Secondary 2"},
	{Code: "12", Name: "Secondary 3"},
}

var gradeLevelByCode = func() map[string]GradeLevel {
	m := make(map[string]GradeLevel, len(gradeLevels))
	for _, gl := range gradeLevels {
		m[gl.Code] = gl
	}
	return m
}()

// GradeLevels returns all known grade levels in school order.
func GradeLevels() []GradeLevel {
	out := make([]GradeLevel, len(gradeLevels))
	copy(out, gradeLevels)
	return out
}

// GradeLevelName returns the display name for a grade code, or "Unknown"
// for codes outside the table.
func GradeLevelName(code string) string {
	if gl, ok := gradeLevelByCode[code]; ok {
		return gl.Name
	}
	return "Unknown"
}

// ValidGradeCode reports whether the code exists in the table.
func ValidGradeCode(code string) bool {
	_, ok := gradeLevelByCode[code]
	return ok
}
