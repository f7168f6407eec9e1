package fodmap

import (
	"fmt"
)

// SensitivityCategory is a FODMAP food sensitivity category.
// CategoryNone is the sentinel for "no classification produced".
type SensitivityCategory int

const (
	CategoryNone SensitivityCategory = iota
	CategoryFructans
	CategoryOgliosaccharides
	CategoryDisaccharides
	CategoryMonosaccharides
	CategoryPolyols
	CategoryDairy
	CategoryGluten
)

var categoryNames = [...]string{
	CategoryNone:             "None",
	CategoryFructans:         "Fructans",
	CategoryOgliosaccharides: "Ogliosaccharides",
	CategoryDisaccharides:    "Disaccharides",
	CategoryMonosaccharides:  "Monosaccharides",
	CategoryPolyols:          "Polyols",
	CategoryDairy:            "Dairy",
	CategoryGluten:           "Gluten",
}

func (c SensitivityCategory) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return fmt.Sprintf("SensitivityCategory(%d)", int(c))
	}
	return categoryNames[c]
}

// ParseSensitivityCategory returns the category with the given name
func ParseSensitivityCategory(name string) (SensitivityCategory, error) {
	for i, n := range categoryNames {
		if n == name {
			return SensitivityCategory(i), nil
		}
	}
	return CategoryNone, fmt.Errorf("unknown sensitivity category %q", name)
}

func (c SensitivityCategory) MarshalText() ([]byte, error) {
	if c < 0 || int(c) >= len(categoryNames) {
		return nil, fmt.Errorf("invalid sensitivity category %d", int(c))
	}
	return []byte(categoryNames[c]), nil
}

func (c *SensitivityCategory) UnmarshalText(text []byte) error {
	parsed, err := ParseSensitivityCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Categories returns every category except CategoryNone, in declaration order
func Categories() []SensitivityCategory {
	out := make([]SensitivityCategory, 0, len(categoryNames)-1)
	for i := range categoryNames {
		if c := SensitivityCategory(i); c != CategoryNone {
			out = append(out, c)
		}
	}
	return out
}

// IntoleranceLevel is how strongly a sensitivity is experienced.
// IntoleranceNone means no detectable or parseable sensitivity.
type IntoleranceLevel int

const (
	IntoleranceHigh IntoleranceLevel = iota
	IntoleranceModerate
	IntoleranceLow
	IntoleranceNone
)

var levelNames = [...]string{
	IntoleranceHigh:     "High",
	IntoleranceModerate: "Moderate",
	IntoleranceLow:      "Low",
	IntoleranceNone:     "None",
}

func (l IntoleranceLevel) String() string {
	if l < 0 || int(l) >= len(levelNames) {
		return fmt.Sprintf("IntoleranceLevel(%d)", int(l))
	}
	return levelNames[l]
}

// ParseIntoleranceLevel returns the level with the given name
func ParseIntoleranceLevel(name string) (IntoleranceLevel, error) {
	for i, n := range levelNames {
		if n == name {
			return IntoleranceLevel(i), nil
		}
	}
	return IntoleranceNone, fmt.Errorf("unknown intolerance level %q", name)
}

func (l IntoleranceLevel) MarshalText() ([]byte, error) {
	if l < 0 || int(l) >= len(levelNames) {
		return nil, fmt.Errorf("invalid intolerance level %d", int(l))
	}
	return []byte(levelNames[l]), nil
}

func (l *IntoleranceLevel) UnmarshalText(text []byte) error {
	parsed, err := ParseIntoleranceLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// SensitivityLevel is the classification of one category for a food
type SensitivityLevel struct {
	Sensitivity      SensitivityCategory `json:"sensitivity"`
	IntoleranceLevel IntoleranceLevel    `json:"intoleranceLevel"`
	Citations        []string            `json:"citations"`
}

// IsSentinel reports whether the level carries no classification
func (s SensitivityLevel) IsSentinel() bool {
	return s.Sensitivity == CategoryNone || s.IntoleranceLevel == IntoleranceNone
}

// FoodSensitivity is the aggregated classification of a food. Citations is
// the concatenation of the citations of every level, in order.
type FoodSensitivity struct {
	FoodName          string             `json:"foodName"`
	SensitivityLevels []SensitivityLevel `json:"sensitivityLevels"`
	Citations         []string           `json:"citations"`
}
