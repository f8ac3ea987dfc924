package premium

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/premiumcare/premiumcare/internal/domain/features"
	"github.com/premiumcare/premiumcare/internal/platform/validation"
)

var Occupations = []string{
	"Student",
	"Part-time Worker",
	"Intern",
	"Office Assistant",
	"Teacher Assistant",
	"Engineer",
	"Software Developer",
	"Designer",
	"Sales Executive",
}

var validate = validation.New(validation.Enum("occupation", Occupations...))

// ProfileRequest is the /predict payload. Pointers tell a missing field
// apart from a zero value.
type ProfileRequest struct {
	Age        *int     `json:"age" validate:"required,gt=0,lt=120"`
	Weight     *float64 `json:"weight" validate:"required,gt=0"`
	Height     *float64 `json:"height" validate:"required,gt=0"`
	Income     *float64 `json:"income" validate:"required,gt=0"`
	Smoker     *bool    `json:"smoker" validate:"required"`
	City       *string  `json:"city" validate:"required"`
	Occupation *string  `json:"occupation" validate:"required,occupation"`
}

// UserProfile is a validated predictor input.
type UserProfile struct {
	Age        int
	Weight     float64
	Height     float64
	Income     float64
	Smoker     bool
	City       string
	Occupation string
}

func (r *ProfileRequest) Profile() UserProfile {
	return UserProfile{
		Age:        *r.Age,
		Weight:     *r.Weight,
		Height:     *r.Height,
		Income:     *r.Income,
		Smoker:     *r.Smoker,
		City:       *r.City,
		Occupation: *r.Occupation,
	}
}

func (p UserProfile) BMI() float64 {
	return features.BMI(p.Weight, p.Height)
}

func (p UserProfile) LifestyleRisk() string {
	return features.LifestyleRisk(p.Smoker, p.BMI())
}

func (p UserProfile) AgeGroup() string {
	return features.AgeGroup(p.Age)
}

func (p UserProfile) CityTier() int {
	return features.CityTier(p.City)
}

// FeatureColumns is the column order the premium model was trained on.
var FeatureColumns = []string{
	"age", "weight", "height", "income", "bmi",
	"age_group", "lifestyle_risk", "city_tier", "occupation",
}

// FeatureRow is the record handed to the model.
type FeatureRow struct {
	Age           int     `json:"age"`
	Weight        float64 `json:"weight"`
	Height        float64 `json:"height"`
	Income        float64 `json:"income"`
	BMI           float64 `json:"bmi"`
	AgeGroup      string  `json:"age_group"`
	LifestyleRisk string  `json:"lifestyle_risk"`
	CityTier      int     `json:"city_tier"`
	Occupation    string  `json:"occupation"`
}

// Features derives the model input from the profile.
func (p UserProfile) Features() FeatureRow {
	return FeatureRow{
		Age:           p.Age,
		Weight:        p.Weight,
		Height:        p.Height,
		Income:        p.Income,
		BMI:           p.BMI(),
		AgeGroup:      p.AgeGroup(),
		LifestyleRisk: p.LifestyleRisk(),
		CityTier:      p.CityTier(),
		Occupation:    p.Occupation,
	}
}

func (r FeatureRow) Columns() []string {
	out := make([]string, len(FeatureColumns))
	copy(out, FeatureColumns)
	return out
}

func (r FeatureRow) Value(name string) (interface{}, bool) {
	switch name {
	case "age":
		return r.Age, true
	case "weight":
		return r.Weight, true
	case "height":
		return r.Height, true
	case "income":
		return r.Income, true
	case "bmi":
		return r.BMI, true
	case "age_group":
		return r.AgeGroup, true
	case "lifestyle_risk":
		return r.LifestyleRisk, true
	case "city_tier":
		return r.CityTier, true
	case "occupation":
		return r.Occupation, true
	}
	return nil, false
}

// ParseProfile decodes and validates a profile outside an HTTP request, as
// the one-shot predict command does.
func ParseProfile(r io.Reader) (UserProfile, error) {
	var req ProfileRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return UserProfile{}, fmt.Errorf("decode profile: %w", err)
	}
	if err := validate.Struct(&req); err != nil {
		return UserProfile{}, fmt.Errorf("invalid profile: %w", err)
	}
	return req.Profile(), nil
}
