// Package features derives the secondary attributes both services attach to
// validated input: body-mass index, weight verdict, lifestyle risk, age group
// and city tier. Every function is pure and is recomputed on each read.
package features

import "math"

// Lifestyle risk labels.
const (
	RiskLow    = "Low"
	RiskMedium = "Medium"
	RiskHigh   = "High"
)

// Age group labels.
const (
	AgeYoung      = "young"
	AgeAdult      = "adult"
	AgeMiddleAged = "middle_aged"
	AgeSenior     = "senior"
)

// BMI verdict labels.
const (
	VerdictUnderweight = "Underweight"
	VerdictNormal      = "Normal"
	VerdictOverweight  = "Overweight"
	VerdictObese       = "Obese"
)

// Tier1Cities and Tier2Cities are matched case-sensitively. Anything else is tier 3.
var (
	Tier1Cities = []string{"Kathmandu", "Pokhara"}
	Tier2Cities = []string{"Butwal", "Lalitpur", "Biratnagar"}
)

// BMI returns weight (kg) over height (m) squared, rounded to two decimals.
func BMI(weight, height float64) float64 {
	return round2(weight / (height * height))
}

// BMIVerdict buckets a BMI using the 18.5 / 25 / 30 thresholds.
func BMIVerdict(bmi float64) string {
	switch {
	case bmi < 18.5:
		return VerdictUnderweight
	case bmi < 25:
		return VerdictNormal
	case bmi < 30:
		return VerdictOverweight
	default:
		return VerdictObese
	}
}

// LifestyleRisk is High only for smokers above BMI 30. A non-smoker with a
// BMI in (27, 30] is Medium.
func LifestyleRisk(smoker bool, bmi float64) string {
	switch {
	case smoker && bmi > 30:
		return RiskHigh
	case smoker || bmi > 27:
		return RiskMedium
	default:
		return RiskLow
	}
}

func AgeGroup(age int) string {
	switch {
	case age < 25:
		return AgeYoung
	case age < 45:
		return AgeAdult
	case age < 60:
		return AgeMiddleAged
	default:
		return AgeSenior
	}
}

// CityTier looks the city up verbatim; no trimming or case folding.
func CityTier(city string) int {
	if contains(Tier1Cities, city) {
		return 1
	}
	if contains(Tier2Cities, city) {
		return 2
	}
	return 3
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
