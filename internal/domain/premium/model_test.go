package premium

import (
	"strings"
	"testing"
)

func TestUserProfile_Features(t *testing.T) {
	p := UserProfile{
		Age:        62,
		Weight:     95,
		Height:     1.7,
		Income:     40000,
		Smoker:     true,
		City:       "Lalitpur",
		Occupation: "Designer",
	}

	row := p.Features()
	if row.BMI != 32.87 {
		t.Errorf("expected bmi 32.87, got %v", row.BMI)
	}
	if row.LifestyleRisk != "High" {
		t.Errorf("expected High risk, got %s", row.LifestyleRisk)
	}
	if row.AgeGroup != "senior" {
		t.Errorf("expected senior, got %s", row.AgeGroup)
	}
	if row.CityTier != 2 {
		t.Errorf("expected tier 2, got %d", row.CityTier)
	}
	if row.Age != 62 || row.Income != 40000 || row.Occupation != "Designer" {
		t.Errorf("raw fields not carried over: %+v", row)
	}
}

func TestFeatureRow_ColumnsAndValues(t *testing.T) {
	row := UserProfile{Age: 22, Weight: 60, Height: 1.65, Income: 50000, City: "Kathmandu", Occupation: "Student"}.Features()

	cols := row.Columns()
	if len(cols) != 9 || cols[0] != "age" || cols[8] != "occupation" {
		t.Fatalf("unexpected columns %v", cols)
	}
	for _, c := range cols {
		if _, ok := row.Value(c); !ok {
			t.Errorf("column %q has no value", c)
		}
	}
	if _, ok := row.Value("smoker"); ok {
		t.Error("smoker is not a model feature")
	}

	cols[0] = "mutated"
	if FeatureColumns[0] != "age" {
		t.Error("Columns must return a copy")
	}

	if v, _ := row.Value("city_tier"); v != 1 {
		t.Errorf("expected city_tier 1, got %v", v)
	}
	if v, _ := row.Value("lifestyle_risk"); v != "Low" {
		t.Errorf("expected Low risk, got %v", v)
	}
}

func TestProfileRequest_Validation(t *testing.T) {
	age, zero := 30, 0
	w, h, inc := 60.0, 1.65, 50000.0
	smoker := false
	city, occ, badOcc := "Kathmandu", "Part-time Worker", "Astronaut"

	valid := ProfileRequest{Age: &age, Weight: &w, Height: &h, Income: &inc, Smoker: &smoker, City: &city, Occupation: &occ}
	if err := validate.Struct(&valid); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	zeroAge := valid
	zeroAge.Age = &zero
	if err := validate.Struct(&zeroAge); err == nil {
		t.Error("expected age=0 to fail")
	}

	noSmoker := valid
	noSmoker.Smoker = nil
	if err := validate.Struct(&noSmoker); err == nil {
		t.Error("expected missing smoker to fail")
	}

	wrongJob := valid
	wrongJob.Occupation = &badOcc
	if err := validate.Struct(&wrongJob); err == nil {
		t.Error("expected unknown occupation to fail")
	}
}

func TestParseProfile(t *testing.T) {
	p, err := ParseProfile(strings.NewReader(`{"age":45,"weight":70,"height":1.75,"income":900000,"smoker":true,"city":"Pokhara","occupation":"Engineer"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Age != 45 || !p.Smoker || p.City != "Pokhara" {
		t.Errorf("unexpected profile %+v", p)
	}

	if _, err := ParseProfile(strings.NewReader(`{"age":45}`)); err == nil {
		t.Error("expected missing fields to fail")
	}
	if _, err := ParseProfile(strings.NewReader(`not json`)); err == nil {
		t.Error("expected malformed JSON to fail")
	}
}
