package registry

import (
	"bytes"
	"encoding/json"

	"github.com/premiumcare/premiumcare/internal/domain/features"
	"github.com/premiumcare/premiumcare/internal/platform/validation"
)

var Genders = []string{"Male", "Female", "Other"}

var validate = validation.New(validation.Enum("gender", Genders...))

// Patient is a full registry record. ID is the document key and is never
// stored inside the record body.
type Patient struct {
	ID     string  `json:"id"`
	Name   string  `json:"name" validate:"max=50"`
	Age    int     `json:"age" validate:"gt=0,lt=120"`
	Gender string  `json:"gender" validate:"gender"`
	Height float64 `json:"height" validate:"gt=0"`
	Weight float64 `json:"weight" validate:"gt=0"`
}

// Record is the stored form of a patient.
type Record struct {
	Name   string  `json:"name"`
	Age    int     `json:"age"`
	Gender string  `json:"gender"`
	Height float64 `json:"height"`
	Weight float64 `json:"weight"`
}

// PatientView is a patient with its derived fields attached.
type PatientView struct {
	Patient
	BMI     float64 `json:"bmi"`
	Verdict string  `json:"verdict"`
}

// CreateRequest is the create payload; every field must be present.
type CreateRequest struct {
	ID     *string  `json:"id" validate:"required"`
	Name   *string  `json:"name" validate:"required,max=50"`
	Age    *int     `json:"age" validate:"required,gt=0,lt=120"`
	Gender *string  `json:"gender" validate:"required,gender"`
	Height *float64 `json:"height" validate:"required,gt=0"`
	Weight *float64 `json:"weight" validate:"required,gt=0"`
}

// PatientUpdate carries only the fields a caller wants to change. Its rules
// are looser than Patient's; the merged record is validated in full.
type PatientUpdate struct {
	Name   *string  `json:"name"`
	Age    *int     `json:"age" validate:"omitnil,gt=0"`
	Gender *string  `json:"gender" validate:"omitnil,gender"`
	Height *float64 `json:"height" validate:"omitnil,gt=0"`
	Weight *float64 `json:"weight" validate:"omitnil,gt=0"`

	nulls []string
}

var updateFields = []string{"name", "age", "gender", "height", "weight"}

// UnmarshalJSON records fields sent as an explicit null so they can be
// told apart from fields that were left out.
func (u *PatientUpdate) UnmarshalJSON(data []byte) error {
	type plain PatientUpdate
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.nulls = nil
	for _, f := range updateFields {
		if v, ok := raw[f]; ok && bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			p.nulls = append(p.nulls, f)
		}
	}
	*u = PatientUpdate(p)
	return nil
}

// NullFields returns the fields the caller set to null, in field order.
func (u PatientUpdate) NullFields() []string {
	return u.nulls
}

func (r *CreateRequest) Patient() Patient {
	return Patient{
		ID:     *r.ID,
		Name:   *r.Name,
		Age:    *r.Age,
		Gender: *r.Gender,
		Height: *r.Height,
		Weight: *r.Weight,
	}
}

func (p Patient) Record() Record {
	return Record{Name: p.Name, Age: p.Age, Gender: p.Gender, Height: p.Height, Weight: p.Weight}
}

func (r Record) Patient(id string) Patient {
	return Patient{ID: id, Name: r.Name, Age: r.Age, Gender: r.Gender, Height: r.Height, Weight: r.Weight}
}

func (p Patient) BMI() float64 {
	return features.BMI(p.Weight, p.Height)
}

func (p Patient) View() PatientView {
	bmi := p.BMI()
	return PatientView{Patient: p, BMI: bmi, Verdict: features.BMIVerdict(bmi)}
}

// Apply overwrites the record fields that are set in u.
func (u PatientUpdate) Apply(r Record) Record {
	if u.Name != nil {
		r.Name = *u.Name
	}
	if u.Age != nil {
		r.Age = *u.Age
	}
	if u.Gender != nil {
		r.Gender = *u.Gender
	}
	if u.Height != nil {
		r.Height = *u.Height
	}
	if u.Weight != nil {
		r.Weight = *u.Weight
	}
	return r
}

// Validate checks a full patient record.
func (p Patient) Validate() error {
	return validate.Struct(&p)
}
