// Package validation wraps go-playground/validator and renders field errors
// as a list of {loc, msg, type} entries keyed by JSON field name.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Detail describes one offending field.
type Detail struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// Error is returned when a payload fails schema validation.
type Error struct {
	Details []Detail
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		field := strings.Join(d.Loc[1:], ".")
		if field == "" {
			field = d.Loc[0]
		}
		parts = append(parts, field+": "+d.Msg)
	}
	return strings.Join(parts, "; ")
}

// HTTPError converts the validation failure into a 422 response.
func (e *Error) HTTPError() *echo.HTTPError {
	return echo.NewHTTPError(http.StatusUnprocessableEntity, e.Details)
}

// Option customizes a Validator.
type Option func(*Validator)

// Enum registers a tag that accepts exactly the given values.
func Enum(tag string, values ...string) Option {
	return func(v *Validator) {
		allowed := make(map[string]struct{}, len(values))
		for _, s := range values {
			allowed[s] = struct{}{}
		}
		v.enums[tag] = values
		// Only fails on a non-string tag target, which is a programming error.
		_ = v.v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			_, ok := allowed[fl.Field().String()]
			return ok
		})
	}
}

type Validator struct {
	v     *validator.Validate
	enums map[string][]string
}

func New(opts ...Option) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	out := &Validator{v: v, enums: make(map[string][]string)}
	for _, opt := range opts {
		opt(out)
	}
	return out
}

// Struct validates s and returns *Error on failure.
func (v *Validator) Struct(s interface{}) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &Error{}
	for _, fe := range verrs {
		out.Details = append(out.Details, v.detail(fe))
	}
	return out
}

func (v *Validator) detail(fe validator.FieldError) Detail {
	d := Detail{Loc: []string{"body", fe.Field()}}
	switch fe.Tag() {
	case "required":
		d.Msg, d.Type = "Field required", "missing"
	case "gt":
		d.Msg, d.Type = "Input should be greater than "+fe.Param(), "greater_than"
	case "gte":
		d.Msg, d.Type = "Input should be greater than or equal to "+fe.Param(), "greater_than_equal"
	case "lt":
		d.Msg, d.Type = "Input should be less than "+fe.Param(), "less_than"
	case "lte":
		d.Msg, d.Type = "Input should be less than or equal to "+fe.Param(), "less_than_equal"
	case "max":
		d.Msg, d.Type = fmt.Sprintf("String should have at most %s characters", fe.Param()), "string_too_long"
	default:
		if values, ok := v.enums[fe.Tag()]; ok {
			d.Msg, d.Type = "Input should be "+quoteList(values), "literal_error"
		} else {
			d.Msg, d.Type = fmt.Sprintf("failed on the %q rule", fe.Tag()), fe.Tag()
		}
	}
	return d
}

func quoteList(values []string) string {
	quoted := make([]string, len(values))
	for i, s := range values {
		quoted[i] = "'" + s + "'"
	}
	if len(quoted) < 2 {
		return strings.Join(quoted, "")
	}
	return strings.Join(quoted[:len(quoted)-1], ", ") + " or " + quoted[len(quoted)-1]
}

// BindJSON decodes the request body into dst and validates it. Malformed
// JSON and type mismatches are reported as validation failures too.
func (v *Validator) BindJSON(c echo.Context, dst interface{}) error {
	body := c.Request().Body
	if body == nil || body == http.NoBody {
		return &Error{Details: []Detail{{Loc: []string{"body"}, Msg: "Field required", Type: "missing"}}}
	}
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		return decodeError(err)
	}
	return v.Struct(dst)
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return &Error{Details: []Detail{{
			Loc:  []string{"body", typeErr.Field},
			Msg:  fmt.Sprintf("Input should be a valid %s", typeErr.Type.Kind()),
			Type: typeErr.Type.Kind().String() + "_type",
		}}}
	}
	// HTTPError from a body limit middleware must keep its status.
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	if errors.Is(err, io.EOF) {
		return &Error{Details: []Detail{{Loc: []string{"body"}, Msg: "Field required", Type: "missing"}}}
	}
	return &Error{Details: []Detail{{Loc: []string{"body"}, Msg: "JSON decode error: " + err.Error(), Type: "json_invalid"}}}
}
