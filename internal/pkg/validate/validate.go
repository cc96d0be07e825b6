// Package validate enforces declared request schemas for JSON bodies and
// query parameters, producing typed values with defaults applied or an
// itemized list of field errors. The original payload is never mutated; the
// caller supplies a fresh destination struct per request.
package validate

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrMalformed means the payload could not be parsed as its declared
// content type. Distinct from a schema violation: there is no parsed
// structure to itemize.
var ErrMalformed = errors.New("malformed payload")

// FieldError is one schema violation, addressed by field path.
type FieldError struct {
	Path    []string `json:"path"`
	Message string   `json:"message"`
}

// Defaulter lets a schema struct fill unset fields after decoding.
type Defaulter interface {
	ApplyDefaults()
}

// Validator applies struct-tag schemas. Safe for concurrent use.
type Validator struct {
	v *validator.Validate
}

// New returns a Validator that reports fields by their json (or query) tag
// name.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := tagName(fld.Tag.Get("json")); name != "" {
			return name
		}
		if name := tagName(fld.Tag.Get("query")); name != "" {
			return name
		}
		return fld.Name
	})
	return &Validator{v: v}
}

func tagName(tag string) string {
	name := strings.SplitN(tag, ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

// Body decodes JSON from r into dst, applies defaults, and validates.
// A non-JSON payload returns ErrMalformed; schema violations return details.
func (x *Validator) Body(r io.Reader, dst any) ([]FieldError, error) {
	dec := json.NewDecoder(r)
	if err := dec.Decode(dst); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if d, ok := dst.(Defaulter); ok {
		d.ApplyDefaults()
	}
	return x.check(dst)
}

// Query maps URL query parameters onto dst by `query` tag, applies
// defaults, and validates. Unparseable values (for example a non-numeric
// page) are reported as field errors, not as a malformed request.
func (x *Validator) Query(values url.Values, dst any) ([]FieldError, error) {
	details, err := bindQuery(values, dst)
	if err != nil {
		return nil, err
	}
	if len(details) > 0 {
		return details, nil
	}
	if d, ok := dst.(Defaulter); ok {
		d.ApplyDefaults()
	}
	return x.check(dst)
}

func (x *Validator) check(dst any) ([]FieldError, error) {
	err := x.v.Struct(dst)
	if err == nil {
		return nil, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, err
	}
	details := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, FieldError{
			Path:    fieldPath(fe),
			Message: message(fe),
		})
	}
	return details, nil
}

// fieldPath converts the validator namespace into a path, dropping the root
// struct segment: "body.items[2].title" becomes ["items[2]", "title"].
func fieldPath(fe validator.FieldError) []string {
	parts := strings.Split(fe.Namespace(), ".")
	if len(parts) > 1 {
		return parts[1:]
	}
	return []string{fe.Field()}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.String || fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must have at least %s items or characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String || fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must have at most %s items or characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "url":
		return "must be a valid URL"
	case "email":
		return "must be a valid email address"
	case "len":
		return fmt.Sprintf("must have length %s", fe.Param())
	case "datetime":
		return fmt.Sprintf("must be a date in %s format", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// bindQuery fills dst (pointer to struct) from values using `query` tags.
// Supported field kinds: string, int, bool.
func bindQuery(values url.Values, dst any) ([]FieldError, error) {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("query schema must be a pointer to struct, got %T", dst)
	}
	rv = rv.Elem()
	rt := rv.Type()

	var details []FieldError
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		name := tagName(field.Tag.Get("query"))
		if name == "" {
			continue
		}
		raw := values.Get(name)
		if raw == "" {
			continue
		}
		fv := rv.Field(i)
		switch fv.Kind() {
		case reflect.String:
			fv.SetString(raw)
		case reflect.Int, reflect.Int64:
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				details = append(details, FieldError{Path: []string{name}, Message: "must be an integer"})
				continue
			}
			fv.SetInt(n)
		case reflect.Bool:
			b, err := strconv.ParseBool(raw)
			if err != nil {
				details = append(details, FieldError{Path: []string{name}, Message: "must be a boolean"})
				continue
			}
			fv.SetBool(b)
		default:
			return nil, fmt.Errorf("unsupported query field kind %s for %s", fv.Kind(), name)
		}
	}
	return details, nil
}
