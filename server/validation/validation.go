// Package validation decodes JSON request bodies and checks them against
// struct-tag schemas. Failures are reported as field errors rather than
// custom messages so every endpoint rejects bad input the same way.
package validation

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/permitagent/permitagent/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// DecodeJSON decodes a single JSON object from r into dst, a pointer to a
// struct, and validates it. It returns nil when the body is acceptable.
// Unknown fields are ignored.
func DecodeJSON(r io.Reader, dst interface{}) []errors.FieldError {
	dec := json.NewDecoder(r)
	if err := dec.Decode(dst); err != nil {
		return []errors.FieldError{decodeError(err)}
	}
	// Anything but whitespace after the object, including a stray '}' or ']',
	// makes the body invalid.
	if _, err := dec.Token(); !stderrors.Is(err, io.EOF) {
		return []errors.FieldError{{
			Loc:  []string{"body"},
			Msg:  "JSON decode error: unexpected data after top-level value",
			Type: "json_invalid",
		}}
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !stderrors.As(err, &verrs) {
			return []errors.FieldError{{Loc: []string{"body"}, Msg: err.Error(), Type: "value_error"}}
		}
		out := make([]errors.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			out = append(out, fieldError(fe))
		}
		return out
	}
	return nil
}

func decodeError(err error) errors.FieldError {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError

	switch {
	case stderrors.Is(err, io.EOF):
		return errors.FieldError{Loc: []string{"body"}, Msg: "Field required", Type: "missing"}
	case stderrors.As(err, &syntaxErr), stderrors.Is(err, io.ErrUnexpectedEOF):
		return errors.FieldError{Loc: []string{"body"}, Msg: "JSON decode error: " + err.Error(), Type: "json_invalid"}
	case stderrors.As(err, &typeErr):
		loc := []string{"body"}
		if typeErr.Field != "" {
			loc = append(loc, strings.Split(typeErr.Field, ".")...)
		}
		want := jsonTypeName(typeErr.Type)
		return errors.FieldError{
			Loc:  loc,
			Msg:  fmt.Sprintf("Input should be a valid %s, got %s", want, typeErr.Value),
			Type: want + "_type",
		}
	default:
		return errors.FieldError{Loc: []string{"body"}, Msg: err.Error(), Type: "value_error"}
	}
}

func fieldError(fe validator.FieldError) errors.FieldError {
	loc := append([]string{"body"}, strings.Split(namespaceWithoutRoot(fe.Namespace()), ".")...)
	if fe.Tag() == "required" {
		return errors.FieldError{Loc: loc, Msg: "Field required", Type: "missing"}
	}
	return errors.FieldError{
		Loc:  loc,
		Msg:  fmt.Sprintf("Value failed the %q constraint", fe.Tag()),
		Type: fe.Tag(),
	}
}

// namespaceWithoutRoot strips the struct type name validator prefixes to a
// field namespace ("AskRequest.question" becomes "question").
func namespaceWithoutRoot(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func jsonTypeName(t reflect.Type) string {
	if t == nil {
		return "value"
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Struct, reflect.Map:
		return "object"
	default:
		return t.Kind().String()
	}
}
