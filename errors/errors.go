// The errors package supplements standard error primitives with an
// aggregation type used to collect non-fatal problems.
package errors

import (
	"errors"
	"strconv"
	"strings"
)

func New(text string) error {
	return errors.New(text)
}

func Unwrap(err error) error {
	return errors.Unwrap(err)
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Errors is a list of errors.
type Errors []error

// Error formats the list with one message per line. Lines after the first,
// including lines within messages, are prefixed with a tab.
func (errs Errors) Error() string {
	switch len(errs) {
	case 0:
		return "no errors"
	case 1:
		return errs[0].Error()
	default:
		var buf strings.Builder
		buf.WriteString(strconv.Itoa(len(errs)))
		buf.WriteString(" errors:")
		for _, err := range errs {
			buf.WriteString("\n\t")
			buf.WriteString(strings.ReplaceAll(err.Error(), "\n", "\n\t"))
		}
		return buf.String()
	}
}

// Unwrap returns the list, letting errors.Is and errors.As descend into it.
func (errs Errors) Unwrap() []error {
	return errs
}

// Append returns errs with each non-nil err appended to it.
func (errs Errors) Append(err ...error) Errors {
	for _, err := range err {
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// Return prepares errs to be returned by a function, producing nil if errs
// is empty.
func (errs Errors) Return() error {
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Union combines a number of errors into one Errors value. Arguments that
// are themselves Errors are flattened into the result. Returns nil if every
// argument is nil or empty.
func Union(errs ...error) error {
	var e Errors
	for _, err := range errs {
		switch err := err.(type) {
		case nil:
			continue
		case Errors:
			for _, err := range err {
				if err != nil {
					e = append(e, err)
				}
			}
		default:
			e = append(e, err)
		}
	}
	return e.Return()
}
