// Package ibanpkg provides IBAN validation helpers.
//
// The IBAN is treated as an opaque unique account key; only its shape is
// checked, not the checksum.
package ibanpkg

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var pattern = regexp.MustCompile(`^[A-Z]{2}[0-9]{2}[0-9A-Z]{11,30}$`)

// Valid reports whether s is an IBAN-shaped account key.
func Valid(s string) bool {
	return pattern.MatchString(s)
}

// ValidIBAN checks that a bound field is an IBAN-shaped account key.
var ValidIBAN validator.Func = func(fieldLevel validator.FieldLevel) bool {
	iban, ok := fieldLevel.Field().Interface().(string)
	if !ok {
		return false
	}

	return Valid(iban)
}
