// Cinelog - Movie Watch History Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinelog

package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// phpTokens maps the PHP date format characters clients send to Go layout
// elements.
var phpTokens = map[rune]string{
	'Y': "2006",
	'y': "06",
	'm': "01",
	'n': "1",
	'd': "02",
	'j': "2",
	'M': "Jan",
	'F': "January",
	'D': "Mon",
	'l': "Monday",
	'H': "15",
	'i': "04",
	's': "05",
}

// Sequences Go would read as layout elements if they appeared in literal text.
var layoutReserved = []string{"Jan", "Mon", "MST", "PM", "pm", "Z0", "_"}

// ParseDateFormat translates a PHP-style date format such as "d.m.Y" or
// "Y-m-d" into a Go time layout. A backslash makes the next character
// literal. Letters that are not known tokens and digits are rejected, as is
// a format missing the year, month or day.
func ParseDateFormat(format string) (string, error) {
	if format == "" {
		return "", fmt.Errorf("date format is empty")
	}

	var (
		layout                    strings.Builder
		literal                   strings.Builder
		hasYear, hasMonth, hasDay bool
		escaped                   bool
	)
	flushLiteral := func() error {
		text := literal.String()
		literal.Reset()
		for _, reserved := range layoutReserved {
			if strings.Contains(text, reserved) {
				return fmt.Errorf("literal %q cannot be used in a date format", text)
			}
		}
		layout.WriteString(text)
		return nil
	}

	for _, r := range format {
		if escaped {
			if r >= '0' && r <= '9' {
				return "", fmt.Errorf("literal digit %q cannot be used in a date format", r)
			}
			literal.WriteRune(r)
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			continue
		}

		element, isToken := phpTokens[r]
		switch {
		case isToken:
			if err := flushLiteral(); err != nil {
				return "", err
			}
			layout.WriteString(element)
			switch r {
			case 'Y', 'y':
				hasYear = true
			case 'm', 'n', 'M', 'F':
				hasMonth = true
			case 'd', 'j':
				hasDay = true
			}
		case isLetter(r):
			return "", fmt.Errorf("unsupported date format token %q", r)
		case r >= '0' && r <= '9':
			return "", fmt.Errorf("literal digit %q cannot be used in a date format", r)
		default:
			literal.WriteRune(r)
		}
	}
	if escaped {
		return "", fmt.Errorf("date format ends with an escape character")
	}
	if err := flushLiteral(); err != nil {
		return "", err
	}
	if !hasYear || !hasMonth || !hasDay {
		return "", fmt.Errorf("date format %q must contain year, month and day", format)
	}
	return layout.String(), nil
}

// ParseDate parses value against a PHP-style format and returns the calendar
// date at UTC midnight. field names the request field in the error.
func ParseDate(field, value, format string) (time.Time, *RequestValidationError) {
	layout, err := ParseDateFormat(format)
	if err != nil {
		return time.Time{}, NewFieldError("dateFormat", "dateformat", format, err.Error())
	}

	t, err := time.Parse(layout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, NewFieldError(field, "date", value,
			fmt.Sprintf("%s %q does not match format %q", field, value, format))
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func validateDateFormat(fl validator.FieldLevel) bool {
	_, err := ParseDateFormat(fl.Field().String())
	return err == nil
}
