package codec

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// ParseHybrid parses a hybrid message: a JSON object immediately
// followed by SOH-delimited key=value metadata. The metadata keys are
// lower-cased and merged into the decoded object, with numeric-looking
// values promoted (pure digits to int64, digits-dot-digits to float64).
func ParseHybrid(data []byte) (map[string]interface{}, error) {
	var end, err = scanJSONObject(data)
	if err != nil {
		return nil, parseErrf(data, "isolating JSON object: %w", err)
	}

	var doc map[string]interface{}
	if err = json.Unmarshal(data[:end], &doc); err != nil {
		return nil, parseErrf(data, "decoding JSON object: %w", err)
	}

	var tail = bytes.TrimLeft(data[end:], string(SOH))
	if err = eachNVPair(tail, func(tag, value string) error {
		doc[tag] = promote(value)
		return nil
	}); err != nil {
		return nil, err
	}
	return doc, nil
}

// DecodeHybrid parses a hybrid message and decodes the merged object
// into |target|. Metadata keys rely on encoding/json's case-insensitive
// field matching to land on their struct fields.
func DecodeHybrid(data []byte, target interface{}) error {
	var doc, err = ParseHybrid(data)
	if err != nil {
		return err
	}
	merged, err := json.Marshal(doc)
	if err != nil {
		return parseErrf(data, "re-encoding merged object: %w", err)
	}
	if err = json.Unmarshal(merged, target); err != nil {
		return parseErrf(data, "decoding merged object: %w", err)
	}
	return nil
}

// scanJSONObject returns the index just past the top-level JSON object
// opening at data[0]. Double-quoted strings and backslash escapes are
// respected while tracking brace depth.
func scanJSONObject(data []byte) (int, error) {
	if len(data) == 0 || data[0] != '{' {
		return 0, errNotAnObject
	}
	var depth, i int
	for i = 0; i < len(data); i++ {
		switch data[i] {
		case '{':
			depth++
		case '}':
			if depth--; depth == 0 {
				return i + 1, nil
			}
		case '"':
			for i++; i < len(data); i++ {
				if data[i] == '\\' {
					i++ // Skip the escaped byte.
				} else if data[i] == '"' {
					break
				}
			}
			if i == len(data) {
				return 0, errUnterminatedString
			}
		}
	}
	return 0, errUnbalancedBraces
}

var (
	errNotAnObject        = jsonScanError("message does not begin with a JSON object")
	errUnterminatedString = jsonScanError("unterminated string literal")
	errUnbalancedBraces   = jsonScanError("unbalanced braces")
)

type jsonScanError string

func (e jsonScanError) Error() string { return string(e) }

// promote maps an NVFIX metadata value onto its JSON representation:
// pure digits become int64, digit-dot-digit becomes float64, and
// anything else stays a string.
func promote(value string) interface{} {
	if value == "" {
		return value
	}
	var digits, dots int
	for _, r := range value {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.':
			dots++
		default:
			return value
		}
	}
	if dots == 0 {
		if v, err := strconv.ParseInt(value, 10, 64); err == nil {
			return v
		}
		return value
	}
	if dots == 1 && digits > 0 && !strings.HasPrefix(value, ".") && !strings.HasSuffix(value, ".") {
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			return v
		}
	}
	return value
}
