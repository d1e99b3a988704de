// Package codec decodes the three wire shapes carried by the recall
// transaction-log topics: plain JSON, NVFIX (SOH-delimited tag=value
// pairs), and the hybrid form of a JSON object followed by trailing
// SOH metadata. It also encodes NVFIX for outbound requests.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// SOH is the NVFIX field delimiter, U+0001.
const SOH = '\x01'

// ParsingError wraps a malformed wire payload. The original message is
// retained so operators can correlate the drop with the source stream.
type ParsingError struct {
	Raw []byte
	Err error
}

func (e *ParsingError) Error() string {
	return fmt.Sprintf("parsing message %q: %v", e.Raw, e.Err)
}

func (e *ParsingError) Unwrap() error { return e.Err }

func parseErrf(raw []byte, format string, args ...interface{}) error {
	return &ParsingError{Raw: append([]byte(nil), raw...), Err: fmt.Errorf(format, args...)}
}

// DecodeJSON decodes a standard JSON object into |target|.
func DecodeJSON(data []byte, target interface{}) error {
	if err := json.Unmarshal(data, target); err != nil {
		return &ParsingError{Raw: append([]byte(nil), data...), Err: err}
	}
	return nil
}

// Decode inspects |data| and routes it through the JSON, NVFIX, or
// hybrid parser. A message starting with '{' and containing at least
// one SOH is hybrid; starting with '{' without SOH is JSON; anything
// else is NVFIX.
func Decode(data []byte, target interface{}) error {
	var trimmed = bytes.TrimSpace(data)
	if len(trimmed) != 0 && trimmed[0] == '{' {
		if bytes.IndexByte(trimmed, SOH) >= 0 {
			return DecodeHybrid(trimmed, target)
		}
		return DecodeJSON(trimmed, target)
	}
	return ParseNVFIX(data, target)
}
