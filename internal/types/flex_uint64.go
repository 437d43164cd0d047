package types

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// FlexUint64 accepts a JSON number or a decimal string. Save requests carry
// the document version either way depending on which client code path built
// the body.
type FlexUint64 uint64

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexUint64) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}

	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("version must be a non-negative integer, got %s", data)
	}

	*f = FlexUint64(v)
	return nil
}

// MarshalJSON implements json.Marshaler. Versions always marshal as numbers.
func (f FlexUint64) MarshalJSON() ([]byte, error) {
	return json.Marshal(uint64(f))
}

// Uint64 converts FlexUint64 back to uint64.
func (f FlexUint64) Uint64() uint64 {
	return uint64(f)
}
