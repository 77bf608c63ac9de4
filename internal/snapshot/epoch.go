package snapshot

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
)

// Epoch is a Unix timestamp in seconds. Reddit reports created_utc as a
// float; it is truncated to whole seconds on decode.
type Epoch int64

// UnmarshalJSON accepts integer, float or quoted numeric values.
func (e *Epoch) UnmarshalJSON(data []byte) error {
	raw := string(bytes.Trim(bytes.TrimSpace(data), `"`))
	if raw == "" || raw == "null" {
		*e = 0
		return nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("invalid epoch %q", raw)
	}
	*e = Epoch(int64(value))
	return nil
}

// Ptr returns a pointer to a copy of e.
func (e Epoch) Ptr() *Epoch {
	return &e
}
