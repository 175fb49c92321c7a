package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

const (
	posInfText = "Infinity"
	negInfText = "-Infinity"
	nanText    = "NaN"
)

// Score is a suspiciousness value that survives a JSON round trip even when
// it is infinite, which plain float64 does not.
type Score float64

// MarshalJSON encodes finite scores as numbers and non-finite ones as strings.
func (s Score) MarshalJSON() ([]byte, error) {
	f := float64(s)

	switch {
	case math.IsInf(f, 1):
		return json.Marshal(posInfText)
	case math.IsInf(f, -1):
		return json.Marshal(negInfText)
	case math.IsNaN(f):
		return json.Marshal(nanText)
	}

	return []byte(strconv.FormatFloat(f, 'f', -1, 64)), nil
}

// UnmarshalJSON accepts both encodings produced by MarshalJSON.
func (s *Score) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		switch text {
		case posInfText:
			*s = Score(math.Inf(1))
		case negInfText:
			*s = Score(math.Inf(-1))
		case nanText:
			*s = Score(math.NaN())
		default:
			return fmt.Errorf("invalid score %q", text)
		}

		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("invalid score %s: %w", data, err)
	}

	*s = Score(f)

	return nil
}
