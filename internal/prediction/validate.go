// internal/prediction/validate.go
package prediction

import (
	"fmt"
	"math"
	"sort"

	"github.com/xkilldash9x/scaletuner/api/schemas"
)

// ValidatePrediction checks a named prediction against declared ranges. A
// dimension violates when it is missing, not finite, or outside its
// inclusive range. Confidence is the share of declared dimensions that
// passed; with nothing declared the prediction is trivially valid.
func ValidatePrediction(pred map[string]float64, ranges map[string]schemas.ValueRange) (*schemas.PredictionValidation, error) {
	if pred == nil {
		return nil, fmt.Errorf("validate prediction: prediction map is required")
	}

	v := &schemas.PredictionValidation{IsValid: true, Confidence: 1}
	if len(ranges) == 0 {
		return v, nil
	}

	names := make([]string, 0, len(ranges))
	for name := range ranges {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		r := ranges[name]
		val, ok := pred[name]
		if !ok || math.IsNaN(val) || math.IsInf(val, 0) || val < r.Min || val > r.Max {
			v.Violations = append(v.Violations, name)
		}
	}

	v.IsValid = len(v.Violations) == 0
	v.Confidence = 1 - float64(len(v.Violations))/float64(len(names))
	return v, nil
}
