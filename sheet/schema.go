package sheet

import (
	"fmt"
	"strings"
)

// Column names used by the forecast spreadsheet tabs.
const (
	DateColumn = "BSM_CREATED_ON"

	ColObserved  = "observed"
	ColTrend     = "trend"
	ColSeasonal  = "seasonal"
	ColResid     = "resid"
	ColTrainPred = "Train Pred"
	ColPredicted = "prediksi_inti"
	ColLower99   = "batas_bawah_99"
	ColUpper99   = "batas_atas_99"
)

// Schema names the columns a tab must and may carry. Every non-date column is parsed as a
// number.
type Schema struct {
	Name       string
	DateColumn string
	Required   []string
	Optional   []string
}

var (
	ActualSchema = Schema{
		Name:       "actual",
		DateColumn: DateColumn,
		Required:   []string{ColObserved},
		Optional:   []string{ColTrend, ColSeasonal, ColResid},
	}
	TrainSchema = Schema{
		Name:       "train",
		DateColumn: DateColumn,
		Required:   []string{ColTrainPred},
	}
	TestSchema = Schema{
		Name:       "test",
		DateColumn: DateColumn,
		Required:   []string{ColPredicted},
	}
	// ForecastSchema keeps the bounds optional so a forecast without them still yields its
	// center line.
	ForecastSchema = Schema{
		Name:       "forecast",
		DateColumn: DateColumn,
		Required:   []string{ColPredicted},
		Optional:   []string{ColLower99, ColUpper99},
	}
)

// Check returns ErrSchemaMismatch listing every expected column absent from header.
func (s Schema) Check(header map[string]int) error {
	var missing []string
	if _, exists := header[s.DateColumn]; !exists {
		missing = append(missing, s.DateColumn)
	}
	for _, col := range s.Required {
		if _, exists := header[col]; !exists {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s tab is missing columns [%s], %w", s.Name, strings.Join(missing, ", "), ErrSchemaMismatch)
	}
	return nil
}
