package reconcile

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"
)

const dateLayout = "2006-01-02"

func indentExpand(indent string, growth int) string {
	return strings.Repeat(indent, growth)
}

// TablePrint writes the metrics block for the command line.
func (m *ErrorMetrics) TablePrint(w io.Writer, prefix, indent string) error {
	if _, err := fmt.Fprintf(w, "%s%sTest Metrics:\n", prefix, indentExpand(indent, 0)); err != nil {
		return err
	}
	if m == nil {
		_, err := fmt.Fprintf(w, "%s%sNone\n", prefix, indentExpand(indent, 1))
		return err
	}

	if _, err := fmt.Fprintf(w, "%s%sOverlap: %d\n", prefix, indentExpand(indent, 1), m.Overlap); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s%sRRMSE: %.2f%%    MAE: %.3f    RMSE: %.3f\n",
		prefix, indentExpand(indent, 1),
		m.RelativeRMSE,
		m.MAE,
		m.RMSE,
	); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s%sMAPE: %.3f    R2: %.3f\n",
		prefix, indentExpand(indent, 1),
		m.MAPE,
		m.R2,
	); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%s%sMax Error: %.3f on %s\n",
		prefix, indentExpand(indent, 1),
		m.MaxErrorValue,
		m.MaxErrorDate.Format(dateLayout),
	)
	return err
}

// PrintRows writes the unified rows as an aligned table.
func PrintRows(w io.Writer, prefix string, rows []UnifiedRow) error {
	tbl := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.AlignRight)
	if _, err := fmt.Fprintf(tbl, "%sDate\tCategory\tActual\tPredicted\t\n", prefix); err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := fmt.Fprintf(tbl, "%s%s\t%s\t%s\t%s\t\n",
			prefix,
			row.Date.Format(dateLayout),
			row.Category,
			cell(row.Actual),
			cell(row.Predicted),
		); err != nil {
			return err
		}
	}
	return tbl.Flush()
}

func cell(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.3f", v)
}
