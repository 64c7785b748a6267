package sheet

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValue(t *testing.T) {
	testData := map[string]struct {
		cell     string
		expected float64
		nan      bool
	}{
		"integer":       {cell: "42", expected: 42},
		"decimal":       {cell: " 1.5 ", expected: 1.5},
		"negative":      {cell: "-3.25", expected: -3.25},
		"empty":         {cell: "", nan: true},
		"dash":          {cell: "-", nan: true},
		"NA":            {cell: "NA", nan: true},
		"N/A":           {cell: "N/A", nan: true},
		"text":          {cell: "abc", nan: true},
		"infinity":      {cell: "Inf", nan: true},
		"thousands sep": {cell: "1,000", nan: true},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res := ParseValue(td.cell)
			if td.nan {
				assert.True(t, math.IsNaN(res))
				return
			}
			assert.Equal(t, td.expected, res)
		})
	}
}

func TestParseDate(t *testing.T) {
	day := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	testData := map[string]struct {
		cell string
		err  error
	}{
		"iso date":       {cell: "2024-03-05"},
		"iso datetime":   {cell: "2024-03-05 13:45:00"},
		"iso T datetime": {cell: "2024-03-05T13:45:00"},
		"rfc3339":        {cell: "2024-03-05T13:45:00Z"},
		"us date":        {cell: "3/5/2024"},
		"us datetime":    {cell: "3/5/2024 08:00:00"},
		"short month":    {cell: "05 Mar 2024"},
		"long month":     {cell: "5 March 2024"},
		"padded":         {cell: "  2024-03-05  "},
		"empty":          {cell: "", err: ErrInvalidDate},
		"garbage":        {cell: "yesterday", err: ErrInvalidDate},
		"invalid day":    {cell: "2024-02-30", err: ErrInvalidDate},
		"number as date": {cell: "45356", err: ErrInvalidDate},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res, err := ParseDate(td.cell)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, day, res)
		})
	}
}

func TestParse(t *testing.T) {
	d := func(day int) time.Time {
		return time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC)
	}

	testData := map[string]struct {
		csv      string
		schema   Schema
		t        []time.Time
		columns  map[string][]float64
		err      error
		errMatch string
	}{
		"actual tab": {
			csv: "BSM_CREATED_ON,observed,trend\n" +
				"2024-01-01,10,9\n" +
				"2024-01-02,11,10\n",
			schema: ActualSchema,
			t:      []time.Time{d(1), d(2)},
			columns: map[string][]float64{
				ColObserved: {10, 11},
				ColTrend:    {9, 10},
			},
		},
		"unsorted rows are ordered": {
			csv: "BSM_CREATED_ON,prediksi_inti\n" +
				"2024-01-03,3\n" +
				"2024-01-01,1\n" +
				"2024-01-02,2\n",
			schema:  TestSchema,
			t:       []time.Time{d(1), d(2), d(3)},
			columns: map[string][]float64{ColPredicted: {1, 2, 3}},
		},
		"first duplicate wins": {
			csv: "BSM_CREATED_ON,prediksi_inti\n" +
				"2024-01-01,1\n" +
				"2024-01-01 12:00:00,5\n" +
				"2024-01-02,2\n",
			schema:  TestSchema,
			t:       []time.Time{d(1), d(2)},
			columns: map[string][]float64{ColPredicted: {1, 2}},
		},
		"bad dates skipped": {
			csv: "BSM_CREATED_ON,Train Pred\n" +
				"2024-01-01,1\n" +
				"not a date,5\n" +
				",6\n" +
				"2024-01-02,2\n",
			schema:  TrainSchema,
			t:       []time.Time{d(1), d(2)},
			columns: map[string][]float64{ColTrainPred: {1, 2}},
		},
		"bom and padded headers": {
			csv: "\ufeff BSM_CREATED_ON , prediksi_inti \n" +
				"2024-01-01,1\n",
			schema:  TestSchema,
			t:       []time.Time{d(1)},
			columns: map[string][]float64{ColPredicted: {1}},
		},
		"short rows yield NaN": {
			csv: "BSM_CREATED_ON,prediksi_inti,batas_bawah_99,batas_atas_99\n" +
				"2024-01-01,1,0,2\n" +
				"2024-01-02,2\n",
			schema: ForecastSchema,
			t:      []time.Time{d(1), d(2)},
			columns: map[string][]float64{
				ColPredicted: {1, 2},
				ColLower99:   {0, math.NaN()},
				ColUpper99:   {2, math.NaN()},
			},
		},
		"header only": {
			csv:     "BSM_CREATED_ON,observed\n",
			schema:  ActualSchema,
			t:       []time.Time{},
			columns: map[string][]float64{ColObserved: {}},
		},
		"empty body": {
			csv:    "",
			schema: ActualSchema,
			err:    ErrSchemaMismatch,
		},
		"missing required column": {
			csv:      "BSM_CREATED_ON,trend\n2024-01-01,1\n",
			schema:   ActualSchema,
			err:      ErrSchemaMismatch,
			errMatch: "observed",
		},
		"missing date column": {
			csv:      "date,prediksi_inti\n2024-01-01,1\n",
			schema:   TestSchema,
			err:      ErrSchemaMismatch,
			errMatch: DateColumn,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			tbl, err := Parse(strings.NewReader(td.csv), td.schema)
			if td.err != nil {
				require.ErrorIs(t, err, td.err)
				if td.errMatch != "" {
					assert.Contains(t, err.Error(), td.errMatch)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, td.t, tbl.T)
			require.Len(t, tbl.Columns, len(td.columns))
			for col, expected := range td.columns {
				require.True(t, tbl.Has(col), col)
				res := tbl.Columns[col]
				require.Len(t, res, len(expected))
				for i := range expected {
					if math.IsNaN(expected[i]) {
						assert.True(t, math.IsNaN(res[i]), "%s[%d]", col, i)
						continue
					}
					assert.Equal(t, expected[i], res[i], "%s[%d]", col, i)
				}
			}
		})
	}
}

func TestTableColumn(t *testing.T) {
	tbl, err := Parse(strings.NewReader("BSM_CREATED_ON,observed\n2024-01-01,1\n2024-01-02,NA\n"), ActualSchema)
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Len())

	ds, err := tbl.Column(ColObserved)
	require.NoError(t, err)
	require.Equal(t, 2, ds.Len())
	assert.Equal(t, 1.0, ds.Y[0])
	assert.True(t, math.IsNaN(ds.Y[1]))

	// returned dataset does not alias the table
	ds.Y[0] = 100
	assert.Equal(t, 1.0, tbl.Columns[ColObserved][0])

	_, err = tbl.Column(ColTrend)
	assert.ErrorIs(t, err, ErrSchemaMismatch)

	var nilTbl *Table
	assert.Equal(t, 0, nilTbl.Len())
	assert.False(t, nilTbl.Has(ColObserved))
}
