package file

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"datacheck/domain/dataset"
	"datacheck/internal"
	"datacheck/internal/errors"
)

func quietOptions() Options {
	return Options{Logger: internal.NewLogger(internal.LogLevelError)}
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func drainRows(t *testing.T, r *DataReader) []dataset.Row {
	t.Helper()
	ctx := context.Background()
	var rows []dataset.Row
	for {
		row, err := r.Next(ctx)
		if stderrors.Is(err, io.EOF) {
			return rows
		}
		require.NoError(t, err)
		rows = append(rows, row)
	}
}

func TestOpenCSVInfersKinds(t *testing.T) {
	path := writeCSV(t, strings.Join([]string{
		"amount,city,note",
		"10.5,amsterdam,first",
		"11.0,utrecht,2",
		"9.25,delft,third",
		"12.75,leiden,4",
	}, "\n"))

	r, err := Open(path, quietOptions())
	require.NoError(t, err)
	defer r.Close()

	schema := r.Schema()
	require.Equal(t, 3, schema.Width())

	amount, _ := schema.Column("amount")
	assert.Equal(t, dataset.KindNumeric, amount.Kind)
	city, _ := schema.Column("city")
	assert.Equal(t, dataset.KindCategorical, city.Kind)
	// note is half numeric, below the 90% bar
	note, _ := schema.Column("note")
	assert.Equal(t, dataset.KindCategorical, note.Kind)

	rows := drainRows(t, r)
	require.Len(t, rows, 4)
	assert.InDelta(t, 10.5, rows[0][0].AsFloat64(), 1e-12)
	assert.Equal(t, "amsterdam", rows[0][1].AsString())
}

func TestCSVMissingMarkers(t *testing.T) {
	path := writeCSV(t, strings.Join([]string{
		"amount,city",
		"1.0,NA",
		"null,x",
		"3.0,n/a",
		"NaN,y",
		",NONE",
	}, "\n"))

	r, err := Open(path, quietOptions())
	require.NoError(t, err)
	defer r.Close()

	rows := drainRows(t, r)
	require.Len(t, rows, 5)

	var amountMissing, cityMissing int
	for _, row := range rows {
		if row[0].IsMissing {
			amountMissing++
		}
		if row[1].IsMissing {
			cityMissing++
		}
	}
	assert.Equal(t, 3, amountMissing, "null, NaN and empty are missing")
	assert.Equal(t, 3, cityMissing, "NA, n/a and NONE are missing")
}

func TestCSVStreamsPastInferenceWindow(t *testing.T) {
	var b strings.Builder
	b.WriteString("v\n")
	for i := 0; i < 300; i++ {
		fmt.Fprintf(&b, "%d\n", i)
	}
	path := writeCSV(t, b.String())

	r, err := Open(path, quietOptions())
	require.NoError(t, err)
	defer r.Close()

	rows := drainRows(t, r)
	require.Len(t, rows, 300)
	assert.InDelta(t, 299, rows[299][0].AsFloat64(), 1e-12)
}

func TestCSVRaggedRecordPassedThrough(t *testing.T) {
	path := writeCSV(t, strings.Join([]string{
		"a,b,c",
		"1,2,3",
		"4,5",
		"6,7,8",
	}, "\n"))

	r, err := Open(path, quietOptions())
	require.NoError(t, err)
	defer r.Close()

	rows := drainRows(t, r)
	require.Len(t, rows, 3)
	assert.Len(t, rows[0], 3)
	assert.Len(t, rows[1], 2, "short record keeps its width for downstream reporting")
}

func TestLabelColumnsForcedCategorical(t *testing.T) {
	path := writeCSV(t, strings.Join([]string{
		"amount,label",
		"1.5,0",
		"2.5,1",
		"3.5,0",
	}, "\n"))

	opts := quietOptions()
	opts.LabelColumns = []string{"label"}
	r, err := Open(path, opts)
	require.NoError(t, err)
	defer r.Close()

	label, _ := r.Schema().Column("label")
	assert.Equal(t, dataset.KindCategorical, label.Kind)

	rows := drainRows(t, r)
	assert.Equal(t, "0", rows[0][1].AsString())
}

func TestKindOverridesWinOverInference(t *testing.T) {
	path := writeCSV(t, strings.Join([]string{
		"amount,code",
		"1.5,7",
		"2.5,9",
	}, "\n"))

	opts := quietOptions()
	opts.KindOverrides = map[string]dataset.ColumnKind{"code": dataset.KindCategorical}
	r, err := Open(path, opts)
	require.NoError(t, err)
	defer r.Close()

	code, _ := r.Schema().Column("code")
	assert.Equal(t, dataset.KindCategorical, code.Kind)
}

func TestKindOverrideUnknownColumnFails(t *testing.T) {
	path := writeCSV(t, "a\n1\n")

	opts := quietOptions()
	opts.KindOverrides = map[string]dataset.ColumnKind{"missing_col": dataset.KindNumeric}
	_, err := Open(path, opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing_col")
}

func TestCSVHeaderOnly(t *testing.T) {
	path := writeCSV(t, "a,b\n")

	r, err := Open(path, quietOptions())
	require.NoError(t, err)
	defer r.Close()

	a, _ := r.Schema().Column("a")
	assert.Equal(t, dataset.KindCategorical, a.Kind, "no sample defaults to categorical")
	assert.Empty(t, drainRows(t, r))
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "absent.csv"), quietOptions())
	require.Error(t, err)
	assert.Equal(t, errors.CodeIngestFailed, errors.CodeOf(err))
}

func TestXLSXReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.xlsx")

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"amount", "city"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{10.5, "amsterdam"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]interface{}{11.25, "utrecht"}))
	// trailing empty cell: excelize drops it on read
	require.NoError(t, f.SetSheetRow("Sheet1", "A4", &[]interface{}{12.0}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	r, err := Open(path, quietOptions())
	require.NoError(t, err)
	defer r.Close()

	require.Equal(t, 2, r.Schema().Width())
	amount, _ := r.Schema().Column("amount")
	assert.Equal(t, dataset.KindNumeric, amount.Kind)

	rows := drainRows(t, r)
	require.Len(t, rows, 3)
	assert.Len(t, rows[2], 2, "short sheet row padded to schema width")
	assert.True(t, rows[2][1].IsMissing)
	assert.InDelta(t, 10.5, rows[0][0].AsFloat64(), 1e-12)
	assert.Equal(t, "utrecht", rows[1][1].AsString())
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatXLSX, DetectFormat("data.xlsx"))
	assert.Equal(t, FormatCSV, DetectFormat("data.csv"))
	assert.Equal(t, FormatCSV, DetectFormat("data.txt"))
}

func TestParseFormat(t *testing.T) {
	got, err := ParseFormat("XLSX")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, got)

	got, err = ParseFormat("auto")
	require.NoError(t, err)
	assert.Equal(t, Format(""), got)

	_, err = ParseFormat("parquet")
	require.Error(t, err)
}
