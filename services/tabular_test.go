package services

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestCanonicalColumns(t *testing.T) {
	cols := DefaultColumns.Measurement

	name, ok := cols.Canonical("\ufeffID")
	require.True(t, ok)
	assert.Equal(t, "plant_code", name)

	name, ok = cols.Canonical(" Yield/plant ")
	require.True(t, ok)
	assert.Equal(t, "yield_per_plant", name)

	name, ok = cols.Canonical("Petiole_Length")
	require.True(t, ok)
	assert.Equal(t, "petiole_length", name)

	_, ok = cols.Canonical("cumulative_ripe")
	assert.False(t, ok)
	_, ok = cols.Canonical("  ")
	assert.False(t, ok)
}

func TestLoadColumnMapping(t *testing.T) {
	mapping, err := LoadColumnMapping([]byte("measurement:\n  aliases:\n    Plant: plant_code\n  ignored: [Notes]\n"))
	require.NoError(t, err)

	name, ok := mapping.Measurement.Canonical("Plant")
	require.True(t, ok)
	assert.Equal(t, "plant_code", name)
	_, ok = mapping.Measurement.Canonical("Notes")
	assert.False(t, ok)

	_, err = LoadColumnMapping([]byte("measurement: [unclosed"))
	assert.Error(t, err)
}

func TestReadCSVSkipsBlankRows(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader("ID,Date,Mass\nAA11, 20250506 ,[1]\n,,\nBB22,20250507\n"), DefaultColumns.Measurement)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, Row{"plant_code": "AA11", "date": "20250506", "mass": "[1]"}, rows[0])
	assert.Equal(t, "BB22", rows[1]["plant_code"])
	_, hasMass := rows[1]["mass"]
	assert.False(t, hasMass)
}

func TestReadRowsXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"ID", "Date", "Variety", "Ripe"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"AA11", "20250506", "Falco", 3}))
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, f.Close())

	rows, err := ReadRows("traits.XLSX", &buf, DefaultColumns.Measurement)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, Row{"plant_code": "AA11", "date": "20250506", "variety": "Falco"}, rows[0])
}

func TestReadRowsRejectsOtherFormats(t *testing.T) {
	_, err := ReadRows("traits.json", strings.NewReader("{}"), DefaultColumns.Measurement)
	assert.ErrorIs(t, err, ErrBadRequest)
	assert.EqualError(t, err, "Only CSV or XLSX files are allowed")

	_, err = ReadRows("empty.csv", strings.NewReader(""), DefaultColumns.Measurement)
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestTemplateRoundTrip(t *testing.T) {
	require.Len(t, TemplateSample, len(TemplateHeader))

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, TemplateHeader, [][]string{TemplateSample}))

	rows, err := ReadCSV(&buf, DefaultColumns.Measurement)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	rec, err := parseImportRow(0, rows[0])
	require.NoError(t, err)
	assert.Equal(t, "AA11", rec.plantCode)
	assert.Empty(t, rec.fruits)
	assert.Equal(t, 6, *rec.traits.Unripe)
	assert.InDelta(t, 39.499, *rec.traits.Exg, 1e-9)
}
