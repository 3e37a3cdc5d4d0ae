package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV_HeaderAndFieldSelection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")

	rows := []Row{
		{
			"JobID":          "J1",
			"Order - Number": "N1",
			"Item - SKU":     "SKU1",
			"Order Status":   "Shipped", // not in the audit schema: dropped
		},
		{
			"JobID": "J1",
			// everything else absent: serialized as empty strings
		},
	}

	require.NoError(t, WriteCSV(rows, AuditSchema, path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, AuditSchema.Columns, records[0])
	assert.Equal(t, "J1", records[1][0])
	assert.Equal(t, "N1", records[1][1])
	assert.Equal(t, "SKU1", records[1][5])
	for _, field := range records[2][1:] {
		assert.Equal(t, "", field)
	}
	// The out-of-schema field must not appear anywhere.
	for _, rec := range records[1:] {
		assert.NotContains(t, rec, "Shipped")
	}
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roundtrip.csv")

	order := testOrder(testItem("A", "2"), testItem("B", "1"))
	rows := Flatten(order, testContext())

	require.NoError(t, WriteCSV(rows, PartnerSchema, path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, len(rows)+1)

	header := records[0]
	for i, rec := range records[1:] {
		for j, col := range header {
			assert.Equal(t, rows[i][col], rec[j], "column %q of row %d", col, i)
		}
	}
}

func TestWriteCSV_NoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")

	require.NoError(t, WriteCSV([]Row{{"JobID": "J1"}}, AuditSchema, path))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "out.csv", entries[0].Name())
}

func TestWriteCSV_QuotedFieldsSurvive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quoted.csv")

	rows := []Row{{
		"JobID":     "J1",
		"Item Name": `Widget, "Deluxe"` + "\nsecond line",
	}}

	require.NoError(t, WriteCSV(rows, AuditSchema, path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	idx := -1
	for i, col := range AuditSchema.Columns {
		if col == "Item Name" {
			idx = i
		}
	}
	require.GreaterOrEqual(t, idx, 0)
	assert.Equal(t, `Widget, "Deluxe"`+"\nsecond line", records[1][idx])
}

func TestSchemaByName(t *testing.T) {
	assert.Equal(t, "partner", SchemaByName("partner").Name)
	assert.Equal(t, "audit", SchemaByName("audit").Name)
	assert.Equal(t, "audit", SchemaByName("unknown").Name)
}
