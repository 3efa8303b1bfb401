package testutil

import (
	"testing"
)

// SalesCSV is a small dataset accepted by the upload gate
const SalesCSV = "region,amount\nnorth,10\nsouth,20\neast,30\n"

// UploadResponseJSON is what the backend returns for SalesCSV
const UploadResponseJSON = `{
  "dataset_id": "ds-sales",
  "filename": "sales.csv",
  "storage_path": "/data/uploads/ds-sales.csv",
  "schema": {
    "nrows": 3,
    "ncols": 2,
    "columns": [
      {"name": "region", "inferred_type": "categorical", "dtype": "object", "non_null_ratio": 1.0, "sample_values": ["north", "south", "east"]},
      {"name": "amount", "inferred_type": "numeric", "dtype": "int64", "non_null_ratio": 1.0, "sample_values": [10, 20, 30]}
    ]
  },
  "preview": [
    {"region": "north", "amount": 10},
    {"region": "south", "amount": 20},
    {"region": "east", "amount": 30}
  ],
  "notes": ["Parsed with delimiter ','"]
}`

// QueryTableJSON answers with stdout, a table, a chart and the generated code
const QueryTableJSON = `{
  "ok": true,
  "stdout": "Total per region\n",
  "table": [{"region": "east", "total": 30}, {"region": "south", "total": 20}],
  "columns": ["region", "total"],
  "charts": ["/static/charts/chart-1.png"],
  "generated_code": "result = df.groupby('region')['amount'].sum()",
  "stderr": ""
}`

// QueryErrorJSON is an execution failure delivered with a 200 status
const QueryErrorJSON = `{"ok": false, "error": "Column 'price' not found", "stderr": "KeyError: 'price'"}`

// PNGBytes is a tiny stand-in for a chart image
var PNGBytes = []byte("\x89PNG\r\n\x1a\nfake")

// CreateSalesCSV writes SalesCSV into a temp dir and returns its path
func CreateSalesCSV(t *testing.T) string {
	t.Helper()
	return WriteFile(t, CreateTempDir(t), "sales.csv", []byte(SalesCSV))
}
