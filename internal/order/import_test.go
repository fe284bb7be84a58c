package order

import "testing"

func TestParseImportRows(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		rows     [][]string
		wantRows int
		wantBad  int
	}{
		{
			name:     "header skipped",
			rows:     [][]string{{"SKU", "Quantity"}, {"WID-1", "5"}},
			wantRows: 1,
		},
		{
			name:     "no header",
			rows:     [][]string{{"WID-1", "5"}, {"GAD-1", "2"}},
			wantRows: 2,
		},
		{
			name:     "blank rows ignored",
			rows:     [][]string{{"WID-1", "5"}, {""}, {}, {"GAD-1", "1"}},
			wantRows: 2,
		},
		{
			name:    "missing quantity column",
			rows:    [][]string{{"WID-1"}},
			wantBad: 1,
		},
		{
			name:    "non numeric quantity",
			rows:    [][]string{{"WID-1", "lots"}},
			wantBad: 1,
		},
		{
			name:    "zero and negative quantities",
			rows:    [][]string{{"WID-1", "0"}, {"GAD-1", "-3"}},
			wantBad: 2,
		},
		{
			name:     "mixed good and bad",
			rows:     [][]string{{"PRODUCT SKU", "QTY"}, {"WID-1", "5"}, {"GAD-1", "x"}},
			wantRows: 1,
			wantBad:  1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, bad := parseImportRows(tt.rows)
			if len(parsed) != tt.wantRows {
				t.Fatalf("parsed = %d rows, want %d", len(parsed), tt.wantRows)
			}
			if len(bad) != tt.wantBad {
				t.Fatalf("bad = %d rows, want %d", len(bad), tt.wantBad)
			}
		})
	}
}

func TestParseImportRowsTrimsFields(t *testing.T) {
	t.Parallel()

	parsed, bad := parseImportRows([][]string{{"  WID-1  ", " 5 "}})
	if len(bad) != 0 {
		t.Fatalf("bad rows: %+v", bad)
	}
	if len(parsed) != 1 || parsed[0].SKU != "WID-1" || parsed[0].Quantity != 5 {
		t.Fatalf("parsed = %+v", parsed)
	}
}
