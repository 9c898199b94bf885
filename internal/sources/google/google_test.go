package google

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	goption "google.golang.org/api/option"

	"spendboard/internal/sources"
)

func TestConfigA1(t *testing.T) {
	cases := []struct {
		cfg  Config
		want string
	}{
		{Config{}, "Spend!A:J"},
		{Config{SheetName: "2024 Spend"}, "2024 Spend!A:J"},
		{Config{SheetName: "Raw", Range: "A2:J500"}, "Raw!A2:J500"},
	}
	for _, tc := range cases {
		if got := tc.cfg.A1(); got != tc.want {
			t.Errorf("A1(%+v) = %q, want %q", tc.cfg, got, tc.want)
		}
	}
}

func TestRecordsFromValues(t *testing.T) {
	values := [][]interface{}{
		{"PortCo", "Invoice", "PONo", "Date", "Supplier", "Country", "Level1", "Level2", "Level3", "Amount"},
		{"Acme", "INV-1", "PO-1", "2024-01-03", "Globex", "USA", "Travel", "Air", "Economy", 1250.5},
		{"Beta", " INV-2 ", nil, "2024-02-01", "Initech"},
		{},
	}
	got := recordsFromValues(values)
	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got))
	}
	if got[0].Amount != 1250.5 || got[0].Level3 != "Economy" {
		t.Fatalf("unexpected first record: %+v", got[0])
	}
	if got[1].Invoice != "INV-2" || got[1].PONumber != "" || got[1].Amount != 0 {
		t.Fatalf("unexpected short record: %+v", got[1])
	}
	if got[2].Company != "" {
		t.Fatalf("empty row should yield defaults: %+v", got[2])
	}

	if n := len(recordsFromValues(values[:1])); n != 0 {
		t.Fatalf("header only should yield no records, got %d", n)
	}
}

func TestNewRequiresSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{})
	if !errors.Is(err, sources.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestLoadAgainstFakeAPI(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"range": "Spend!A1:J3",
			"values": [][]any{
				{"PortCo", "Invoice", "PONo", "Date", "Supplier", "Country", "Level1", "Level2", "Level3", "Amount"},
				{"Acme", "INV-1", "PO-1", "2024-01-03", "Globex", "USA", "Travel", "Air", "Economy", 10},
				{"Beta", "INV-2", "PO-2", "2024-01-04", "Initech", "UK", "IT", "Hardware", "Laptops", "20"},
			},
		})
	}))
	defer srv.Close()

	c, err := New(context.Background(), Config{SpreadsheetID: "sheet-123"},
		goption.WithEndpoint(srv.URL+"/"), goption.WithoutAuthentication(), goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	got, err := c.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 || got[0].Amount != 10 || got[1].Amount != 20 {
		t.Fatalf("unexpected records: %+v", got)
	}
	if !strings.Contains(gotPath, "sheet-123") {
		t.Fatalf("request path %q does not name the spreadsheet", gotPath)
	}
	if c.Name() != "sheets:sheet-123" {
		t.Fatalf("unexpected name %q", c.Name())
	}
}
