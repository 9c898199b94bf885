package http

import (
	"context"
	"log/slog"
	"net/url"
	"reflect"
	"testing"

	"spendboard/internal/core"
)

// discardHandler drops every log record.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool { return false }

func (discardHandler) Handle(context.Context, slog.Record) error { return nil }

func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler { return d }

func (d discardHandler) WithGroup(string) slog.Handler { return d }

func TestParseQuery(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantSel core.FilterSelection
		wantLvl core.Level
		wantCat string
		wantErr bool
	}{
		{name: "empty", raw: ""},
		{
			name: "repeated values",
			raw:  "companies=Acme&companies=%20Beta%20&years=2024&years=2023",
			wantSel: core.FilterSelection{
				Companies: []string{"Acme", "Beta"},
				Years:     []int{2024, 2023},
			},
		},
		{
			name:    "blank year ignored",
			raw:     "years=",
			wantSel: core.FilterSelection{},
		},
		{
			name:    "empty company kept",
			raw:     "companies=",
			wantSel: core.FilterSelection{Companies: []string{""}},
		},
		{
			name:    "level and category",
			raw:     "level=2&category=Travel",
			wantLvl: core.Level2,
			wantCat: "Travel",
		},
		{name: "bad year", raw: "years=abc", wantErr: true},
		{name: "bad level", raw: "level=9", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := url.ParseQuery(tt.raw)
			if err != nil {
				t.Fatal(err)
			}
			q, err := parseQuery(values)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseQuery() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !reflect.DeepEqual(q.Selection, tt.wantSel) {
				t.Errorf("Selection = %+v, want %+v", q.Selection, tt.wantSel)
			}
			if q.GeoLevel != tt.wantLvl || q.HeatmapCategory != tt.wantCat {
				t.Errorf("GeoLevel = %q, HeatmapCategory = %q", q.GeoLevel, q.HeatmapCategory)
			}
		})
	}
}
