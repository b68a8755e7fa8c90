package template

import (
	"testing"
	"time"

	"github.com/exception-notifier/backend/internal/model"
)

func TestRenderHeader(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	summary := SummaryDataFromModel(model.AlertSummary{
		TotalCount:  3,
		UniqueCount: 2,
		WindowStart: start,
		WindowEnd:   start.Add(5 * time.Minute),
	})

	tests := []struct {
		name    string
		body    string
		app     *AppData
		summary *SummaryData
		want    string
	}{
		{
			name:    "all-variables",
			body:    "{{summary.unique}}/{{summary.total}} in {{app.name}} ({{app.resource_group}}) {{window.start}}..{{window.end}}",
			app:     &AppData{Name: "orders-ai", ResourceGroup: "rg-prod"},
			summary: &summary,
			want:    "2/3 in orders-ai (rg-prod) 2024-01-01T00:00:00Z..2024-01-01T00:05:00Z",
		},
		{
			name: "nil-data-blank",
			body: "[{{app.name}}][{{summary.total}}]",
			want: "[][]",
		},
		{
			name:    "unknown-variable-kept",
			body:    "{{app.unknown}} {{summary.total}}",
			summary: &summary,
			want:    "{{app.unknown}} 3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RenderHeader(tt.body, tt.app, tt.summary); got != tt.want {
				t.Fatalf("RenderHeader() = %q, want %q", got, tt.want)
			}
		})
	}
}
