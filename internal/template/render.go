// Package template provides Slack alert header template rendering.
//
// 지원하는 변수 형식:
//
//	{{app.name}}, {{app.resource_group}}
//
//	{{summary.total}}, {{summary.unique}},
//	{{window.start}}, {{window.end}}
package template

import (
	"strconv"
	"strings"
	"time"

	"github.com/exception-notifier/backend/internal/model"
)

// AppData - 템플릿 렌더링에 사용할 Application Insights 리소스 데이터
type AppData struct {
	Name          string
	ResourceGroup string
}

// SummaryData - 템플릿 렌더링에 사용할 알림 집계 데이터
type SummaryData struct {
	Total       int
	Unique      int
	WindowStart time.Time
	WindowEnd   time.Time
}

// SummaryDataFromModel - model.AlertSummary에서 SummaryData 생성
func SummaryDataFromModel(summary model.AlertSummary) SummaryData {
	return SummaryData{
		Total:       summary.TotalCount,
		Unique:      summary.UniqueCount,
		WindowStart: summary.WindowStart,
		WindowEnd:   summary.WindowEnd,
	}
}

// RenderHeader - 헤더 템플릿의 변수를 실제 값으로 치환
//
// nil로 전달된 항목의 변수는 빈 문자열로 치환됩니다.
func RenderHeader(body string, app *AppData, summary *SummaryData) string {
	pairs := make([]string, 0, 12)

	// --- App 변수 ---
	if app != nil {
		pairs = append(pairs,
			"{{app.name}}", app.Name,
			"{{app.resource_group}}", app.ResourceGroup,
		)
	} else {
		pairs = append(pairs,
			"{{app.name}}", "",
			"{{app.resource_group}}", "",
		)
	}

	// --- Summary 변수 ---
	if summary != nil {
		pairs = append(pairs,
			"{{summary.total}}", strconv.Itoa(summary.Total),
			"{{summary.unique}}", strconv.Itoa(summary.Unique),
			"{{window.start}}", formatTime(summary.WindowStart),
			"{{window.end}}", formatTime(summary.WindowEnd),
		)
	} else {
		pairs = append(pairs,
			"{{summary.total}}", "",
			"{{summary.unique}}", "",
			"{{window.start}}", "",
			"{{window.end}}", "",
		)
	}

	return strings.NewReplacer(pairs...).Replace(body)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
