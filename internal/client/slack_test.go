package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/exception-notifier/backend/internal/model"
)

func TestFormatExceptionAlertEmpty(t *testing.T) {
	msg := FormatExceptionAlert(nil, 0, 0, AlertFormatOptions{})

	if len(msg.Blocks) != fixedAlertBlocks {
		t.Fatalf("expected %d blocks, got %d", fixedAlertBlocks, len(msg.Blocks))
	}
	summary := msg.Blocks[2]
	if summary.Type != "section" || len(summary.Fields) != 2 {
		t.Fatalf("unexpected summary block: %+v", summary)
	}
	if got := summary.Fields[0].Text; got != "*Total Errors:*\n0" {
		t.Fatalf("total field = %q", got)
	}
	if got := summary.Fields[1].Text; got != "*Unique Operations:*\n0" {
		t.Fatalf("unique field = %q", got)
	}
	if msg.Blocks[0].Text.Text != defaultAlertHeader {
		t.Fatalf("header = %q", msg.Blocks[0].Text.Text)
	}
}

func TestFormatExceptionAlertLayout(t *testing.T) {
	reps := []model.ErrorRecord{
		{OperationID: "op1", ErrorType: "System.NullReferenceException", Link: "https://portal/op1"},
		{OperationID: "op2", ErrorType: "Timeout <db>", Link: "https://portal/op2"},
	}

	msg := FormatExceptionAlert(reps, 3, 2, AlertFormatOptions{Header: "prod errors"})

	wantTypes := []string{"header", "divider", "section", "divider", "section", "section", "section"}
	if len(msg.Blocks) != len(wantTypes) {
		t.Fatalf("expected %d blocks, got %d", len(wantTypes), len(msg.Blocks))
	}
	for i, want := range wantTypes {
		if msg.Blocks[i].Type != want {
			t.Fatalf("block %d type = %q, want %q", i, msg.Blocks[i].Type, want)
		}
	}

	row := msg.Blocks[5]
	if row.Fields[0].Text != "System.NullReferenceException" {
		t.Fatalf("row error type = %q", row.Fields[0].Text)
	}
	if row.Fields[1].Text != "<https://portal/op1|op1>" {
		t.Fatalf("row link = %q", row.Fields[1].Text)
	}
	if got := msg.Blocks[6].Fields[0].Text; got != "Timeout &lt;db&gt;" {
		t.Fatalf("escaped error type = %q", got)
	}
	if msg.Blocks[2].Fields[0].Text != "*Total Errors:*\n3" {
		t.Fatalf("total field = %q", msg.Blocks[2].Fields[0].Text)
	}
	if !strings.HasPrefix(msg.Text, "prod errors") {
		t.Fatalf("fallback text = %q", msg.Text)
	}
}

func TestFormatExceptionAlertBlockLimit(t *testing.T) {
	reps := make([]model.ErrorRecord, 60)
	for i := range reps {
		reps[i] = model.ErrorRecord{OperationID: "op", ErrorType: "E"}
	}

	msg := FormatExceptionAlert(reps, 60, 60, AlertFormatOptions{})

	if len(msg.Blocks) != maxSlackBlocks {
		t.Fatalf("expected %d blocks, got %d", maxSlackBlocks, len(msg.Blocks))
	}
	last := msg.Blocks[len(msg.Blocks)-1]
	if last.Type != "context" || last.Elements[0].Text != "…and 16 more operations" {
		t.Fatalf("unexpected overflow block: %+v", last)
	}
}

func TestFormatExceptionAlertExactlyFitsWithoutOverflow(t *testing.T) {
	reps := make([]model.ErrorRecord, maxAlertRowsNoSpill)
	msg := FormatExceptionAlert(reps, len(reps), len(reps), AlertFormatOptions{})
	if len(msg.Blocks) != maxSlackBlocks {
		t.Fatalf("expected %d blocks, got %d", maxSlackBlocks, len(msg.Blocks))
	}
	if msg.Blocks[len(msg.Blocks)-1].Type != "section" {
		t.Fatalf("expected no overflow block")
	}
}

func TestSlackWebhookSend(t *testing.T) {
	var received SlackBlockMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("content-type = %q", r.Header.Get("Content-Type"))
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode: %v", err)
		}
		_, _ = io.WriteString(w, "ok")
	}))
	defer srv.Close()

	c := NewSlackWebhookClient(srv.URL)
	summary := model.AlertSummary{
		TotalCount:      1,
		UniqueCount:     1,
		Representatives: []model.ErrorRecord{{OperationID: "op1", ErrorType: "E", Timestamp: time.Now()}},
	}
	resp, err := c.SendExceptionAlert(context.Background(), summary, AlertFormatOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK || string(resp.Body) != "ok" {
		t.Fatalf("unexpected response: %d %q", resp.StatusCode, resp.Body)
	}
	if len(received.Blocks) != fixedAlertBlocks+1 {
		t.Fatalf("webhook received %d blocks", len(received.Blocks))
	}
}

func TestSlackWebhookSendNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, "invalid_blocks")
	}))
	defer srv.Close()

	resp, err := NewSlackWebhookClient(srv.URL).Send(context.Background(), map[string]string{"text": "x"})
	if !errors.Is(err, ErrWebhookStatus) {
		t.Fatalf("expected ErrWebhookStatus, got %v", err)
	}
	if resp == nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected response with status 400, got %+v", resp)
	}
	if !strings.Contains(err.Error(), "invalid_blocks") {
		t.Fatalf("error should carry body: %v", err)
	}
}

func TestSlackWebhookPostRawNotConfigured(t *testing.T) {
	if _, err := NewSlackWebhookClient("").PostRaw(context.Background(), []byte(`{}`)); err == nil {
		t.Fatalf("expected error for missing webhook url")
	}
}
