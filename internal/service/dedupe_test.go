package service

import (
	"testing"
	"time"

	"github.com/exception-notifier/backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestDeduplicateKeepsEarliestPerOperation(t *testing.T) {
	records := []model.ErrorRecord{
		{Timestamp: at("2024-01-01T00:00:00Z"), ErrorType: "E1", OperationID: "op1"},
		{Timestamp: at("2024-01-01T00:00:05Z"), ErrorType: "E2", OperationID: "op1"},
		{Timestamp: at("2024-01-01T00:00:02Z"), ErrorType: "E3", OperationID: "op2"},
	}

	reps := Deduplicate(records)

	require.Len(t, reps, 2)
	assert.Equal(t, "op1", reps[0].OperationID)
	assert.Equal(t, "E1", reps[0].ErrorType)
	assert.Equal(t, "op2", reps[1].OperationID)
	assert.Equal(t, 2, countOperations(records))
}

func TestDeduplicateUnorderedInput(t *testing.T) {
	records := []model.ErrorRecord{
		{Timestamp: at("2024-01-01T00:00:09Z"), ErrorType: "late", OperationID: "op1"},
		{Timestamp: at("2024-01-01T00:00:03Z"), ErrorType: "other", OperationID: "op2"},
		{Timestamp: at("2024-01-01T00:00:01Z"), ErrorType: "early", OperationID: "op1"},
	}

	reps := Deduplicate(records)

	require.Len(t, reps, 2)
	assert.Equal(t, "early", reps[0].ErrorType)
	assert.Equal(t, "op2", reps[1].OperationID)
	// 입력은 변경되지 않음
	assert.Equal(t, "late", records[0].ErrorType)
}

func TestDeduplicateEmpty(t *testing.T) {
	reps := Deduplicate(nil)
	assert.NotNil(t, reps)
	assert.Empty(t, reps)
}

func TestDeduplicateProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 40).Draw(t, "n")
		base := at("2024-01-01T00:00:00Z")
		records := make([]model.ErrorRecord, n)
		for i := range records {
			records[i] = model.ErrorRecord{
				Timestamp:   base.Add(time.Duration(rapid.IntRange(0, 20).Draw(t, "offset")) * time.Second),
				OperationID: rapid.SampledFrom([]string{"a", "b", "c", "d", ""}).Draw(t, "op"),
				ErrorType:   rapid.StringMatching(`[A-Z][a-z]{0,5}`).Draw(t, "type"),
			}
		}

		reps := Deduplicate(records)

		if len(reps) != countOperations(records) {
			t.Fatalf("expected %d representatives, got %d", countOperations(records), len(reps))
		}

		seen := map[string]bool{}
		for i, rep := range reps {
			if seen[rep.OperationID] {
				t.Fatalf("operation %q appears twice", rep.OperationID)
			}
			seen[rep.OperationID] = true
			if i > 0 && rep.Timestamp.Before(reps[i-1].Timestamp) {
				t.Fatalf("representatives not in timestamp order at %d", i)
			}

			// 같은 operation 중 가장 이른 레코드, 동률이면 입력 순서상 처음
			var first *model.ErrorRecord
			for j := range records {
				r := &records[j]
				if r.OperationID != rep.OperationID {
					continue
				}
				if first == nil || r.Timestamp.Before(first.Timestamp) {
					first = r
				}
			}
			if first == nil || *first != rep {
				t.Fatalf("representative for %q is not the earliest record", rep.OperationID)
			}
		}
	})
}
