// Cinelog - Movie Watch History Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinelog

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordLedgerOperation(t *testing.T) {
	tests := []struct {
		name      string
		operation string
		err       error
		result    string
	}{
		{"successful replace", "replace", nil, "success"},
		{"failed increase", "increase", errors.New("boom"), "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counter := LedgerOperations.WithLabelValues(tt.operation, tt.result)
			before := testutil.ToFloat64(counter)

			RecordLedgerOperation(tt.operation, tt.err)

			if got := testutil.ToFloat64(counter); got != before+1 {
				t.Errorf("counter = %v, want %v", got, before+1)
			}
		})
	}
}

func TestRecordDBQuery(t *testing.T) {
	errCounter := DBQueryErrors.WithLabelValues("test_select")
	before := testutil.ToFloat64(errCounter)

	RecordDBQuery("test_select", 5*time.Millisecond, nil)
	if got := testutil.ToFloat64(errCounter); got != before {
		t.Errorf("successful query counted as error: %v", got)
	}

	RecordDBQuery("test_select", 5*time.Millisecond, errors.New("connection refused"))
	if got := testutil.ToFloat64(errCounter); got != before+1 {
		t.Errorf("error counter = %v, want %v", got, before+1)
	}
}

func TestRecordTMDBRequest(t *testing.T) {
	counter := TMDBRequests.WithLabelValues("movie", "200")
	before := testutil.ToFloat64(counter)

	RecordTMDBRequest("movie", "200", 120*time.Millisecond)

	if got := testutil.ToFloat64(counter); got != before+1 {
		t.Errorf("counter = %v, want %v", got, before+1)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)

	TrackActiveRequest(true)
	TrackActiveRequest(true)
	TrackActiveRequest(false)

	if got := testutil.ToFloat64(APIActiveRequests); got != before+1 {
		t.Errorf("active requests = %v, want %v", got, before+1)
	}
	TrackActiveRequest(false)
}
