package univerify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sethvargo/go-retry"
)

// countWaits wraps confirmationBackoff and counts the waits between fetches.
func countWaits(t *testing.T) *int {
	t.Helper()
	waits := 0
	orig := confirmationBackoff
	confirmationBackoff = func(maxRetries int, delay time.Duration) retry.Backoff {
		b := orig(maxRetries, delay)
		return retry.BackoffFunc(func() (time.Duration, bool) {
			d, stop := b.Next()
			if !stop {
				waits++
			}
			return d, stop
		})
	}
	t.Cleanup(func() { confirmationBackoff = orig })
	return &waits
}

// transactionServer answers transaction lookups with the status returned by
// statusFor for each 1-based fetch. An empty status answers HTTP 500.
func transactionServer(t *testing.T, fetches *atomic.Int32, statusFor func(n int) string) *Client {
	t.Helper()
	return newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/upload/transaction/0xabc" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		n := int(fetches.Add(1))
		status := statusFor(n)
		if status == "" {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "message": "rpc unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data": map[string]any{
				"transaction": map[string]any{
					"hash":        "0xabc",
					"blockNumber": 1234,
					"status":      status,
					"timestamp":   1700000000,
				},
			},
		})
	}, "jwt-token", nil)
}

func TestWaitForConfirmation_ConfirmedOnAttemptK(t *testing.T) {
	for _, k := range []int{1, 3, 5} {
		t.Run(fmt.Sprintf("confirmed on attempt %d", k), func(t *testing.T) {
			waits := countWaits(t)
			var fetches atomic.Int32
			client := transactionServer(t, &fetches, func(n int) string {
				if n >= k {
					return StatusConfirmed
				}
				return StatusPending
			})

			tx, err := client.WaitForConfirmation(context.Background(), "0xabc", ConfirmOptions{MaxRetries: 5})
			if err != nil {
				t.Fatalf("WaitForConfirmation error: %v", err)
			}
			if !tx.Confirmed() {
				t.Errorf("Status = %q, want confirmed", tx.Status)
			}
			if tx.BlockNumber != 1234 {
				t.Errorf("BlockNumber = %d, want 1234", tx.BlockNumber)
			}
			if got := int(fetches.Load()); got != k {
				t.Errorf("fetches = %d, want %d", got, k)
			}
			if *waits != k-1 {
				t.Errorf("waits = %d, want %d", *waits, k-1)
			}
		})
	}
}

func TestWaitForConfirmation_Timeout(t *testing.T) {
	waits := countWaits(t)
	var fetches atomic.Int32
	client := transactionServer(t, &fetches, func(int) string { return StatusPending })

	_, err := client.WaitForConfirmation(context.Background(), "0xabc", ConfirmOptions{MaxRetries: 4})

	var timeoutErr *ConfirmationTimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("expected *ConfirmationTimeoutError, got %T: %v", err, err)
	}
	if timeoutErr.StatusCode() != http.StatusRequestTimeout {
		t.Errorf("StatusCode() = %d, want 408", timeoutErr.StatusCode())
	}
	if timeoutErr.Attempts != 4 {
		t.Errorf("Attempts = %d, want 4", timeoutErr.Attempts)
	}
	if timeoutErr.LastStatus != StatusPending {
		t.Errorf("LastStatus = %q, want %q", timeoutErr.LastStatus, StatusPending)
	}
	if got := fetches.Load(); got != 4 {
		t.Errorf("fetches = %d, want 4", got)
	}
	if *waits != 3 {
		t.Errorf("waits = %d, want 3", *waits)
	}
}

func TestWaitForConfirmation_FetchErrorRetried(t *testing.T) {
	var fetches atomic.Int32
	client := transactionServer(t, &fetches, func(n int) string {
		if n == 1 {
			return ""
		}
		return StatusConfirmed
	})

	var attempts []ConfirmAttempt
	tx, err := client.WaitForConfirmation(context.Background(), "0xabc", ConfirmOptions{
		MaxRetries: 3,
		OnAttempt:  func(a ConfirmAttempt) { attempts = append(attempts, a) },
	})
	if err != nil {
		t.Fatalf("WaitForConfirmation error: %v", err)
	}
	if !tx.Confirmed() {
		t.Error("transaction should be confirmed")
	}
	if len(attempts) != 2 {
		t.Fatalf("attempts = %d, want 2", len(attempts))
	}
	if attempts[0].Err == nil || attempts[0].Attempt != 1 {
		t.Errorf("first attempt = %+v, want fetch error", attempts[0])
	}
	if attempts[1].Status != StatusConfirmed {
		t.Errorf("second attempt status = %q, want confirmed", attempts[1].Status)
	}
}

func TestWaitForConfirmation_FinalFetchErrorReturned(t *testing.T) {
	tests := []struct {
		name     string
		statuses []string
	}{
		{name: "every fetch fails", statuses: []string{"", ""}},
		{name: "pending then failure", statuses: []string{StatusPending, StatusPending, ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var fetches atomic.Int32
			client := transactionServer(t, &fetches, func(n int) string { return tt.statuses[n-1] })

			_, err := client.WaitForConfirmation(context.Background(), "0xabc", ConfirmOptions{MaxRetries: len(tt.statuses)})

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %T: %v", err, err)
			}
			if apiErr.StatusCode != http.StatusInternalServerError {
				t.Errorf("StatusCode = %d, want 500", apiErr.StatusCode)
			}
			if apiErr.Message != "rpc unavailable" {
				t.Errorf("Message = %q, want backend message", apiErr.Message)
			}
			if errors.Is(err, ErrConfirmationTimeout) {
				t.Error("final fetch error should not be reported as a timeout")
			}
			if got := int(fetches.Load()); got != len(tt.statuses) {
				t.Errorf("fetches = %d, want %d", got, len(tt.statuses))
			}
		})
	}
}

func TestWaitForConfirmation_Canceled(t *testing.T) {
	var fetches atomic.Int32
	client := transactionServer(t, &fetches, func(int) string { return StatusPending })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	start := time.Now()
	_, err := client.WaitForConfirmation(ctx, "0xabc", ConfirmOptions{
		MaxRetries: 10,
		Delay:      time.Hour,
		OnAttempt:  func(ConfirmAttempt) { cancel() },
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if time.Since(start) > 10*time.Second {
		t.Error("cancellation should interrupt the wait")
	}
	if got := fetches.Load(); got != 1 {
		t.Errorf("fetches = %d, want 1", got)
	}
}

func TestWaitForConfirmation_Preconditions(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		hash    string
		opts    ConfirmOptions
		wantErr error
	}{
		{name: "no token", token: "", hash: "0xabc", opts: DefaultConfirmOptions(), wantErr: ErrAuthRequired},
		{name: "bad hash", token: "jwt", hash: "abc", opts: DefaultConfirmOptions(), wantErr: ErrValidation},
		{name: "zero retries", token: "jwt", hash: "0xabc", opts: ConfirmOptions{MaxRetries: 0}, wantErr: ErrValidation},
		{name: "negative delay", token: "jwt", hash: "0xabc", opts: ConfirmOptions{MaxRetries: 1, Delay: -time.Second}, wantErr: ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits atomic.Int32
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
			}, tt.token, nil)

			_, err := client.WaitForConfirmation(context.Background(), tt.hash, tt.opts)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if hits.Load() != 0 {
				t.Error("no request should be sent")
			}
		})
	}
}

func TestGetTransaction_RequiresToken(t *testing.T) {
	client, _ := NewClient(ClientConfig{BaseURL: "http://localhost:5000"})

	_, err := client.GetTransaction(context.Background(), "0xabc")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 APIError, got %v", err)
	}
	if apiErr.Message != "Authentication token is required for transaction details" {
		t.Errorf("Message = %q", apiErr.Message)
	}
}

func TestVerifyTransaction(t *testing.T) {
	tests := []struct {
		name   string
		status string
		want   bool
	}{
		{name: "confirmed", status: StatusConfirmed, want: true},
		{name: "pending", status: StatusPending, want: false},
		{name: "lookup failure", status: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var fetches atomic.Int32
			client := transactionServer(t, &fetches, func(int) string { return tt.status })

			if got := client.VerifyTransaction(context.Background(), "0xabc"); got != tt.want {
				t.Errorf("VerifyTransaction() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDefaultConfirmOptions(t *testing.T) {
	opts := DefaultConfirmOptions()
	if opts.MaxRetries != 10 {
		t.Errorf("MaxRetries = %d, want 10", opts.MaxRetries)
	}
	if opts.Delay != 2*time.Second {
		t.Errorf("Delay = %v, want 2s", opts.Delay)
	}
}
