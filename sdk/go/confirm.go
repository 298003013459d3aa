package univerify

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/sethvargo/go-retry"
)

// Poller defaults.
const (
	DefaultConfirmRetries = 10
	DefaultConfirmDelay   = 2 * time.Second
)

// errNotConfirmed marks an attempt that observed a non-confirmed status.
var errNotConfirmed = errors.New("transaction not yet confirmed")

// ConfirmOptions configures WaitForConfirmation.
type ConfirmOptions struct {
	// MaxRetries is the number of status fetches (at least 1).
	MaxRetries int
	// Delay is the wait between fetches (0 is allowed).
	Delay time.Duration
	// OnAttempt is called after every fetch.
	OnAttempt func(ConfirmAttempt)
}

// ConfirmAttempt describes one status fetch of the poller.
type ConfirmAttempt struct {
	// Attempt is 1-based.
	Attempt int
	// Status is the observed status, empty when the fetch failed.
	Status string
	// Err is the fetch error, nil on success.
	Err error
}

// DefaultConfirmOptions returns 10 attempts spaced 2 seconds apart.
func DefaultConfirmOptions() ConfirmOptions {
	return ConfirmOptions{
		MaxRetries: DefaultConfirmRetries,
		Delay:      DefaultConfirmDelay,
	}
}

func (o ConfirmOptions) validate() error {
	if o.MaxRetries < 1 {
		return &ValidationError{Field: "MaxRetries", Message: "must be at least 1"}
	}
	if o.Delay < 0 {
		return &ValidationError{Field: "Delay", Message: "cannot be negative"}
	}
	return nil
}

// confirmationBackoff allows maxRetries attempts separated by a constant delay.
var confirmationBackoff = func(maxRetries int, delay time.Duration) retry.Backoff {
	constant := retry.BackoffFunc(func() (time.Duration, bool) {
		return delay, false
	})
	return retry.WithMaxRetries(uint64(maxRetries-1), constant)
}

// GetTransaction retrieves the blockchain transaction for hash.
func (c *Client) GetTransaction(ctx context.Context, hash string) (*TransactionRecord, error) {
	if _, err := c.requireToken("transaction details"); err != nil {
		return nil, err
	}
	if err := validateTransactionHash(hash); err != nil {
		return nil, err
	}

	resp, err := c.request(ctx, http.MethodGet, "/api/upload/transaction/"+url.PathEscape(hash), nil, "", true)
	if err != nil {
		return nil, err
	}

	var apiResp apiTransactionResponse
	if err := handleResponse(resp, &apiResp); err != nil {
		return nil, err
	}

	tx := apiResp.Data.Transaction
	return &TransactionRecord{
		Hash:        tx.Hash,
		BlockNumber: tx.BlockNumber,
		Status:      tx.Status,
		Timestamp:   tx.Timestamp,
	}, nil
}

// VerifyTransaction reports whether hash is confirmed. Lookup failures are
// logged and reported as not confirmed.
func (c *Client) VerifyTransaction(ctx context.Context, hash string) bool {
	tx, err := c.GetTransaction(ctx, hash)
	if err != nil {
		c.logger.DebugContext(ctx, "transaction lookup failed", "hash", hash, "error", err)
		return false
	}
	return tx.Confirmed()
}

// WaitForConfirmation polls the transaction until its status is confirmed.
//
// It performs at most opts.MaxRetries fetches, waiting opts.Delay between
// them. A fetch error is retried unless it happened on the final attempt,
// in which case it is returned unchanged. If every fetch succeeded without
// observing confirmation, a *ConfirmationTimeoutError is returned. Canceling
// ctx stops the loop and returns ctx.Err().
func (c *Client) WaitForConfirmation(ctx context.Context, hash string, opts ConfirmOptions) (*TransactionRecord, error) {
	if _, err := c.requireToken("transaction confirmation"); err != nil {
		return nil, err
	}
	if err := validateTransactionHash(hash); err != nil {
		return nil, err
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	var (
		attempts   int
		lastStatus string
		confirmed  *TransactionRecord
	)

	err := retry.Do(ctx, confirmationBackoff(opts.MaxRetries, opts.Delay), func(ctx context.Context) error {
		attempts++
		tx, err := c.GetTransaction(ctx, hash)
		if err != nil {
			c.logger.DebugContext(ctx, "transaction status fetch failed",
				"hash", hash,
				"attempt", attempts,
				"max_retries", opts.MaxRetries,
				"error", err,
			)
			if opts.OnAttempt != nil {
				opts.OnAttempt(ConfirmAttempt{Attempt: attempts, Err: err})
			}
			return retry.RetryableError(err)
		}

		lastStatus = tx.Status
		c.logger.DebugContext(ctx, "transaction status fetched",
			"hash", hash,
			"attempt", attempts,
			"status", tx.Status,
		)
		if opts.OnAttempt != nil {
			opts.OnAttempt(ConfirmAttempt{Attempt: attempts, Status: tx.Status})
		}

		if tx.Confirmed() {
			confirmed = tx
			return nil
		}
		return retry.RetryableError(errNotConfirmed)
	})

	switch {
	case err == nil:
		return confirmed, nil
	case errors.Is(err, errNotConfirmed):
		return nil, &ConfirmationTimeoutError{Hash: hash, Attempts: attempts, LastStatus: lastStatus}
	default:
		return nil, err
	}
}
