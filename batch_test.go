package mailward

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailward/mailward/internal/dnsx"
)

// batchVerifier skips the SMTP probe and resolves every listed domain
// so batch mechanics can be tested without network or pacing delays.
func batchVerifier(t *testing.T, opts Options, domains ...string) *Verifier {
	t.Helper()
	opts.DisableSMTP = true

	resolver := dnsx.NewMockResolver()
	for _, d := range domains {
		resolver.AddMX(d, "mx."+d+".", 10)
	}
	return testVerifier(t, opts, resolver, nil)
}

func TestValidateBatchDeduplicates(t *testing.T) {
	v := batchVerifier(t, DefaultOptions(), "x.com")

	results, err := v.ValidateBatch(context.Background(),
		[]string{"A@x.com", "a@x.com", "", "nan", "NONE", "b@x.com"}, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "A@x.com", results[0].Email)
	assert.Equal(t, "b@x.com", results[1].Email)
	assert.Equal(t, 1, results[0].Attempts)
}

func TestValidateBatchEmpty(t *testing.T) {
	v := batchVerifier(t, DefaultOptions())

	_, err := v.ValidateBatch(context.Background(), []string{"", "nan", "none"}, nil)
	assert.ErrorIs(t, err, ErrNoAddresses)

	_, err = v.ValidateBatch(context.Background(), nil, nil)
	assert.ErrorIs(t, err, ErrNoAddresses)
}

func TestValidateBatchMaxEmails(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxEmails = 2
	v := batchVerifier(t, opts, "x.com")

	results, err := v.ValidateBatch(context.Background(),
		[]string{"a@x.com", "b@x.com", "c@x.com"}, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a@x.com", results[0].Email)
	assert.Equal(t, "b@x.com", results[1].Email)
}

func TestValidateBatchOrderWithConcurrency(t *testing.T) {
	opts := DefaultOptions()
	opts.Concurrency = 4
	v := batchVerifier(t, opts, "x.com")

	addresses := make([]string, 40)
	for i := range addresses {
		addresses[i] = addressN(i)
	}

	results, err := v.ValidateBatch(context.Background(), addresses, nil)
	require.NoError(t, err)
	require.Len(t, results, 40)
	for i, r := range results {
		assert.Equal(t, addressN(i), r.Email)
	}
}

func addressN(i int) string {
	return "user" + string(rune('a'+i%26)) + string(rune('a'+i/26)) + "@x.com"
}

func TestValidateBatchProgress(t *testing.T) {
	v := batchVerifier(t, DefaultOptions(), "x.com")

	var processedSeen []int
	var lastPercent float64
	var lastETA *float64
	results, err := v.ValidateBatch(context.Background(),
		[]string{"a@x.com", "b@x.com", "c@x.com"},
		func(_ string, processed, total int, percent float64, eta *float64) {
			assert.Equal(t, 3, total)
			processedSeen = append(processedSeen, processed)
			lastPercent = percent
			lastETA = eta
			if eta != nil {
				assert.GreaterOrEqual(t, *eta, 0.0)
			}
		})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, []int{1, 2, 3}, processedSeen)
	assert.Equal(t, 100.0, lastPercent)
	require.NotNil(t, lastETA)
	assert.Equal(t, 0.0, *lastETA)
}

func TestValidateBatchCheckpoints(t *testing.T) {
	opts := DefaultOptions()
	opts.CheckpointEvery = 2
	v := batchVerifier(t, opts, "x.com")

	var checkpointSizes []int
	v.OnCheckpoint = func(results []Result) {
		checkpointSizes = append(checkpointSizes, len(results))
	}

	addresses := []string{"a@x.com", "b@x.com", "c@x.com", "d@x.com", "e@x.com"}
	results, err := v.ValidateBatch(context.Background(), addresses, nil)
	require.NoError(t, err)
	require.Len(t, results, 5)

	assert.Equal(t, []int{2, 4}, checkpointSizes)
}

// With several workers the progress and checkpoint callbacks must be
// delivered one at a time and in processed order, so consumers can
// keep plain counters and write files without their own locking.
func TestValidateBatchCallbacksSerialized(t *testing.T) {
	opts := DefaultOptions()
	opts.Concurrency = 8
	opts.CheckpointEvery = 1
	v := batchVerifier(t, opts, "x.com")

	var inFlight atomic.Int32
	var overlapped atomic.Bool
	var checkpointSizes []int
	v.OnCheckpoint = func(results []Result) {
		if inFlight.Add(1) > 1 {
			overlapped.Store(true)
		}
		checkpointSizes = append(checkpointSizes, len(results))
		time.Sleep(time.Millisecond)
		inFlight.Add(-1)
	}

	addresses := make([]string, 40)
	for i := range addresses {
		addresses[i] = addressN(i)
	}

	lastProcessed := 0
	results, err := v.ValidateBatch(context.Background(), addresses,
		func(_ string, processed, _ int, _ float64, _ *float64) {
			assert.Equal(t, lastProcessed+1, processed)
			lastProcessed = processed
		})
	require.NoError(t, err)
	require.Len(t, results, 40)
	assert.Equal(t, 40, lastProcessed)

	assert.False(t, overlapped.Load(), "checkpoint callbacks overlapped")
	// One checkpoint per completion except the last, each snapshot
	// exactly as large as the processed count that triggered it.
	require.Len(t, checkpointSizes, 39)
	for i, size := range checkpointSizes {
		assert.Equal(t, i+1, size)
	}
}

func TestValidateBatchCancellation(t *testing.T) {
	v := batchVerifier(t, DefaultOptions(), "x.com")

	ctx, cancel := context.WithCancel(context.Background())
	addresses := []string{"a@x.com", "b@x.com", "c@x.com", "d@x.com"}

	results, err := v.ValidateBatch(ctx, addresses,
		func(_ string, processed, _ int, _ float64, _ *float64) {
			if processed == 2 {
				cancel()
			}
		})
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, results, 2)
	assert.Equal(t, "a@x.com", results[0].Email)
	assert.Equal(t, "b@x.com", results[1].Email)
}

func TestValidateBatchSurvivesPanic(t *testing.T) {
	v := batchVerifier(t, DefaultOptions(), "x.com")
	// A nil prober panics on use; the orchestrator must absorb it.
	v.prober = nil

	results, err := v.ValidateBatch(context.Background(),
		[]string{"a@x.com", "b@x.com"}, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.False(t, r.Valid)
		assert.Equal(t, "internal validation failure", r.Message)
		assert.Equal(t, 1, r.Attempts)
	}
}
