package mailward

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/mailward/mailward/internal/logger"
	"github.com/mailward/mailward/types"
)

// ProgressFunc receives a notification after each completed address.
// percent is 0-100; etaSeconds is nil until at least one address has
// completed, then holds the projection from the running average.
type ProgressFunc func(currentAddress string, processed, total int, percent float64, etaSeconds *float64)

// CheckpointFunc receives a snapshot of all results completed so far,
// in input order. Snapshots are safe to retain.
type CheckpointFunc func(results []Result)

// ValidateBatch verifies a list of addresses and returns one result
// per unique address, in input order. Duplicates are collapsed
// case-insensitively to the first occurrence; empty and placeholder
// tokens ("nan", "none") are dropped. When the context is canceled the
// already-collected results are returned alongside the context error.
func (v *Verifier) ValidateBatch(ctx context.Context, addresses []string, onProgress ProgressFunc) ([]Result, error) {
	list := normalizeAddresses(addresses)
	if len(list) == 0 {
		return nil, ErrNoAddresses
	}
	if v.opts.MaxEmails > 0 && len(list) > v.opts.MaxEmails {
		list = list[:v.opts.MaxEmails]
	}

	ctx = logger.WithRunID(ctx, logger.NewRunID())
	log := logger.FromContext(logger.WithLogger(ctx, v.log))

	total := len(list)
	start := time.Now()
	log.Info().Int("total", total).Int("concurrency", v.opts.Concurrency).Msg("batch started")

	results := make([]Result, total)
	done := make([]bool, total)
	attempts := make(map[string]int)
	processed := 0

	var mu sync.Mutex // guards results, done, attempts, processed
	// cbMu serializes progress and checkpoint callbacks and keeps
	// their delivery order aligned with the processed counter. Always
	// taken before mu, never after.
	var cbMu sync.Mutex

	// snapshotLocked collects completed results in input order. Caller
	// holds mu.
	snapshotLocked := func() []Result {
		out := make([]Result, 0, processed)
		for i, ok := range done {
			if ok {
				out = append(out, results[i])
			}
		}
		return out
	}

	workers := v.opts.Concurrency
	if workers > total {
		workers = total
	}
	sequential := workers == 1

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					continue
				}
				addr := list[i]

				mu.Lock()
				attempts[addr]++
				attempt := attempts[addr]
				mu.Unlock()

				res := v.runOne(ctx, addr, attempt)

				cbMu.Lock()
				mu.Lock()
				results[i] = res
				done[i] = true
				processed++
				p := processed
				elapsed := time.Since(start).Seconds()
				var snap []Result
				if v.OnCheckpoint != nil && p%v.opts.CheckpointEvery == 0 && p < total {
					snap = snapshotLocked()
				}
				mu.Unlock()

				if onProgress != nil {
					eta := etaSeconds(elapsed, p, total)
					onProgress(addr, p, total, float64(p)/float64(total)*100, eta)
				}

				// Intermediate artifacts for external persistence; the
				// final return already covers the last boundary.
				if snap != nil {
					v.OnCheckpoint(snap)
				}
				cbMu.Unlock()

				// Sequential pacing so busy providers do not see a
				// sustained connection burst from one source.
				if sequential && !v.opts.DisableSMTP && p%10 == 0 && p < total {
					time.Sleep(time.Second)
				}
			}
		}()
	}

dispatch:
	for i := range list {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		mu.Lock()
		partial := snapshotLocked()
		mu.Unlock()
		log.Warn().Int("processed", len(partial)).Int("total", total).Msg("batch canceled")
		return partial, err
	}

	valid := countValid(results)
	high, medium, none := countTiers(results)
	log.Info().
		Int("total", total).
		Float64("elapsed_seconds", time.Since(start).Seconds()).
		Int("valid", valid).
		Int("invalid", total-valid).
		Int("reliability_high", high).
		Int("reliability_medium", medium).
		Int("reliability_none", none).
		Msg("batch finished")
	return results, nil
}

// runOne guards a single validation against panics: an unexpected
// failure on one address yields a conservative result instead of
// killing the batch.
func (v *Verifier) runOne(ctx context.Context, addr string, attempts int) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			v.log.Error().Str("email", addr).Interface("panic", r).Msg("validation panicked")
			res = failureResult(addr, attempts)
		}
	}()
	return v.validateOne(ctx, addr, attempts)
}

// failureResult is the record for an address whose validation failed
// internally: invalid for mailing, every undeterminable signal marked
// unknown.
func failureResult(addr string, attempts int) Result {
	return Result{
		Email:         addr,
		Valid:         false,
		Correct:       false,
		Reliability:   types.ReliabilityNone,
		Disposable:    types.SignalUnknown,
		DnsMxOk:       types.SignalNo,
		SmtpConnected: types.SignalNo,
		EmailActive:   types.SignalNo,
		Deliverable:   types.SignalNo,
		CatchAll:      types.SignalNo,
		MailboxFull:   types.SignalUnknown,
		RoleAccount:   types.SignalNo,
		Attempts:      attempts,
		Message:       "internal validation failure",
	}
}

// normalizeAddresses trims, drops placeholders and deduplicates
// case-insensitively while preserving first-seen order.
func normalizeAddresses(addresses []string) []string {
	seen := make(map[string]struct{}, len(addresses))
	out := make([]string, 0, len(addresses))
	for _, a := range addresses {
		a = strings.TrimSpace(a)
		key := strings.ToLower(a)
		if key == "" || key == "nan" || key == "none" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, a)
	}
	return out
}

// etaSeconds projects remaining time from the actual running average.
// Never negative; exactly zero once everything is processed.
func etaSeconds(elapsed float64, processed, total int) *float64 {
	if processed <= 0 {
		return nil
	}
	eta := elapsed / float64(processed) * float64(total-processed)
	if eta < 0 {
		eta = 0
	}
	return &eta
}

func countValid(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Valid {
			n++
		}
	}
	return n
}

func countTiers(results []Result) (high, medium, none int) {
	for _, r := range results {
		switch r.Reliability {
		case types.ReliabilityHigh:
			high++
		case types.ReliabilityMedium:
			medium++
		default:
			none++
		}
	}
	return high, medium, none
}
