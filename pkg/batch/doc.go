// Package batch implements bounded-concurrency dispatch of per-item network
// operations (document downloads, recipient email sends).
//
// The dashboard API has no bulk endpoints for these operations, so the
// client performs one request per item. The dispatcher bounds how many of
// those requests are in flight at once via a weighted semaphore; the default
// concurrency of 1 keeps the original strictly sequential behavior, where
// each item's request resolves before the next begins.
//
// Example usage:
//
//	d := batch.NewDispatcher(batch.Config{Operation: "mail_send"})
//	results := d.Dispatch(ctx, units)
//	successful, failed, failedSubjects := batch.Summarize(results)
//
// The dispatcher:
//   - Runs every unit regardless of other units' failures
//   - Recovers panics into per-unit failure results
//   - Returns results in unit order
//   - Records per-unit outcomes and whole-batch duration in Prometheus
package batch
