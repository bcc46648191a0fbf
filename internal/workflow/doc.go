// Package workflow drives discovered archives through the processing
// pipeline.
//
// The Manager polls the inbox for scan archives and feeds each one through
// the registered stage handlers (extract, compose, stamp, impose, print,
// archive) in strict order, retrying failed items up to the configured
// attempt budget with a delay between attempts. Failures never escape the
// item boundary: the loop records the outcome, leaves the archive in the
// inbox for a later pass, and keeps cycling. Once the inbox is drained the
// manager sweeps aged intermediates out of the working directories.
//
// Processing is sequential: one item completes all stages before the next
// starts, so at most one attempt per identifier is ever in flight and the
// print sink is never invoked concurrently. The source archive is moved to
// the processed directory only after every stage of an attempt succeeds;
// everything before the move is side-effect-free with respect to the
// archive, so an interrupted attempt leaves nothing to repair beyond
// sweepable intermediates.
package workflow
