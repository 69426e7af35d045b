// Package reread provides functionality for re-running a reader over
// documents already in the library, replacing that reader's stored
// readings after a model change.
//
// This package supports progress tracking and retry logic with
// exponential backoff; a document that still fails after retries is
// skipped rather than aborting the run.
package reread
