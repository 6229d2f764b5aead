// Package job implements the per-job attempt state machine used by the
// scheduler.
//
// # Attempt
//
// Every scheduling pass calls Job.Attempt once for each job that is still
// Pending or Delayed. An attempt:
//
//  1. Resets the job's log and unresolved list.
//  2. Asks the Builder to resolve every tag it needs. Nothing is built.
//  3. Delays the job when at least one unresolved tag carries a deferral
//     marker (see tagid.IsDeferrable).
//  4. Marks the job Invalid when tags are unresolved and none of them can
//     appear later.
//  5. Runs the Builder, in Update mode when the job's target tag already
//     resolves, otherwise in Build mode.
//
// Builder outcomes are mapped onto a closed set of failures: an error
// wrapping ErrInvalidArgument is Invalid, any other error is a domain
// Error, and a panic is a Crash. No failure escapes Attempt.
package job
