// Package scheduler drives a set of jobs to a fixed point.
//
// # How It Works
//
// A build stage is a list of jobs in registration order. The scheduler runs
// passes over that list:
//
//  1. Every job that is still Pending or Delayed is attempted once, in
//     order. A producer registered before its consumer can satisfy it in the
//     same pass; a consumer registered first needs one more pass.
//  2. A pass made progress when at least one attempted job ended it in a
//     state other than Delayed.
//  3. Passes repeat while progress is made and schedulable jobs remain.
//
// When a pass makes no progress, every job still Delayed is finalized as
// Invalid with its unresolved tags as the cause. Each pass that makes
// progress settles at least one job, so a stage of n jobs takes at most
// n+1 passes.
//
// # Relationship with Other Components
//
//   - **job:** each attempt is a call to job.Job.Attempt.
//   - **registry:** passed to every attempt; the scheduler is its only
//     mutator during a build.
//   - **report:** every job outcome, with warnings, errors and logs, is
//     recorded once the stage settles.
//
// Jobs canceled before the run are never attempted and are reported as
// canceled. The scheduler is synchronous and runs on the caller's
// goroutine.
package scheduler
