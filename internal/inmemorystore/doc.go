// Package inmemorystore provides a thread-safe, in-memory implementation
// of the hoststore interfaces. It stands in for the host runtime in tests,
// dry runs and the CLI, where no real 3-D scene is attached.
package inmemorystore
