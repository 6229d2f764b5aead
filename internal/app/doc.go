// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the build lifecycle (load manifests,
// flush the registry, schedule every stage, render and publish the
// report), decoupled from any specific entrypoint like a CLI.
package app
