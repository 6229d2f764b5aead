// Package cli is responsible for parsing command-line arguments, validating
// user input, and handling process-level concerns like exit codes. It
// declares the cobra command tree, binds every flag to viper so values can
// also come from RIGBUILD_* environment variables or a rigbuild.yaml file,
// and translates them into the application's internal configuration.
package cli
