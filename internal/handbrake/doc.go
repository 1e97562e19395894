// Package handbrake wraps the HandBrakeCLI executable as a supervised child
// process and turns its raw textual output into a typed event stream.
//
// A HandBrake value locates and validates the executable and acts as a
// factory for JobBuilder instances. Starting a job spawns HandBrakeCLI with
// a deterministically compiled argument vector, pumps both pipes
// concurrently, classifies their bytes into Config, Progress, Log and
// Fragment events, and delivers everything over a single channel. Exactly
// one Done event terminates every stream, even when the process crashes or
// is cancelled or killed mid-encode.
package handbrake
