// Package version holds build metadata injected at link time.
package version

// Version is overridden with -ldflags "-X github.com/Proton-105/liveness-probe/internal/version.Version=...".
var Version = "2"

// Commit is the VCS revision the binary was built from, if known.
var Commit = "unknown"
