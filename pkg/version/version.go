// Package version carries build metadata stamped at link time via
// -ldflags "-X github.com/quranlabs/tadabbur/pkg/version.Version=...".
package version

var (
	Version   = "dev"
	GitCommit = "unknown"
)
