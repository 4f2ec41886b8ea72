// Package version reports build information for the flowkit binary.
//
// Values are set at link time and fall back to the module's embedded VCS
// settings:
//
//	go build -ldflags "-X github.com/kbukum/flowkit/version.Version=1.2.0"
package version
