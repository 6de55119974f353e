// Package buildinfo holds version metadata set at link time:
//
//	go build -ldflags "-X github.com/danmuck/pamrfid/internal/buildinfo.Version=1.2.0"
package buildinfo

import (
	"fmt"
	"runtime"
)

var (
	Name    = "pamrfid"
	Version = "dev"
	Commit  = ""
)

// FullVersion returns Version with the short commit appended when known.
func FullVersion() string {
	if Commit != "" {
		return fmt.Sprintf("%s (%s)", Version, Commit)
	}
	return Version
}

func String() string {
	return fmt.Sprintf("%s %s %s/%s %s", Name, FullVersion(), runtime.GOOS, runtime.GOARCH, runtime.Version())
}
