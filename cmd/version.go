package cmd

import (
	"fmt"
	"io"
)

// Version information, injected at build time via ldflags.
var (
	AppVersion = "development"
	BuildTime  = "unknown"
	GitCommit  = "unknown"
)

func runVersion(w io.Writer) {
	fmt.Fprintf(w, "response-aigent %s\n", AppVersion)
	fmt.Fprintf(w, "Build Time: %s\n", BuildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", GitCommit)
}
