// importizer rewrites a tree of C++ headers and sources into C++20 module
// units, optionally keeping a macro-gated legacy form alongside.
package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/afero"
)

// Version is set via -ldflags.
var Version = "dev"

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	// fang reports the error on stderr
	return fang.Execute(
		context.Background(),
		newRootCmd(afero.NewOsFs()),
		fang.WithVersion(Version),
		fang.WithNotifySignal(os.Interrupt),
	)
}
