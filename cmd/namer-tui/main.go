// Namer TUI - terminal front-end for batch renaming a local directory with
// the same prefix scheme the server uses.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/namerapp/namer/cmd/namer-tui/internal/ui"
)

func main() {
	dir := flag.String("dir", ".", "Directory containing the files to rename")
	flag.Parse()

	app, err := ui.NewApp(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing TUI: %v\n", err)
		os.Exit(1)
	}

	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}
