// Command browse is a terminal client for the press-release backend. It
// shares the list session and detail view with the HTTP service.
package main

import (
	"os"
)

func main() {
	if err := Execute(); err != nil {
		printer := newPrinter(os.Stderr, !noColor)
		printer.Error("%v", err)
		os.Exit(1)
	}
}
