// Command concierge answers campus questions from the terminal using the same
// engine the Zeebe worker runs.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
