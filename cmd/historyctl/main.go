// Command historyctl loads the history tables once and queries, classifies
// or exports them from the terminal.
package main

import (
	"os"
)

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
