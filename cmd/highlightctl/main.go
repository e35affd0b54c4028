// Command highlightctl reconciles and projects contract highlights offline,
// without a database or model connection.
package main

import (
	"os"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
