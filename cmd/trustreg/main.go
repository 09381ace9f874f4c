// trustreg manages the trusted package sources registry.
//
// Usage:
//
//	trustreg list
//	trustreg add NAME --fingerprint FP --subject CN
//	trustreg --help
package main

import (
	"fmt"
	"os"

	"github.com/tfkr-ae/trustreg/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
