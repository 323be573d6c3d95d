// Command rsprod is a command-line interface for inspecting and converting
// remote sensing products.
package main

import (
	"fmt"
	"os"

	"github.com/qri-io/rsprod-go/internal/cli"
)

func main() {
	if err := cli.NewRoot().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
