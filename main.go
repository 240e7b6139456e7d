// Pilltick - a medication alarm scheduler and reminder daemon
package main

import (
	"os"

	"github.com/hojoonlee/pilltick/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
