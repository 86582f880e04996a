// Amplification is a command-line utility for logging experiment metrics.
package main

import "github.com/PenroseTiles/amplification/internal/cli"

func main() {
	cli.Execute()
}
