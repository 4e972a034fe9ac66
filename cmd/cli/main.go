// canplot - CAN log signal plotter
//
// canplot decodes candump logs with a frame database and plots the values of
// selected signals against the log line number.
package main

import (
	"os"

	"github.com/ccollicutt/canplot/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
