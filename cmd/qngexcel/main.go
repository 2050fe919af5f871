// qngexcel converts a .bin or .csv file written by qngcollect into an Excel
// workbook with the cumulative z-test and its chart.
//
// Usage: qngexcel <path-to-.bin-or-.csv>
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/Thiagojm/medqrng_go/report"
)

func main() {
	pflag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: qngexcel <path-to-.bin-or-.csv>")
	}
	pflag.Parse()
	if pflag.NArg() != 1 {
		pflag.Usage()
		os.Exit(2)
	}
	out, err := report.Convert(pflag.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	fmt.Println(out)
}
