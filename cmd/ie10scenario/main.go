// Command ie10scenario runs one or more Lua scenario scripts against
// the engine package and reports pass/fail for each, the same
// assemble-run-assert shape as scenario.RunFile but as a standalone
// tool rather than a go test binary.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/kestrelvm/ie10/scenario"
)

// stamp returns the millisecond-precision clock reading the teacher's
// cpu_ie32.go prefixes its own Push/Pop overflow diagnostics with.
func stamp() string { return time.Now().Format("15:04:05.000") }

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s Usage: ie10scenario file.lua [file2.lua ...]\n\nRuns each Lua scenario file and reports pass/fail.\n", stamp())
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}

	failed := 0
	for _, path := range flag.Args() {
		r := scenario.New()
		err := r.RunFile(path)
		r.Close()
		if err != nil {
			fmt.Printf("%s FAIL %s: %v\n", stamp(), path, err)
			failed++
			continue
		}
		fmt.Printf("%s ok   %s\n", stamp(), path)
	}

	if failed > 0 {
		fmt.Fprintf(os.Stderr, "%s %d of %d scenario(s) failed\n", stamp(), failed, flag.NArg())
		os.Exit(1)
	}
}
