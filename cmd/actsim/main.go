// Command actsim elaborates a single hand-built process against the
// simulator package and runs it to quiescence, in the shape of the
// teacher's samples/*/main.go demonstration binaries: construct the
// pieces, wire them, run, print a summary, exit.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/rmanohar/actsim-go/hierarchy"
	"github.com/rmanohar/actsim-go/simconfig"
	"github.com/rmanohar/actsim-go/simulator"
	"github.com/tebeka/atexit"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	params := simconfig.NewBuilder().
		WithDefaultDelay(1).
		WithQuiescenceBudget(1000).
		Build()

	root := hierarchy.Instantiation{InstName: "counter", Process: "Counter", Level: hierarchy.LevelChp}
	sim, err := simulator.New(counterDesign{}, root, params, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "actsim:", err)
		atexit.Exit(1)
	}

	if err := sim.RunInit(nil, nil); err != nil {
		fmt.Fprintln(os.Stderr, "actsim:", err)
		atexit.Exit(1)
	}

	sim.Eng.RunUntilEmpty()

	sim.Report.Snapshot().WriteTable(os.Stdout)
	atexit.Exit(0)
}
