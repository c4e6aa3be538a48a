package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/17Abhi005/proctorai/internal/simulate"
	"github.com/17Abhi005/proctorai/pkg/logger"
)

// Default configuration constants.
const (
	defaultScenario   = "clean"
	defaultCandidate  = "Simulated Candidate"
	defaultSpeedup    = 10.0
	defaultInterval   = 1500 * time.Millisecond
	defaultRunTimeout = 10 * time.Minute
)

func main() {
	var (
		scenario  = flag.String("scenario", defaultScenario, "Scenario to replay")
		candidate = flag.String("candidate", defaultCandidate, "Candidate name for the simulated session")
		speedup   = flag.Float64("speedup", defaultSpeedup, "Scenario time compression factor")
		interval  = flag.Duration("interval", defaultInterval, "Sampling cadence in scenario time")
		list      = flag.Bool("list", false, "List available scenarios and exit")
		help      = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		flag.Usage()
		return
	}

	if *list {
		listScenarios()
		return
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	report, err := simulate.Run(ctx, simulate.Config{
		Scenario:       *scenario,
		CandidateName:  *candidate,
		Speedup:        *speedup,
		SampleInterval: *interval,
	})
	if err != nil {
		os.Stderr.WriteString("Simulation failed: " + err.Error() + "\n")
		os.Exit(1)
	}

	printReport(report)
	if !report.Passed() {
		os.Exit(1)
	}
}

// listScenarios prints the built-in scripts with their expectations.
func listScenarios() {
	scripts := simulate.Scenarios()
	names := make([]string, 0, len(scripts))
	for name := range scripts {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("Available scenarios:")
	for _, name := range names {
		script := scripts[name]
		fmt.Printf("  %-12s %s", name, script.Duration())
		if len(script.Expected) > 0 {
			fmt.Printf("  expects %v", script.Expected)
		}
		fmt.Println()
	}
}

// printReport writes a human-readable run summary to stdout.
func printReport(r *simulate.Report) {
	fmt.Printf("Scenario:    %s\n", r.Scenario)
	fmt.Printf("Candidate:   %s\n", r.Candidate)
	fmt.Printf("Session:     %s\n", r.SessionID)
	fmt.Printf("Final score: %d\n", r.FinalScore)
	fmt.Printf("Elapsed:     %s\n", r.Elapsed.Round(time.Millisecond))
	fmt.Printf("Violations:  %d\n", len(r.Violations))
	for _, ev := range r.Violations {
		fmt.Printf("  [%s] %s (%s) %s\n",
			ev.Timestamp.Format(time.TimeOnly), ev.Type, ev.Severity, ev.Description)
	}
	if r.Passed() {
		fmt.Println("Result:      PASS")
		return
	}
	fmt.Printf("Result:      FAIL, missing %v\n", r.Missing)
}
