// heapctl is a command-line test harness external to the allocator core:
// it accepts one or more named scenarios with optional key=value
// parameters and a -verbose switch that dumps heap state on completion.
// Exit code 0 on success, non-zero on assertion failure.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"heapkeeper"
)

type params map[string]string

func (p params) uint64(key string, def uint64) uint64 {
	v, ok := p[key]
	if !ok {
		return def
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

type scenario struct {
	name string
	run  func(h *heapkeeper.Heap, p params) error
}

var scenarios = []scenario{
	{"alignment", scenarioAlignment},
	{"reuse", scenarioReuse},
	{"coalesce-reuse", scenarioCoalesceReuse},
	{"large-block", scenarioLargeBlock},
	{"growth-gap", scenarioGrowthGap},
	{"fragmentation", scenarioFragmentation},
}

func findScenario(name string) *scenario {
	for i := range scenarios {
		if scenarios[i].name == name {
			return &scenarios[i]
		}
	}
	return nil
}

func main() {
	verbose := flag.Bool("verbose", false, "dump heap state after each scenario")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: heapctl [-verbose] <scenario> [key=value ...] [<scenario> ...]")
		fmt.Fprintln(os.Stderr, "scenarios: alignment reuse coalesce-reuse large-block growth-gap fragmentation")
		os.Exit(2)
	}

	failed := 0
	var i int
	for i < len(args) {
		name := args[i]
		i++
		p := params{}
		for i < len(args) && strings.Contains(args[i], "=") {
			kv := strings.SplitN(args[i], "=", 2)
			p[kv[0]] = kv[1]
			i++
		}

		sc := findScenario(name)
		if sc == nil {
			fmt.Fprintf(os.Stderr, "unknown scenario: %s\n", name)
			failed++
			continue
		}

		h, err := heapkeeper.New(heapkeeper.Options{
			StaticArenaSize:   p.uint64("arena", 0),
			GrowthReservation: p.uint64("growth", 0),
			MmapThreshold:     p.uint64("threshold", 0),
		})
		if err != nil {
			fmt.Printf("[FAIL] %s: %v\n", name, err)
			failed++
			continue
		}

		runErr := sc.run(h, p)
		if runErr != nil {
			fmt.Printf("[FAIL] %s: %v\n", name, runErr)
			failed++
		} else {
			fmt.Printf("[PASS] %s\n", name)
		}

		if *verbose {
			h.Dump(os.Stdout)
		}
		_ = h.Close()
	}

	if failed > 0 {
		os.Exit(1)
	}
}
