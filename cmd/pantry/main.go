// Command pantry is the install engine's CLI entry point: thin flag
// parsing and collaborator wiring around pkg/orchestrator, which owns the
// entire state machine (spec §4.10). No engine logic lives here.
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
)

func main() {
	flag.SetInterspersed(false)
	flag.Usage = printUsage

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "install", "i":
		err = runInstall(args)
	case "link":
		err = runLink(args)
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "pantry: unknown command %q\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "pantry: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `pantry - a deterministic, per-project dependency manager

Usage:
  pantry install [flags]   materialize declared dependencies into ./pantry
  pantry link [flags]      register a local package under ~/.pantry/links

Install flags:
  -g, --global           operate against the user-global environment
  -f, --force            bypass the fast path and the Skip Oracle
      --dev              include devDependencies
      --production       install only normal dependencies (skip dev/peer)
      --peer             include peerDependencies
      --ignore-scripts   skip every lifecycle script, trusted or not
      --offline          install only from the local download cache
      --filter <pat>     comma-separated workspace member include/exclude patterns
      --linker <mode>    reserved for a future alternate linking strategy
      --metrics-addr     address to serve Prometheus /metrics on (optional)
  -v, --verbose          log resolution and lifecycle detail to stderr
`)
}
