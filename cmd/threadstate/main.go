package main

import (
	"fmt"
	"os"
)

const usageText = `threadstate folds agent protocol events into thread state.

Usage:
  threadstate <command> [flags]

Commands:
  replay   fold a JSONL event file (or the stored journal) and print the thread list
  show     print one thread's transcript
  badge    print the badge count and unread threads per workspace
  watch    follow a JSONL event file in a live terminal view
  journal  list, import or truncate the stored event journal
  config   print configuration (effective or defaults)
  version  print the build version
  help     show help

Flags:
  -h, --help   show help

Examples:
  threadstate replay --input events.jsonl
  threadstate replay --input events.jsonl --save
  threadstate show --input events.jsonl --thread thr_123 --copy
  threadstate watch --input events.jsonl
  threadstate journal --after 100 --format json
  threadstate config --default --format toml
`

func printUsage() {
	fmt.Fprint(os.Stderr, usageText)
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		return
	}

	wiring := defaultCommandWiring(os.Stdin, os.Stdout, os.Stderr)
	commands := buildCommands(wiring)

	switch args[0] {
	case "-h", "--help", "help":
		printUsage()
		return
	}

	runner, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		os.Exit(2)
	}
	exitOnErr(args[0], runner.Run(args[1:]), wiring.stderr)
}
