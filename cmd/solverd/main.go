// Command solverd is the CLI surface of spec.md §6: check-config,
// print-intent, run-fixture, make-evidence, and validate-evidence.
package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
)

// version and gitCommit are stamped at release time via -ldflags; both
// default to empty/0.1.0 for local builds, the way cmd/gait/main.go
// stamps its own version variable.
var version = "0.1.0"
var gitCommit = ""

func main() {
	os.Exit(run(os.Args))
}

func run(arguments []string) int {
	correlationID := uuid.NewString()
	return runDispatch(arguments, correlationID)
}

func runDispatch(arguments []string, correlationID string) int {
	if len(arguments) < 2 {
		fmt.Println("solverd", version)
		return exitOK
	}

	switch arguments[1] {
	case "check-config":
		return runCheckConfig(arguments[2:])
	case "print-intent":
		return runPrintIntent(arguments[2:])
	case "run-fixture":
		return runRunFixture(arguments[2:], correlationID)
	case "make-evidence":
		return runMakeEvidence(arguments[2:])
	case "validate-evidence":
		return runValidateEvidence(arguments[2:])
	case "serve":
		return runServe(arguments[2:])
	case "version", "--version", "-v":
		fmt.Println("solverd", version)
		return exitOK
	default:
		printUsage()
		return exitOther
	}
}

func printUsage() {
	fmt.Println(`solverd: deterministic off-chain solver/executor

Usage:
  solverd check-config [--config <path>]
  solverd print-intent <file>
  solverd run-fixture <file> [--strict-intent-id]
  solverd make-evidence <runDir>
  solverd validate-evidence <path>
  solverd serve [--addr <host:port>] [--config <path>]`)
}
