// Package main provides scicalc, a terminal scientific calculator.
//
// Each input line is split on whitespace. A field is either a key name from
// the keymap ("7", "+", "Enter", "Backspace"), a function name ("sin", "√"),
// a number ("12.5") or an explicit input ("scientific:x²", "clear"). The
// two-line display is printed after every line.
//
// Usage:
//
//	scicalc                 Read keys from stdin
//	scicalc version         Show version
//	scicalc help            Show this help
//	echo "2 x^y 10 =" | scicalc
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ternarybob/scicalc/internal/config"
	"github.com/ternarybob/scicalc/internal/keymap"
	"github.com/ternarybob/scicalc/internal/logger"
	"github.com/ternarybob/scicalc/pkg/calc"
)

// version is set via -ldflags at build time
var version = "dev"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version", "-v", "--version":
			fmt.Printf("scicalc version %s\n", version)
			return
		case "help", "-h", "--help":
			printUsage()
			return
		default:
			fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
			printUsage()
			os.Exit(1)
		}
	}

	cfg, err := config.Load(config.DefaultConfigPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: load config: %v\n", err)
		os.Exit(1)
	}

	// stdout is the calculator display
	logger.SetupFileLogger(cfg)
	defer logger.Stop()

	km, err := keymap.Load(cfg.Calculator.KeymapPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if err := run(os.Stdin, os.Stdout, km); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`scicalc - Terminal scientific calculator

Usage:
  scicalc [command]

Commands:
  version       Show version information
  help          Show this help

Input:
  One or more keys per line, separated by spaces:
    7 + 3 Enter          key names from the keymap
    sin cos √ x² !       scientific functions
    12.5                 numbers are typed digit by digit
    scientific:1/x       explicit kind:value inputs
    quit                 leave the calculator`)
}

// run reads key lines from in and writes the display to out after each one.
// An error display is shown once and then cleared, the way the browser
// calculator resets after its delay.
func run(in io.Reader, out io.Writer, km *keymap.Keymap) error {
	engine := calc.New()
	log := logger.GetLogger()

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return nil
		}

		inputs, err := km.ResolveLine(line)
		if err != nil {
			fmt.Fprintf(out, "? %v\n", err)
			continue
		}

		if err := calc.ApplyAll(engine, inputs); err != nil && !calc.IsDomainError(err) {
			fmt.Fprintf(out, "? %v\n", err)
			continue
		}

		printDisplay(out, engine.Display())

		if engine.InError() {
			log.Debug().Str("message", engine.ErrorMessage()).Msg("Calculator error")
			fmt.Fprintf(out, "! %s\n", engine.ErrorMessage())
			engine.Clear()
		}
	}

	return scanner.Err()
}

func printDisplay(out io.Writer, d calc.Display) {
	if d.Previous != "" {
		fmt.Fprintf(out, "  %s\n", d.Previous)
	}
	fmt.Fprintf(out, "= %s\n", d.Current)
}
