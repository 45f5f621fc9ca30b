// cmd/tools/persona-tool/main.go
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"yutenji-concierge/pkg/persona"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, time.Now); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer, now func() time.Time) error {
	if len(args) < 1 {
		help(out)
		return errors.New("command required")
	}

	initCmd := flag.NewFlagSet("init", flag.ContinueOnError)
	initPath := initCmd.String("path", "configs/persona.json", "Where to write the persona file")
	initForce := initCmd.Bool("force", false, "Overwrite an existing file")

	validateCmd := flag.NewFlagSet("validate", flag.ContinueOnError)
	validatePath := validateCmd.String("path", "configs/persona.json", "Path to persona file")

	showCmd := flag.NewFlagSet("show", flag.ContinueOnError)
	showPath := showCmd.String("path", "", "Path to persona file (empty shows the built-in persona)")

	bumpCmd := flag.NewFlagSet("bump", flag.ContinueOnError)
	bumpPath := bumpCmd.String("path", "configs/persona.json", "Path to persona file")
	bumpVersion := bumpCmd.String("version", "", "New persona version (e.g., 1.1.0)")

	for _, fs := range []*flag.FlagSet{initCmd, validateCmd, showCmd, bumpCmd} {
		fs.SetOutput(out)
	}

	switch args[0] {
	case "init":
		if err := initCmd.Parse(args[1:]); err != nil {
			return err
		}
		if !*initForce {
			if _, err := os.Stat(*initPath); err == nil {
				return fmt.Errorf("%s already exists (use -force to overwrite)", *initPath)
			}
		}
		p := persona.Default()
		p.Bump(p.Version, now())
		if err := persona.Save(p, *initPath); err != nil {
			return err
		}
		fmt.Fprintf(out, "Wrote persona %s (version %s) to %s\n", p.Name, p.Version, *initPath)

	case "validate":
		if err := validateCmd.Parse(args[1:]); err != nil {
			return err
		}
		p, err := persona.Load(*validatePath)
		if err != nil {
			return fmt.Errorf("persona validation failed: %w", err)
		}
		fmt.Fprintf(out, "Persona validation passed: %s version %s\n", p.Name, p.Version)

	case "show":
		if err := showCmd.Parse(args[1:]); err != nil {
			return err
		}
		p, err := persona.Load(*showPath)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "name:         %s\n", p.Name)
		fmt.Fprintf(out, "version:      %s\n", p.Version)
		fmt.Fprintf(out, "last updated: %s\n", p.LastUpdated)
		fmt.Fprintf(out, "labels:       %s / %s / %s / %s\n",
			p.Labels.Budget, p.Labels.Location, p.Labels.Cuisine, p.Labels.Situation)
		fmt.Fprintf(out, "unspecified:  %s\n", p.UnspecifiedLabel)
		fmt.Fprintf(out, "link label:   %s\n", p.LinkLabel)

	case "bump":
		if err := bumpCmd.Parse(args[1:]); err != nil {
			return err
		}
		if *bumpVersion == "" {
			bumpCmd.Usage()
			return errors.New("version is required for bump")
		}
		p, err := persona.Load(*bumpPath)
		if err != nil {
			return fmt.Errorf("failed to load persona: %w", err)
		}
		previous := p.Version
		p.Bump(*bumpVersion, now())
		if err := persona.Save(p, *bumpPath); err != nil {
			return err
		}
		fmt.Fprintf(out, "Bumped persona %s from %s to %s\n", p.Name, previous, p.Version)

	case "help":
		help(out)

	default:
		help(out)
		return fmt.Errorf("unknown command: %s", args[0])
	}
	return nil
}

func help(out io.Writer) {
	fmt.Fprintln(out, `
Usage: persona-tool <command> [flags]

Commands:
  init      Write the built-in persona to a file for editing
  validate  Validate a persona file
  show      Print a summary of a persona
  bump      Set a new version and update the timestamp
  help      Show this help message

Examples:
  persona-tool init -path configs/persona.json
  persona-tool validate -path configs/persona.json
  persona-tool bump -path configs/persona.json -version 1.1.0

Use 'persona-tool <command> -h' for more information about a command.`)
}
