package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/rejot-dev/evalrun/internal/pipeline"
)

var (
	outFlag  = pflag.StringP("out", "o", "", "file to write the schema to (default stdout)")
	helpFlag = pflag.BoolP("help", "h", false, "show help message")
)

func main() {
	pflag.Parse()

	if *helpFlag {
		showUsage()
		return
	}

	if err := run(*outFlag); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(out string) error {
	data, err := json.MarshalIndent(pipeline.DefinitionSchema(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}
	data = append(data, '\n')

	if out == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		return fmt.Errorf("failed to write schema: %w", err)
	}
	return nil
}

func showUsage() {
	fmt.Printf("Usage: %s [options]\n\n", os.Args[0])
	fmt.Printf("Writes the JSON schema of evalrun pipeline definition files.\n\n")
	fmt.Println("Options:")
	pflag.PrintDefaults()
}
