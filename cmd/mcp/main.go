package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/richard-senior/nflodds/internal/logger"
	"github.com/richard-senior/nflodds/internal/processor"
	"github.com/richard-senior/nflodds/pkg/util/nflodds"
)

// One-shot query CLI, e.g. `mcp predictions 2025 7 KC` or a JSON request on stdin
func main() {
	debug := flag.Bool("debug", false, "Enable debug logging")
	inputFile := flag.String("input", "", "Input file path (if not provided, stdin will be used)")
	outputFile := flag.String("output", "", "Output file path (if not provided, stdout will be used)")
	configFile := flag.String("config", "", "YAML config file")
	flag.Parse()

	logger.SetShowDateTime(true)
	// stdout carries the JSON result
	if err := logger.SetLogOutput('f'); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	if *debug {
		logger.SetLevel(logger.DEBUG)
		logger.Debug("Debug logging enabled")
	}
	logger.Info("Starting nflodds query CLI")
	if err := nflodds.Configure(*configFile); err != nil {
		logger.Fatal("Invalid configuration", err)
	}
	defer nflodds.CloseDatabase()

	var input []byte
	var err error
	if *inputFile != "" {
		input, err = os.ReadFile(*inputFile)
		if err != nil {
			logger.Fatal("Failed to read input file", err)
		}
	} else if args := flag.Args(); len(args) > 0 {
		input, err = json.Marshal(processor.MCPRequest{
			Query:     strings.Join(args, " "),
			RequestID: fmt.Sprintf("cli-%d", os.Getpid()),
		})
		if err != nil {
			logger.Fatal("Failed to create request from command line arguments", err)
		}
	} else {
		input, err = io.ReadAll(os.Stdin)
		if err != nil {
			logger.Fatal("Failed to read from stdin", err)
		}
	}

	result, err := processor.ProcessRequest(input)
	if err != nil {
		logger.Error("Failed to process request", err)
		os.Exit(1)
	}

	if *outputFile != "" {
		if err := os.WriteFile(*outputFile, result, 0644); err != nil {
			logger.Fatal("Failed to write to output file", err)
		}
	} else {
		fmt.Println(string(result))
	}
	logger.Info("Query completed")
}
