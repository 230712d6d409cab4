package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	weavererrors "weaver/internal/errors"
	"weaver/internal/irtext"
	"weaver/internal/residual"
	"weaver/internal/weaver"
)

func main() {
	if len(os.Args) < 4 {
		fmt.Println("Usage: weave <program.irtext> <table.json> <trace.json>")
		os.Exit(1)
	}

	programPath, tablePath, tracePath := os.Args[1], os.Args[2], os.Args[3]

	source, err := os.ReadFile(programPath)
	if err != nil {
		color.Red("failed to read %s: %s", programPath, err)
		os.Exit(1)
	}

	prog, err := irtext.ParseString(programPath, string(source))
	if err != nil {
		irtext.ReportParseError(string(source), err)
		os.Exit(1)
	}

	program, err := irtext.ToIR(prog)
	if err != nil {
		color.Red("failed to convert %s: %s", programPath, err)
		os.Exit(1)
	}

	tableData, err := os.ReadFile(tablePath)
	if err != nil {
		color.Red("failed to read %s: %s", tablePath, err)
		os.Exit(1)
	}
	table, err := residual.DecodeTable(tableData)
	if err != nil {
		color.Red("failed to decode %s: %s", tablePath, err)
		os.Exit(1)
	}

	traceData, err := os.ReadFile(tracePath)
	if err != nil {
		color.Red("failed to read %s: %s", tracePath, err)
		os.Exit(1)
	}
	trace, err := residual.DecodeProgramTrace(traceData)
	if err != nil {
		color.Red("failed to decode %s: %s", tracePath, err)
		os.Exit(1)
	}

	woven, err := weaver.Weave(program, table, trace)
	if err != nil {
		fmt.Print(weavererrors.Reporter{}.Format(err))
		os.Exit(1)
	}

	for _, m := range woven.Methods {
		fmt.Printf("method %s: %d top-level ops woven in\n", m.Name, len(m.Body))
	}
	color.Green("woven %d methods from %s", len(woven.Methods), programPath)
}
