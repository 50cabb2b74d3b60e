package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	tracelang "go.tracelang.dev/pkg"
)

const (
	historyFile = ".tracelang_history"
	prompt      = "trace> "
	banner      = "tracelang — tracepoint expression shell. Ctrl+D to exit, :help for commands."
	helpText    = `
Commands:
  :help              Show this help
  :quit              Exit
  :bindings <file>   Load variable bindings from a YAML file
  :vars              List the current bindings
`
)

func main() {
	var bindingsPath string
	flag.StringVar(&bindingsPath, "bindings", "", "YAML file with variable bindings")
	flag.Parse()

	bindings := map[string]tracelang.Value{}
	if bindingsPath != "" {
		var err error
		bindings, err = loadBindings(bindingsPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	if args := flag.Args(); len(args) > 0 {
		os.Exit(runFile(args[0], bindings))
	}

	os.Exit(runREPL(bindings))
}

func loadBindings(path string) (map[string]tracelang.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	bindings, err := tracelang.ParseBindings(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return bindings, nil
}

func runFile(path string, bindings map[string]tracelang.Value) int {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot read %s: %v\n", path, err)
		return 1
	}

	program, cerr := tracelang.Parse(string(src))
	if cerr != nil {
		fmt.Fprintln(os.Stderr, cerr)
		return 1
	}

	entries, evalErr := tracelang.Evaluate(program, bindings)
	for _, entry := range entries {
		fmt.Println(entry)
	}

	if evalErr != nil {
		return 1
	}

	return 0
}

func runREPL(bindings map[string]tracelang.Value) int {
	fmt.Println(banner)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	for {
		line, err := ln.Prompt(prompt)
		if err != nil {
			// EOF or an aborted prompt ends the session
			fmt.Println()
			break
		}

		if strings.TrimSpace(line) == "" {
			continue
		}
		ln.AppendHistory(line)

		if strings.HasPrefix(strings.TrimSpace(line), ":") {
			if exit := command(line, &bindings); exit {
				break
			}
			continue
		}

		program, cerr := tracelang.Parse(line)
		if cerr != nil {
			fmt.Println(cerr)
			continue
		}

		entries, _ := tracelang.Evaluate(program, bindings)
		for _, entry := range entries {
			fmt.Println(entry)
		}
	}

	if f, err := os.Create(histPath); err == nil {
		_, _ = ln.WriteHistory(f)
		_ = f.Close()
	}

	return 0
}

func command(line string, bindings *map[string]tracelang.Value) (exit bool) {
	fields := strings.Fields(line)

	switch fields[0] {
	case ":help":
		fmt.Print(helpText)
	case ":quit", ":exit":
		return true
	case ":bindings":
		if len(fields) < 2 {
			fmt.Println("usage: :bindings <file>")
			return false
		}

		loaded, err := loadBindings(fields[1])
		if err != nil {
			fmt.Println(err)
			return false
		}

		*bindings = loaded
		fmt.Printf("loaded %d bindings\n", len(loaded))
	case ":vars":
		for name, v := range *bindings {
			fmt.Printf("%s = %s\n", name, v)
		}
	default:
		fmt.Println("unknown command. Type :help for help.")
	}

	return false
}
