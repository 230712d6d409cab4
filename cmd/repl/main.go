package main

import (
	"fmt"
	"os"

	"weaver/repl"
)

func main() {
	fmt.Println("weave repl — paste an irtext fixture, blank line to parse it")
	repl.Start(os.Stdin, os.Stdout)
}
