package main

import (
	"fmt"
	"os"

	"github.com/example/book-social/internal/platform/run"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		run.Exit(1)
	}
}
