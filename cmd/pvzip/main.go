package main

import (
	"context"
	"errors"
	"log"

	"github.com/jessevdk/go-flags"
	"github.com/nguyengg/pvzip/internal/cmd"
)

func main() {
	p, err := cmd.NewParser()
	if err != nil {
		log.Fatal(err)
	}

	_, err = p.Parse()
	exit(err)
}

// exitCode returns 0 on success or help, 130 if interrupted, 1 otherwise.
func exitCode(err error) int {
	switch {
	case err == nil, flags.WroteHelp(err):
		return 0
	case errors.Is(err, context.Canceled):
		return 130
	default:
		return 1
	}
}
