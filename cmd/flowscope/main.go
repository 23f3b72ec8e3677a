package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/valhq/flowscope/internal/cli"
	"github.com/valhq/flowscope/pkg/buildinfo"
)

func main() {
	cli.SetVersion(buildinfo.Version, buildinfo.Commit, buildinfo.Date)

	if err := cli.Execute(); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130) // Standard shell convention for SIGINT
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
