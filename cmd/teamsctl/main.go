// Command teamsctl administers the ITACPC teams database: migrations,
// university seeding, staff accounts and judging-system exports.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	cli := &commandLine{
		stdout: os.Stdout,
		stderr: os.Stderr,
		open:   openPostgres,
	}
	if err := cli.run(context.Background(), os.Args); err != nil {
		if !errors.Is(err, errHelp) {
			slog.Error("command failed", "error", err)
		}
		os.Exit(1)
	}
}
