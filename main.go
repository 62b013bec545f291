package main

import (
	"log/slog"
	"os"

	"github.com/disgoorg/disunit/cmd"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if err := cmd.Execute(version, commit); err != nil {
		slog.Error("disunit failed", slog.String("type", "sys"), slog.Any("error", err))
		os.Exit(-1)
	}
}
