package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Simulate SimulateCmd      `cmd:"" help:"Play a scenario from registration to game over"`
	Replay   ReplayCmd        `cmd:"" help:"Re-execute a recorded game log and verify every committed state"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("wheelhouse"),
		kong.Description("Deterministic rule engine for the wheel-of-fortune board game"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
