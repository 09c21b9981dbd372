package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/lox/wheelhouse/internal/game"
	"github.com/lox/wheelhouse/internal/harness"
)

type ReplayCmd struct {
	Log     string `arg:"" help:"Record log written by simulate --record" type:"existingfile"`
	Verbose bool   `help:"Verbose logging"`
}

func (c *ReplayCmd) Run() error {
	logger := log.New(os.Stderr)
	if c.Verbose {
		logger.SetLevel(log.DebugLevel)
	}

	blob, err := os.ReadFile(c.Log)
	if err != nil {
		return err
	}
	records, err := harness.DecodeRecords(blob)
	if err != nil {
		return err
	}
	logger.Info("replaying", "path", c.Log, "records", len(records))

	if err := harness.Verify(records); err != nil {
		return fmt.Errorf("replay failed: %w", err)
	}

	// Report where the log left the game.
	if len(records) > 0 {
		out, err := harness.DecodeOutput(records[len(records)-1].Output)
		if err != nil {
			return err
		}
		var final game.GameState
		if err := final.UnmarshalBinary(out.State); err != nil {
			return err
		}
		logger.Info("replay verified",
			"phase", final.Phase,
			"round", final.Round,
			"players", len(final.Players))
	}
	return nil
}
