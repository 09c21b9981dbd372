package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/lox/wheelhouse/internal/fileutil"
	"github.com/lox/wheelhouse/internal/harness"
	"github.com/lox/wheelhouse/internal/scenario"
	"github.com/lox/wheelhouse/internal/simulator"
)

type SimulateCmd struct {
	Scenario string `arg:"" optional:"" help:"Scenario HCL file (omit for the built-in two-player game)" type:"existingfile"`
	Seed     uint64 `help:"Override the scenario seed"`
	Record   string `help:"Write the harness record log to this file" type:"path"`
	Verify   bool   `help:"Play the scenario twice and require identical results"`
	Verbose  bool   `help:"Verbose logging"`
}

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1).
			Bold(true)
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))
	winnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")).
			Bold(true)
	brokeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))
)

func (c *SimulateCmd) Run() error {
	logger := log.New(os.Stderr)
	if c.Verbose {
		logger.SetLevel(log.DebugLevel)
	}

	scn := scenario.Default()
	if c.Scenario != "" {
		loaded, err := scenario.Load(c.Scenario)
		if err != nil {
			return err
		}
		scn = loaded
	}
	if c.Seed != 0 {
		scn.Game.Seed = c.Seed
	}

	sim := simulator.New(scn, logger)
	if c.Verify {
		if err := sim.VerifyDeterminism(context.Background()); err != nil {
			return err
		}
		logger.Info("determinism verified", "seed", scn.Game.Seed)
	}

	res, err := sim.Play()
	if err != nil {
		return err
	}

	if c.Record != "" {
		blob, err := harness.EncodeRecords(res.Records)
		if err != nil {
			return err
		}
		if err := fileutil.WriteFileAtomic(c.Record, blob, 0o644); err != nil {
			return err
		}
		logger.Info("record log written", "path", c.Record, "records", len(res.Records))
	}

	printSummary(res, scn)
	return nil
}

func printSummary(res *simulator.Result, scn *scenario.Scenario) {
	var b strings.Builder
	b.WriteString(titleStyle.Render("wheelhouse simulation") + "\n\n")
	b.WriteString(fmt.Sprintf("%s %d\n", labelStyle.Render("seed:"), scn.Game.Seed))
	b.WriteString(fmt.Sprintf("%s %d\n", labelStyle.Render("actions:"), res.Actions))
	b.WriteString(fmt.Sprintf("%s %d\n", labelStyle.Render("events:"), len(res.Events)))
	if res.Winner != "" {
		b.WriteString(fmt.Sprintf("%s %s (%d coins)\n",
			labelStyle.Render("winner:"), winnerStyle.Render(string(res.Winner)), res.FinalCoins))
	} else {
		b.WriteString(labelStyle.Render("winner:") + " none, every player went broke\n")
	}

	b.WriteString("\n" + labelStyle.Render("final standings:") + "\n")
	for _, p := range res.State.Players {
		line := fmt.Sprintf("  %-12s %6d coins", p.Name, p.Coins)
		if p.Coins == 0 {
			line = brokeStyle.Render(line)
		} else if p.ID == res.Winner {
			line = winnerStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	fmt.Print(b.String())
}
