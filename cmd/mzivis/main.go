// Command mzivis runs a temperature scan against an MZI photonic chip and
// extracts the interference visibility of the resulting fringe.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/1smaa/mzivis/internal/fringe"
	"github.com/1smaa/mzivis/internal/instruments"
	"github.com/1smaa/mzivis/internal/instruments/mecom"
	"github.com/1smaa/mzivis/internal/instruments/simulated"
	"github.com/1smaa/mzivis/internal/instruments/tek"
	"github.com/1smaa/mzivis/internal/log"
	"github.com/1smaa/mzivis/internal/report"
	"github.com/1smaa/mzivis/internal/scan"
	"github.com/1smaa/mzivis/pkg/config"
)

const version = "1.0-" + runtime.GOOS + "/" + runtime.GOARCH

func main() {
	cfgFile := flag.String("config", "config.yaml", "Path to YAML configuration file")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("mzivis %s\n", version)
		os.Exit(0)
	}

	cfg, err := config.Load(*cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := log.Init(*debug || cfg.Debug); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	osc, tec, err := buildInstruments(cfg)
	if err != nil {
		log.Fatalf("Failed to set up instruments: %v", err)
	}
	defer osc.Close()
	defer tec.Close()

	proc := fringe.NewProcessor(cfg.Processing, log.GetSugaredLogger())
	engine := scan.New(osc, tec, proc, cfg, log.GetSugaredLogger())

	result, err := engine.Run(context.Background())
	if err != nil {
		log.Fatalf("Scan failed: %v", err)
	}

	rec := report.NewRecord(result, cfg)
	path, err := report.Write(cfg.Output.Directory, rec)
	if err != nil {
		log.Fatalf("Failed to write results: %v", err)
	}
	log.Infof("results written to %s", path)

	if cfg.Output.SQLitePath != "" {
		archive, err := report.OpenArchive(cfg.Output.SQLitePath)
		if err != nil {
			log.Errorf("Failed to open run archive: %v", err)
		} else {
			if err := archive.SaveRun(rec); err != nil {
				log.Errorf("Failed to archive run: %v", err)
			}
			archive.Close()
		}
	}

	report.Summarize(os.Stdout, rec)
}

// buildInstruments selects drivers from the configuration. When both
// devices are simulated they share one bench so the simulated scope sees
// the simulated setpoint.
func buildInstruments(cfg *config.Config) (instruments.Oscilloscope, instruments.TemperatureController, error) {
	if cfg.Scope.Type == "simulated" && cfg.TEC.Type == "simulated" {
		bench := simulated.NewBench(simulated.DefaultBenchParams(), log.GetSugaredLogger())
		return bench.Oscilloscope(), bench.TemperatureController(), nil
	}

	var osc instruments.Oscilloscope
	var err error
	switch cfg.Scope.Type {
	case "tek":
		osc, err = tek.Dial(cfg.Scope, cfg.Processing.SamplingRate, log.GetSugaredLogger())
	case "simulated":
		osc = simulated.NewBench(simulated.DefaultBenchParams(), log.GetSugaredLogger()).Oscilloscope()
	default:
		err = fmt.Errorf("unknown oscilloscope type %q", cfg.Scope.Type)
	}
	if err != nil {
		return nil, nil, err
	}

	var tec instruments.TemperatureController
	switch cfg.TEC.Type {
	case "mecom":
		tec, err = mecom.Open(cfg.TEC, cfg.Scan.Tolerance, cfg.Scan.SettlePoll(), log.GetSugaredLogger())
	case "simulated":
		tec = simulated.NewBench(simulated.DefaultBenchParams(), log.GetSugaredLogger()).TemperatureController()
	default:
		err = fmt.Errorf("unknown temperature controller type %q", cfg.TEC.Type)
	}
	if err != nil {
		osc.Close()
		return nil, nil, err
	}

	return osc, tec, nil
}
