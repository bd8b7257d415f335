package main

import (
	"io"

	"github.com/spf13/pflag"

	"github.com/accord-protocol/solverd/core/config"
)

type checkConfigOutput struct {
	OK     bool             `json:"ok"`
	Config *config.Config   `json:"config,omitempty"`
	Error  *structuredError `json:"error,omitempty"`
}

func runCheckConfig(arguments []string) int {
	flagSet := pflag.NewFlagSet("check-config", pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	var configPath string
	var helpFlag bool
	flagSet.StringVar(&configPath, "config", "", "optional YAML config file path (merged over env, file wins)")
	flagSet.BoolVarP(&helpFlag, "help", "h", false, "show help")

	if err := flagSet.Parse(arguments); err != nil {
		return writeJSONWithExit(checkConfigOutput{Error: newStructuredError("flag_parse_error", "", err)}, exitOther)
	}
	if helpFlag {
		printUsage()
		return exitOK
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return writeJSONWithExit(checkConfigOutput{Error: newStructuredError("config_load_error", "", err)}, exitOther)
	}
	if err := cfg.Validate(); err != nil {
		return writeJSONWithExit(checkConfigOutput{Error: newStructuredError("config_invalid", "", err)}, exitOther)
	}

	return writeJSONWithExit(checkConfigOutput{OK: true, Config: &cfg}, exitOK)
}
