package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"os"

	"github.com/smarty/upkeep/contracts"
)

type Config struct {
	MaxRetry int
	Quiet    bool
	JSONPath string
	Root     string
	Baseline string
	Update   contracts.UpdateConfig
}

func parseConfig(args []string) (config Config, err error) {
	flags := flag.NewFlagSet("upkeep", flag.ContinueOnError)
	flags.StringVar(&config.JSONPath,
		"config",
		"upkeep.json",
		"Path to the updater config file.",
	)
	flags.StringVar(&config.Root,
		"root",
		".",
		"Installation directory to keep synchronized.",
	)
	flags.IntVar(&config.MaxRetry,
		"max-retry",
		5,
		"How many times to retry transient network failures.",
	)
	flags.BoolVar(&config.Quiet,
		"quiet",
		false,
		"Suppress progress output (the log file still receives every action).",
	)
	flags.StringVar(&config.Baseline,
		"baseline",
		"",
		"Optional known-good archive used to restore missing files offline.",
	)
	err = flags.Parse(args)
	if err != nil {
		return Config{}, err
	}

	config.Update = contracts.UpdateConfig{
		Branch:       "main",
		VersionFile:  "VERSION",
		ManifestFile: "filelist.txt",
		LogFile:      "update.log",
	}
	raw, err := ioutil.ReadFile(config.JSONPath)
	if os.IsNotExist(err) {
		emitExampleConfigFile()
		return Config{}, fmt.Errorf("config file not found: %s", config.JSONPath)
	}
	if err != nil {
		return Config{}, err
	}
	err = json.Unmarshal(raw, &config.Update)
	if err != nil {
		return Config{}, err
	}

	err = config.Update.Validate()
	if err != nil {
		return Config{}, err
	}
	return config, nil
}

func emitExampleConfigFile() {
	example := contracts.UpdateConfig{
		Owner:        "example-owner",
		Repository:   "example-repository",
		Branch:       "main",
		VersionFile:  "VERSION",
		ManifestFile: "filelist.txt",
		LogFile:      "update.log",
		Protected:    []string{"upkeep.json"},
	}
	raw, err := json.MarshalIndent(example, "", "  ")
	if err != nil {
		log.Print(err)
	}
	log.Print("Example config file:\n", string(raw))
}
