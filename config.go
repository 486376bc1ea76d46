package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/OpenCosmics/sapphire/pkg/process"
	"github.com/OpenCosmics/sapphire/pkg/timing"
)

type Configuration struct {
	SourceTable      string  `json:"source_table"`
	DestinationTable string  `json:"destination_table"`
	Overwrite        bool    `json:"overwrite"`
	MaxEvents        int     `json:"max_events"`
	Strategy         string  `json:"strategy"`
	SkipTraces       bool    `json:"skip_traces"`
	UseIntegrals     bool    `json:"use_integrals"`
	Threshold        int     `json:"adc_threshold"`
	SamplePeriod     float64 `json:"adc_sample_period"`
	ComputeOffsets   bool    `json:"compute_offsets"`
	FileOut          string  `json:"file_out"`
	CompressionLevel int     `json:"compression_level"`
	Host             string  `json:"host"`
	User             string  `json:"user"`
	Passwd           string  `json:"pass"`
	DBName           string  `json:"dbname"`
	NumWorkers       int     `json:"num_workers"`
	Verbosity        int     `json:"verbosity"`
}

func LoadConfiguration(filename string) (Configuration, error) {
	var config Configuration

	// Set default values
	config.SourceTable = ""
	config.DestinationTable = ""
	config.Overwrite = false
	config.MaxEvents = 0
	config.Strategy = "nearest"
	config.SkipTraces = false
	config.UseIntegrals = false
	config.Threshold = timing.DefaultThreshold
	config.SamplePeriod = timing.DefaultSamplePeriod
	config.ComputeOffsets = false
	config.FileOut = ""
	config.CompressionLevel = 5
	config.Host = "localhost"
	config.User = "hisparc"
	config.Passwd = ""
	config.DBName = "hisparc"
	config.NumWorkers = 1
	config.Verbosity = 1

	data, err := os.ReadFile(filename)
	if err != nil {
		return config, err
	}
	err = json.Unmarshal(data, &config)
	if err != nil {
		return config, err
	}
	return config, nil
}

func (c Configuration) processConfig() process.Config {
	return process.Config{
		Threshold:    c.Threshold,
		SamplePeriod: c.SamplePeriod,
		NumWorkers:   c.NumWorkers,
		UseIntegrals: c.UseIntegrals,
		Verbosity:    c.Verbosity,
	}
}

func printConfiguration(config Configuration, logger *slog.Logger) {
	logger.Info(fmt.Sprintf("Source table: %s", config.SourceTable), "module", "config")
	logger.Info(fmt.Sprintf("Destination table: %s", config.DestinationTable), "module", "config")
	logger.Info(fmt.Sprintf("Overwrite: %t", config.Overwrite), "module", "config")
	logger.Info(fmt.Sprintf("Max events: %d", config.MaxEvents), "module", "config")
	logger.Info(fmt.Sprintf("Strategy: %s", config.Strategy), "module", "config")
	logger.Info(fmt.Sprintf("Skip traces: %t", config.SkipTraces), "module", "config")
	logger.Info(fmt.Sprintf("Use integrals: %t", config.UseIntegrals), "module", "config")
	logger.Info(fmt.Sprintf("ADC threshold: %d", config.Threshold), "module", "config")
	logger.Info(fmt.Sprintf("ADC sample period: %g", config.SamplePeriod), "module", "config")
	logger.Info(fmt.Sprintf("Compute offsets: %t", config.ComputeOffsets), "module", "config")
	logger.Info(fmt.Sprintf("File out: %s", config.FileOut), "module", "config")
	logger.Info(fmt.Sprintf("Host: %s", config.Host), "module", "config")
	logger.Info(fmt.Sprintf("DB name: %s", config.DBName), "module", "config")
	logger.Info(fmt.Sprintf("Number of workers: %d", config.NumWorkers), "module", "config")
	logger.Info(fmt.Sprintf("Verbosity: %d", config.Verbosity), "module", "config")
}
