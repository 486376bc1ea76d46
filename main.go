package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/OpenCosmics/sapphire/pkg/calibration"
	"github.com/OpenCosmics/sapphire/pkg/export"
	"github.com/OpenCosmics/sapphire/pkg/logging"
	"github.com/OpenCosmics/sapphire/pkg/process"
	"github.com/OpenCosmics/sapphire/pkg/storage"
	"github.com/OpenCosmics/sapphire/pkg/timing"
)

func main() {
	configFilename := flag.String("config", "", "Configuration file path")
	flag.Parse()

	logger := logging.Default()
	process.SetLogger(logger)

	configuration, err := LoadConfiguration(*configFilename)
	if err != nil {
		logger.Error(fmt.Sprintf("Error reading configuration file: %v", err))
		return
	}
	if configuration.Verbosity > 0 {
		printConfiguration(configuration, logger.InfoLog)
	}

	db, err := storage.ConnectToDatabase(configuration.User, configuration.Passwd,
		configuration.Host, configuration.DBName)
	if err != nil {
		logger.Error(fmt.Sprintf("Error connecting to database: %v", err))
		return
	}
	defer db.Close()

	store := storage.NewSQLStore(db)
	if err := store.EnsureBlobTable(); err != nil {
		logger.Error(fmt.Sprintf("Error preparing trace storage: %v", err))
		return
	}

	var opts []process.Option
	switch configuration.Strategy {
	case "", "nearest":
	case "interpolation":
		opts = append(opts, process.WithStrategy(timing.LinearInterpolation{
			Threshold:    configuration.Threshold,
			SamplePeriod: configuration.SamplePeriod,
		}))
	default:
		logger.Error(fmt.Sprintf("Unknown timing strategy: %q", configuration.Strategy))
		return
	}
	if configuration.SkipTraces {
		opts = append(opts, process.WithoutTraces())
	}

	processor, err := process.NewProcessor(store, store, configuration.processConfig(),
		configuration.SourceTable, opts...)
	if err != nil {
		logger.Error(fmt.Sprintf("Error opening source table: %v", err))
		return
	}

	start := time.Now()
	err = processor.ProcessAndStoreResults(configuration.DestinationTable,
		configuration.Overwrite, configuration.MaxEvents)
	if err != nil {
		logger.Error(fmt.Sprintf("Error processing events: %v", err))
		return
	}
	logger.Info(fmt.Sprintf("Total processing time: %d ms", time.Since(start).Milliseconds()), "main")

	destination := configuration.DestinationTable
	if destination == "" {
		destination = process.DefaultTableName
	}

	if configuration.ComputeOffsets {
		results, err := store.Table(destination)
		if err != nil {
			logger.Error(fmt.Sprintf("Error opening results table: %v", err))
			return
		}
		offsets, err := calibration.DetectorTimingOffsets(results)
		if err != nil {
			logger.Error(fmt.Sprintf("Error computing timing offsets: %v", err))
			return
		}
		for d, offset := range offsets {
			logger.Info(fmt.Sprintf("Detector %d timing offset: %.2f ns", d+1, offset), "calibration")
		}
	}

	if configuration.FileOut != "" {
		err := export.ExportTable(store, destination, configuration.FileOut,
			configuration.CompressionLevel)
		if err != nil {
			logger.Error(fmt.Sprintf("Error exporting results: %v", err))
			return
		}
		logger.Info(fmt.Sprintf("Results exported to %s", configuration.FileOut), "main")
	}
}
