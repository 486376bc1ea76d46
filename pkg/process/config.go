package process

import (
	"encoding/json"
	"os"

	"github.com/OpenCosmics/sapphire/pkg/timing"
)

// Config carries the processing parameters. The physics constants are
// explicit here, not ambient package state, so several configurations
// can run side by side.
type Config struct {
	// Threshold is the signal margin above baseline, in ADC units.
	Threshold int `json:"adc_threshold"`
	// SamplePeriod is the ADC sample period in seconds.
	SamplePeriod float64 `json:"adc_sample_period"`
	// NumWorkers enables parallel trace reconstruction when > 1.
	NumWorkers int `json:"num_workers"`
	// UseIntegrals selects pulse integrals instead of pulseheights for
	// the MIP calibration and particle counts.
	UseIntegrals bool `json:"use_integrals"`
	Verbosity    int  `json:"verbosity"`
}

func DefaultConfig() Config {
	return Config{
		Threshold:    timing.DefaultThreshold,
		SamplePeriod: timing.DefaultSamplePeriod,
		NumWorkers:   1,
	}
}

// LoadConfig reads a JSON configuration file on top of the defaults.
func LoadConfig(filename string) (Config, error) {
	config := DefaultConfig()
	data, err := os.ReadFile(filename)
	if err != nil {
		return config, err
	}
	err = json.Unmarshal(data, &config)
	return config, err
}
