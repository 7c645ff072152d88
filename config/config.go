// Package config loads and live-watches the adapter's process
// configuration (spec.md §6 "CLI / configuration (recognized keys)").
package config

import (
	"encoding/json"
	"os"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/sauk2/rmf-ros2/logging"
)

// FinishingRequest is what a robot should do once its task queue empties.
type FinishingRequest int

const (
	FinishingNothing FinishingRequest = iota
	FinishingCharge
	FinishingPark
)

func (f FinishingRequest) String() string {
	switch f {
	case FinishingCharge:
		return "charge"
	case FinishingPark:
		return "park"
	default:
		return "nothing"
	}
}

func parseFinishingRequest(s string, logger *logging.Logger) FinishingRequest {
	switch s {
	case "", "nothing":
		return FinishingNothing
	case "charge":
		return FinishingCharge
	case "park":
		return FinishingPark
	default:
		if logger != nil {
			logger.Warnw("unknown finishing_request, falling back to nothing", "value", s)
		}
		return FinishingNothing
	}
}

// Config is every recognized CLI/configuration key (spec.md §6).
type Config struct {
	FleetName            string `mapstructure:"fleet_name"`
	NavGraphFile         string `mapstructure:"nav_graph_file"`
	EnableResponsiveWait bool   `mapstructure:"enable_responsive_wait"`
	ServerURI            string `mapstructure:"server_uri"`
	LiftWatchdogService  string `mapstructure:"experimental_lift_watchdog_service"`
	FinishingRequest     FinishingRequest
	PerformLoop          bool `mapstructure:"perform_loop"`
	PerformDeliveries    bool `mapstructure:"perform_deliveries"`
	PerformCleaning      bool `mapstructure:"perform_cleaning"`
	DelayThreshold       float64 `mapstructure:"delay_threshold"`
	DisableDelayThreshold bool   `mapstructure:"disable_delay_threshold"`

	// Battery and power-system parameters are collaborator-specific and
	// decoded on demand by whoever needs them, rather than given a fixed
	// shape here.
	BatteryAndPower map[string]interface{} `mapstructure:"battery_and_power"`
}

type rawConfig struct {
	FleetName             string                 `json:"fleet_name"`
	NavGraphFile          string                 `json:"nav_graph_file"`
	EnableResponsiveWait  bool                   `json:"enable_responsive_wait"`
	ServerURI             string                 `json:"server_uri"`
	LiftWatchdogService   string                 `json:"experimental_lift_watchdog_service"`
	FinishingRequest      string                 `json:"finishing_request"`
	PerformLoop           bool                   `json:"perform_loop"`
	PerformDeliveries     bool                   `json:"perform_deliveries"`
	PerformCleaning       bool                   `json:"perform_cleaning"`
	DelayThreshold        float64                `json:"delay_threshold"`
	DisableDelayThreshold bool                   `json:"disable_delay_threshold"`
	BatteryAndPower       map[string]interface{} `json:"battery_and_power"`
}

// Load reads and decodes a JSON configuration file. Missing
// fleet_name/nav_graph_file are reported as errors — spec.md §7
// classifies these as ConfigError, fatal at startup.
func Load(path string, logger *logging.Logger) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %s", path)
	}
	return Parse(data, logger)
}

// Parse decodes raw JSON config bytes the way Load does, factored out so
// Watch can re-decode on file change without touching the filesystem
// twice.
func Parse(data []byte, logger *logging.Logger) (*Config, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "parsing config json")
	}

	var decoded rawConfig
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{TagName: "json", Result: &decoded})
	if err != nil {
		return nil, errors.Wrap(err, "building config decoder")
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, errors.Wrap(err, "decoding config")
	}

	var validationErr error
	if decoded.FleetName == "" {
		validationErr = multierr.Append(validationErr, errors.New("config error: fleet_name is required"))
	}
	if decoded.NavGraphFile == "" {
		validationErr = multierr.Append(validationErr, errors.New("config error: nav_graph_file is required"))
	}
	if validationErr != nil {
		return nil, validationErr
	}

	return &Config{
		FleetName:             decoded.FleetName,
		NavGraphFile:          decoded.NavGraphFile,
		EnableResponsiveWait:  decoded.EnableResponsiveWait,
		ServerURI:             decoded.ServerURI,
		LiftWatchdogService:   decoded.LiftWatchdogService,
		FinishingRequest:      parseFinishingRequest(decoded.FinishingRequest, logger),
		PerformLoop:           decoded.PerformLoop,
		PerformDeliveries:     decoded.PerformDeliveries,
		PerformCleaning:       decoded.PerformCleaning,
		DelayThreshold:        decoded.DelayThreshold,
		DisableDelayThreshold: decoded.DisableDelayThreshold,
		BatteryAndPower:       decoded.BatteryAndPower,
	}, nil
}

// LoadDotEnv optionally loads operator-supplied environment overrides
// from a .env file before flag parsing. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}
