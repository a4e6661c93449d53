// Package env provides the common options of meter tools.
package env

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/robotalks/meter.go/pkg/display"
	"github.com/robotalks/meter.go/pkg/gauge"
)

// Config is the meter configuration.
type Config struct {
	// I2CBus names the bus shared by both peripherals, empty for the first.
	I2CBus string
	// PowerPin names the GPIO switching the peripheral rail.
	PowerPin string

	Variant string

	// FeedURL selects the record source, see feed.Open.
	FeedURL string
	// MQTTBrokerURL is where status events go, empty disables them.
	// e.g. mqtt://host:port/topic-prefix
	MQTTBrokerURL string
	// ID names this controller in status topics.
	ID string

	// Date and SpoilerTeam are applied to mlb feeds.
	Date        string
	SpoilerTeam int

	Mapping gauge.Mapping
}

var defaultConfig = Config{
	PowerPin:      "GPIO17",
	Variant:       display.Scores.Name,
	FeedURL:       "mlb://statsapi.mlb.com",
	MQTTBrokerURL: "",
	Mapping:       gauge.DefaultMapping,
}

func init() {
	if val := os.Getenv("METER_I2C_BUS"); val != "" {
		defaultConfig.I2CBus = val
	}
	if val := os.Getenv("METER_POWER_PIN"); val != "" {
		defaultConfig.PowerPin = val
	}
	if val := os.Getenv("METER_FEED_URL"); val != "" {
		defaultConfig.FeedURL = val
	}
	if val := os.Getenv("METER_MQTT_URL"); val != "" {
		defaultConfig.MQTTBrokerURL = val
	}
	if val := os.Getenv("METER_ID"); val != "" {
		defaultConfig.ID = val
	}
}

// SetupFlags sets command line flags for hardware options.
func SetupFlags() {
	flag.StringVar(&defaultConfig.I2CBus, "i2c", defaultConfig.I2CBus, "I2C bus name")
	flag.StringVar(&defaultConfig.PowerPin, "power-pin", defaultConfig.PowerPin, "GPIO of peripheral power rail")
	flag.Float64Var(&defaultConfig.Mapping.Scale, "gauge-scale", defaultConfig.Mapping.Scale, "Gauge steps for ratio 1")
	flag.Float64Var(&defaultConfig.Mapping.OffsetA, "gauge-offset-a", defaultConfig.Mapping.OffsetA, "Gauge A step offset")
	flag.Float64Var(&defaultConfig.Mapping.OffsetB, "gauge-offset-b", defaultConfig.Mapping.OffsetB, "Gauge B step offset")
}

// SetupDaemonFlags sets the flags of the display daemon in addition to
// SetupFlags.
func SetupDaemonFlags() {
	SetupFlags()
	flag.StringVar(&defaultConfig.Variant, "variant", defaultConfig.Variant, "Display variant: scores or track")
	flag.StringVar(&defaultConfig.FeedURL, "feed", defaultConfig.FeedURL, "Record feed URL")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL for status events")
	flag.StringVar(&defaultConfig.ID, "id", defaultConfig.ID, "Controller ID, machine ID if empty")
	flag.StringVar(&defaultConfig.Date, "date", defaultConfig.Date, "MLB date MM/DD/YYYY, today if empty")
	flag.IntVar(&defaultConfig.SpoilerTeam, "spoiler-team", defaultConfig.SpoilerTeam, "MLB team ID to hide")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Validate checks the options and fills derived defaults.
func (c *Config) Validate() error {
	if c.PowerPin == "" {
		return fmt.Errorf("power pin must be specified")
	}
	if _, err := display.VariantByName(c.Variant); err != nil {
		return err
	}
	if c.Mapping.Scale <= 0 {
		return fmt.Errorf("invalid gauge scale %v", c.Mapping.Scale)
	}
	if c.ID == "" {
		c.ID = MachineID()
	}
	return nil
}

// MustValidate validates and fails on error.
func (c *Config) MustValidate() *Config {
	if err := c.Validate(); err != nil {
		log.Fatalln(err)
	}
	return c
}

// DisplayVariant returns the selected variant. Config must be valid.
func (c *Config) DisplayVariant() display.Variant {
	v, _ := display.VariantByName(c.Variant)
	return v
}
