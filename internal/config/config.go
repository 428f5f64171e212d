package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/ws2812spi/model"
	"github.com/coreman2200/ws2812spi/ws2812"
)

// Drivers accepted in Config.Driver.
const (
	DriverStream      = "stream"
	DriverPrerendered = "prerendered"
	DriverHosted      = "hosted"
	DriverNRZ         = "nrzled"
	DriverConsole     = "console"
)

type SPI struct {
	Dev                    string `yaml:"dev"`      // periph port name, e.g. SPI0.0 or /dev/spidev0.0
	SpeedHz                int    `yaml:"speed_hz"` // 2000000..3800000
	ResetUs                int    `yaml:"reset_us"` // e.g. 300
	MOSIIdleHigh           bool   `yaml:"mosi_idle_high"`
	ResetSingleTransaction bool   `yaml:"reset_single_transaction"`
	QueueDepth             int    `yaml:"queue_depth"`
}

type Monitor struct {
	Addr string `yaml:"addr"` // empty disables the preview server
}

type Layout struct {
	Strips     int  `yaml:"strips"`
	Serpentine bool `yaml:"serpentine"`
}

type Config struct {
	Driver     string  `yaml:"driver"`
	NumPixels  int     `yaml:"num_pixels"`
	ColorOrder string  `yaml:"color_order"`
	Brightness float64 `yaml:"brightness"`
	FPS        int     `yaml:"fps"`

	Layout  Layout  `yaml:"layout,omitempty"`
	SPI     SPI     `yaml:"spi"`
	Monitor Monitor `yaml:"monitor,omitempty"`
}

// Default returns a 60 pixel GRB strip on the first SPI port.
func Default() *Config {
	return &Config{
		Driver:     DriverHosted,
		NumPixels:  60,
		ColorOrder: string(model.OrderGRB),
		Brightness: 0.5,
		FPS:        30,
		Layout:     Layout{Strips: 1},
		SPI: SPI{
			SpeedHz:    int(ws2812.DefaultFreq / physic.Hertz),
			ResetUs:    int(ws2812.DefaultReset / time.Microsecond),
			QueueDepth: ws2812.DefaultQueueDepth,
		},
	}
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// Validate checks the fields the writers depend on.
func (c *Config) Validate() error {
	switch c.Driver {
	case DriverStream, DriverPrerendered, DriverHosted, DriverNRZ, DriverConsole:
	default:
		return fmt.Errorf("unknown driver %q", c.Driver)
	}
	if c.NumPixels < 0 {
		return fmt.Errorf("invalid num_pixels %d", c.NumPixels)
	}
	if c.Brightness < 0 || c.Brightness > 1 {
		return fmt.Errorf("brightness %g out of 0..1", c.Brightness)
	}
	if c.Layout.Strips > 0 && c.NumPixels%c.Layout.Strips != 0 {
		return fmt.Errorf("num_pixels %d does not split into %d strips", c.NumPixels, c.Layout.Strips)
	}
	o, err := c.Opts()
	if err != nil {
		return err
	}
	return o.Validate()
}

// Opts maps the spi section onto writer options.
func (c *Config) Opts() (ws2812.Opts, error) {
	order, err := model.ParseOrder(c.ColorOrder)
	if err != nil {
		return ws2812.Opts{}, err
	}
	o := ws2812.DefaultOpts()
	o.Order = order
	o.MOSIIdleHigh = c.SPI.MOSIIdleHigh
	o.ResetSingleTransaction = c.SPI.ResetSingleTransaction
	if c.SPI.SpeedHz != 0 {
		o.Freq = physic.Frequency(c.SPI.SpeedHz) * physic.Hertz
	}
	if c.SPI.ResetUs != 0 {
		o.Reset = time.Duration(c.SPI.ResetUs) * time.Microsecond
	}
	if c.SPI.QueueDepth != 0 {
		o.QueueDepth = c.SPI.QueueDepth
	}
	return o, nil
}

// Freq is the SPI clock to connect at.
func (c *Config) Freq() physic.Frequency {
	if c.SPI.SpeedHz == 0 {
		return ws2812.DefaultFreq
	}
	return physic.Frequency(c.SPI.SpeedHz) * physic.Hertz
}
