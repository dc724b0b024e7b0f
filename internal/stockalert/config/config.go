// Package config holds the stock alert consumer configuration.
package config

import (
	"fmt"
	"strings"

	"github.com/loja/cadastroprodutos/pkg/config"
	"github.com/loja/cadastroprodutos/pkg/config/configloader"
)

var _ configloader.Validator = (*Config)(nil)

type Config struct {
	Log      config.LogConfig           `koanf:"log"`
	PProf    config.PProfConfig         `koanf:"pprof"`
	Nats     config.NATSConfig          `koanf:"nats"`
	Consumer ConsumerConfig             `koanf:"consumer"`
	Catalog  config.ProductClientConfig `koanf:"catalog"`
	Shutdown config.ShutdownConfig      `koanf:"shutdown"`
}

func (c *Config) String() string {
	var b strings.Builder
	b.WriteString(c.Nats.String())
	b.WriteString(c.Consumer.String())
	b.WriteString(c.Catalog.String())
	b.WriteString(c.Log.String())
	b.WriteString(c.PProf.String())
	b.WriteString(c.Shutdown.String())
	return b.String()
}

// Validate checks if the configuration values are valid
func (c *Config) Validate() error {
	if !c.Nats.Enabled {
		return fmt.Errorf("nats.enabled must be true for the stock alert consumer")
	}
	for _, v := range []configloader.Validator{&c.Log, &c.PProf, &c.Nats, &c.Consumer, &c.Catalog, &c.Shutdown} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	if c.Consumer.Stream != c.Nats.Stream {
		return fmt.Errorf("consumer.stream %q must match nats.stream %q", c.Consumer.Stream, c.Nats.Stream)
	}
	return nil
}
