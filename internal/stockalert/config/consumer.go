package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/loja/cadastroprodutos/internal/product/events"
)

// maxBatch is the JetStream default for max_request_batch.
const maxBatch = 256

// ConsumerConfig is the durable pull consumer on product quantity updates and the rule that turns an update into
// a stock alert.
type ConsumerConfig struct {
	Stream    string        `koanf:"stream"`
	Durable   string        `koanf:"durable"`
	Batch     int           `koanf:"batch"`
	FetchWait time.Duration `koanf:"fetchwait"`
	Backoff   time.Duration `koanf:"backoff"`
	Workers   int           `koanf:"workers"`
	// Threshold is the quantity at or below which a product is reported as low on stock.
	Threshold int32 `koanf:"threshold"`
}

// Subject is the only subject the consumer reads.
func (c *ConsumerConfig) Subject() string {
	return events.ProductQuantityUpdatedSubject
}

func (c *ConsumerConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Stock Alert Consumer ---\n")
	b.WriteString(fmt.Sprintf("  stream: %s\n", c.Stream))
	b.WriteString(fmt.Sprintf("  subject: %s\n", c.Subject()))
	b.WriteString(fmt.Sprintf("  durable: %s\n", c.Durable))
	b.WriteString(fmt.Sprintf("  batch: %d, fetchwait: %s, backoff: %s\n", c.Batch, c.FetchWait, c.Backoff))
	b.WriteString(fmt.Sprintf("  workers: %d\n", c.Workers))
	b.WriteString(fmt.Sprintf("  threshold: %d\n", c.Threshold))
	return b.String()
}

func (c *ConsumerConfig) Validate() error {
	if c.Stream == "" {
		return fmt.Errorf("consumer.stream is not configured")
	}
	if c.Durable == "" {
		return fmt.Errorf("consumer.durable is not configured")
	}
	if strings.ContainsAny(c.Durable, ".*> \t") {
		return fmt.Errorf("consumer.durable %q must not contain '.', '*', '>' or whitespace", c.Durable)
	}
	if c.Batch <= 0 || c.Batch > maxBatch {
		return fmt.Errorf("consumer.batch must be between 1 and %d, got %d", maxBatch, c.Batch)
	}
	if c.FetchWait <= 0 {
		return fmt.Errorf("consumer.fetchwait must be greater than zero")
	}
	if c.Backoff <= 0 {
		return fmt.Errorf("consumer.backoff must be greater than zero")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("consumer.workers must be greater than zero")
	}
	if c.Threshold < 0 {
		return fmt.Errorf("consumer.threshold must not be negative, got %d", c.Threshold)
	}
	return nil
}
