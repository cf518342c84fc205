package metrics

import (
	"time"
)

// DepthSource exposes the pending-job counts the collector samples
type DepthSource interface {
	Queues() ([]string, error)
	Depth(queue string) (int, error)
}

// Collector periodically samples queue depths into the QueueDepth gauge
type Collector struct {
	source DepthSource
	stopCh chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(source DepthSource) *Collector {
	return &Collector{
		source: source,
		stopCh: make(chan struct{}),
	}
}

// Start begins collecting metrics
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		// Collect immediately on start
		c.collect()

		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	queues, err := c.source.Queues()
	if err != nil {
		return
	}

	for _, name := range queues {
		depth, err := c.source.Depth(name)
		if err != nil {
			continue
		}
		QueueDepth.WithLabelValues(name).Set(float64(depth))
	}
}
