// internal/writer/modbus/client.go
package modbus

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goburrow/modbus"
)

// EndpointClient holds the one TCP connection to status memory that all
// simulated instruments share. Each instrument writes under its own unit id,
// so requests go out one at a time.
type EndpointClient struct {
	mu       sync.Mutex
	endpoint string
	handler  *modbus.TCPClientHandler
	client   modbus.Client
}

// Config locates status memory.
type Config struct {
	Endpoint string
	Timeout  time.Duration
}

// NewEndpointClient dials status memory. The simulator refuses to start
// when an instrument asked for a status block and the endpoint is down.
func NewEndpointClient(cfg Config) (*EndpointClient, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("status memory: endpoint required")
	}

	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.Timeout = cfg.Timeout

	if err := h.Connect(); err != nil {
		return nil, fmt.Errorf("status memory %s: %w", cfg.Endpoint, err)
	}

	return &EndpointClient{
		endpoint: cfg.Endpoint,
		handler:  h,
		client:   modbus.NewClient(h),
	}, nil
}

// Close drops the connection.
func (c *EndpointClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handler.Close()
}

// WriteRegisters stores regs from addr on for one instrument's unit id
// (function 16). The handler redials on the next call after a failure.
func (c *EndpointClient) WriteRegisters(unitID uint8, addr uint16, regs []uint16) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.handler.SlaveId = unitID

	if _, err := c.client.WriteMultipleRegisters(addr, uint16(len(regs)), PackRegisters(regs)); err != nil {
		return fmt.Errorf("status memory %s unit %d @%d: %w", c.endpoint, unitID, addr, err)
	}
	return nil
}

// PackRegisters lays registers out high byte first.
func PackRegisters(regs []uint16) []byte {
	out := make([]byte, len(regs)*2)
	for i, r := range regs {
		out[2*i] = byte(r >> 8)
		out[2*i+1] = byte(r)
	}
	return out
}
