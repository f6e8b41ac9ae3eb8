// internal/writer/builder.go
package writer

import (
	"time"

	cfg "github.com/tamzrod/brewer-simulator/internal/config"
	wmodbus "github.com/tamzrod/brewer-simulator/internal/writer/modbus"
)

// BuildStatusPlan converts one instrument config into a status plan.
// Returns false when the instrument did not opt in.
// Assumes config has already passed Validate and Normalize.
func BuildStatusPlan(in cfg.InstrumentConfig, mem cfg.StatusMemoryConfig) (*StatusPlan, bool) {
	if in.StatusSlot == nil || in.StatusUnitID == nil {
		return nil, false
	}

	return &StatusPlan{
		Endpoint:   mem.Endpoint,
		UnitID:     *in.StatusUnitID,
		BaseSlot:   *in.StatusSlot,
		DeviceName: in.DeviceName,
	}, true
}

// BuildEndpointClient opens the shared status memory connection.
func BuildEndpointClient(mem cfg.StatusMemoryConfig) (*wmodbus.EndpointClient, func() error, error) {
	c, err := wmodbus.NewEndpointClient(wmodbus.Config{
		Endpoint: mem.Endpoint,
		Timeout:  time.Duration(mem.TimeoutMs) * time.Millisecond,
	})
	if err != nil {
		return nil, nil, err
	}
	return c, c.Close, nil
}
