// cmd/brewersim/main_test.go
package main

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/brewer-simulator/internal/config"
)

func TestCloserStack_ReverseOrderAndErrors(t *testing.T) {
	log, hook := logtest.NewNullLogger()

	var order []string
	closer := func(name string, err error) func() error {
		return func() error {
			order = append(order, name)
			return err
		}
	}

	var c closerStack
	c.push(closer("status", nil))
	c.push(closer("port1", errors.New("busy")))
	c.push(closer("port2", nil))

	c.closeAll(log)

	assert.Equal(t, []string{"port2", "port1", "status"}, order)
	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)

	// second call is a no-op
	c.closeAll(log)
	assert.Len(t, order, 3)
}

func TestAnyStatus(t *testing.T) {
	slot, unit := uint16(0), uint8(1)

	assert.False(t, anyStatus([]config.InstrumentConfig{{ID: "a"}}))
	assert.False(t, anyStatus([]config.InstrumentConfig{{ID: "a", StatusSlot: &slot}}))
	assert.True(t, anyStatus([]config.InstrumentConfig{{ID: "a"}, {ID: "b", StatusSlot: &slot, StatusUnitID: &unit}}))
}

func TestSetupLogger(t *testing.T) {
	log := setupLogger(config.LogConfig{Level: "bogus", Format: "json"})

	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)

	log = setupLogger(config.LogConfig{Level: "debug", Format: "text"})
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)
}
