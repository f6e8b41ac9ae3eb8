// internal/engine/query.go
package engine

import (
	"fmt"
	"math"
	"strconv"

	"github.com/tamzrod/brewer-simulator/internal/device"
	"github.com/tamzrod/brewer-simulator/internal/protocol"
)

// Canned MkIII housekeeping values.
var (
	queryTemps = map[string]string{
		"PMT":      "19.158888",
		"FAN":      "19.633333",
		"BASE":     "17.637777",
		"EXTERNAL": "-37.777777",
	}

	queryScalars = map[string]string{
		"RH.SLOPE":  "0.031088",
		"RH.ORIGIN": "0.863000",
	}
)

const trackerMotorClass = "TRACKERMOTOR"

// query answers ?NAME[index].
func (e *Engine) query(cmd protocol.Command) ([]protocol.Token, error) {
	reply, err := e.queryValue(cmd.Query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cmd.Text, err)
	}
	e.log.Infof("got keyword %q, value: %s", cmd.Text, reply)
	return protocol.WithExtended(protocol.Bytes(reply)), nil
}

func (e *Engine) queryValue(q protocol.Query) (string, error) {
	st := e.state

	if v, ok := queryScalars[q.Name]; ok && q.Index == "" {
		return v, nil
	}

	switch q.Name {
	case "TEMP":
		if v, ok := queryTemps[q.Index]; ok {
			return v, nil
		}

	case "ANALOG.NOW":
		i, err := queryIndex(q, device.ValidSensor)
		if err != nil {
			return "", err
		}
		return formatReading(st.Sensors[i].Value(st.Settings.Model)), nil

	case "MOTOR.CLASS":
		i, err := queryIndex(q, device.ValidMotor)
		if err != nil {
			return "", err
		}
		if i == device.MotorAzimuth || i == device.MotorZenithTracker {
			return trackerMotorClass, nil
		}

	case "MOTOR.STEPS":
		i, err := queryIndex(q, device.ValidMotor)
		if err != nil {
			return "", err
		}
		return strconv.Itoa(st.Motors[i].StepsFromZero), nil

	case "MOTOR.STEPS.PER.REV":
		i, err := queryIndex(q, device.ValidMotor)
		if err != nil {
			return "", err
		}
		if i == device.MotorAzimuth {
			return strconv.Itoa(st.Settings.AzimuthStepsPerRev), nil
		}
		if spd := st.Motors[i].StepsPerDegree; spd > 0 {
			return strconv.Itoa(int(math.Round(spd * 360))), nil
		}
	}

	return "", protocol.ErrUnrecognizedCommand
}

func queryIndex(q protocol.Query, valid func(int) bool) (int, error) {
	i, err := strconv.Atoi(q.Index)
	if err != nil {
		return 0, fmt.Errorf("index %q: %w", q.Index, protocol.ErrMalformedArgument)
	}
	if !valid(i) {
		return 0, fmt.Errorf("index %d: %w", i, protocol.ErrMalformedArgument)
	}
	return i, nil
}
