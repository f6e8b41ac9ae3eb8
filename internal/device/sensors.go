// internal/device/sensors.go
package device

// AnalogSensor holds the two board-specific raw readings of one channel.
type AnalogSensor struct {
	Name       string
	ValueMkII  float64
	ValueMkIII float64
}

// Value returns the reading for the given model.
func (a AnalogSensor) Value(m Model) float64 {
	if m == ModelMkIII {
		return a.ValueMkIII
	}
	return a.ValueMkII
}

// Power-on readings. Answered by ?ANALOG.NOW[i] on mkiii boards and by
// L,20248,i,20249,255:Z on mkii boards.
var initialSensors = [NumSensors]AnalogSensor{
	{Name: "PMT temp [degC]", ValueMkIII: 581, ValueMkII: 101},
	{Name: "Fan temp [degC]", ValueMkIII: 605, ValueMkII: 109},
	{Name: "Base temp [degC]", ValueMkIII: 543, ValueMkII: 112},
	{Name: "H.T. voltage [degC]", ValueMkIII: 788, ValueMkII: 208},
	{Name: "+12V power supply [V]", ValueMkIII: 981, ValueMkII: 153},
	{Name: "+5V Power supply [V]", ValueMkIII: 944, ValueMkII: 208},
	{Name: "-12V Power supply [V]", ValueMkIII: 968, ValueMkII: 155},
	{Name: "+24V Power supply [V]", ValueMkIII: 1012, ValueMkII: 202},
	{Name: "Rate meter [V]", ValueMkIII: 0, ValueMkII: 0},
	{Name: "Below Spectro temp [C]", ValueMkIII: 533, ValueMkII: 53},
	{Name: "Window area temp [C]", ValueMkIII: 591, ValueMkII: 1},
	{Name: "External Temp [C]", ValueMkIII: 7, ValueMkII: 1},
	{Name: "+5V ss [V]", ValueMkIII: 934, ValueMkII: 204},
	{Name: "-5V ss [V]", ValueMkIII: 876, ValueMkII: 209},
	{Name: "Std lamp current [A]", ValueMkIII: 9, ValueMkII: 8},
	{Name: "Std lamp voltage [V]", ValueMkIII: 0, ValueMkII: 0},
	{Name: "Mer lamp current [A]", ValueMkIII: 43, ValueMkII: 43},
	{Name: "Mer lamp voltage [V]", ValueMkIII: 0, ValueMkII: 0},
	{Name: "External 1 [V]", ValueMkIII: 8, ValueMkII: 8},
	{Name: "External 2 [V]", ValueMkIII: 11, ValueMkII: 11},
	{Name: "External 3 (Relative humidity [%])", ValueMkIII: 387, ValueMkII: 387},
	{Name: "Moisture [g/m3]", ValueMkIII: 0, ValueMkII: 0},
	{Name: "External 4 [V]", ValueMkIII: 7, ValueMkII: 7},
	{Name: "External 5 [V]", ValueMkIII: 7, ValueMkII: 7},
}

type sensorOverride struct {
	index int
	mkii  float64
	mkiii float64
}

// Readings while the mercury lamp is lit.
var hgOverrides = []sensorOverride{
	{16, 755, 755},
	{17, 679, 679},
	{18, 256, 256},
	{19, 99, 99},
	{21, 20.58, 20.58},
	{22, 8, 8},
	{23, 17, 17},
}

// Readings while the quartz-halogen lamp is lit.
var felOverrides = []sensorOverride{
	{8, 6, 305},
	{14, 156, 776},
	{15, 239, 886},
}

// ResetSensors restores the power-on sensor table.
func (s *State) ResetSensors() {
	s.Sensors = initialSensors
}

// SetLamps applies a lamp selection: the sensor table is reset, then each
// lit lamp overrides its own subset.
func (s *State) SetLamps(hg, fel bool) {
	s.ResetSensors()
	s.Lamps = Lamps{HG: hg, FEL: fel}

	if hg {
		s.applyOverrides(hgOverrides)
	}
	if fel {
		s.applyOverrides(felOverrides)
	}
}

func (s *State) applyOverrides(list []sensorOverride) {
	for _, o := range list {
		s.Sensors[o.index].ValueMkII = o.mkii
		s.Sensors[o.index].ValueMkIII = o.mkiii
	}
}
