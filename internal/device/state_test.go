// internal/device/state_test.go
package device

import "testing"

func newMkII() *State {
	return New(Settings{Model: ModelMkII, NominalBaud: 1200, SerialNumber: 72})
}

// ---- motors ----

func TestMoveMotor_NonNegativeIsAbsolute(t *testing.T) {
	st := newMkII()

	st.MoveMotor(MotorMicrometer1, 489)

	m := st.Motors[MotorMicrometer1]
	if m.StepsFromLED != 489 {
		t.Fatalf("steps_fromled: got=%d want=489", m.StepsFromLED)
	}
	if m.ZeroStepNow != 0 {
		t.Fatalf("zerostep_now changed: %d", m.ZeroStepNow)
	}
	if m.StepsFromZero != 489 {
		t.Fatalf("steps_fromzero: got=%d want=489", m.StepsFromZero)
	}
}

func TestMoveMotor_NegativeRezeroes(t *testing.T) {
	st := newMkII()
	st.MoveMotor(MotorMicrometer1, 100)

	st.MoveMotor(MotorMicrometer1, -30)

	m := st.Motors[MotorMicrometer1]
	if m.StepsFromLED != 70 {
		t.Fatalf("steps_fromled: got=%d want=70", m.StepsFromLED)
	}
	if m.ZeroStepNow != 70 {
		t.Fatalf("zerostep_now: got=%d want=70", m.ZeroStepNow)
	}
	if m.StepsFromZero != 0 {
		t.Fatalf("steps_fromzero: got=%d want=0", m.StepsFromZero)
	}
}

func TestZeroMotor_ReturnsToCurrentZero(t *testing.T) {
	st := newMkII()
	st.MoveMotor(MotorAzimuth, 500)
	st.MoveMotor(MotorAzimuth, -100) // zero now at 400
	st.MoveMotor(MotorAzimuth, 2000)

	st.ZeroMotor(MotorAzimuth)

	m := st.Motors[MotorAzimuth]
	if m.StepsFromLED != 400 || m.StepsFromZero != 0 {
		t.Fatalf("after zero: fromled=%d fromzero=%d", m.StepsFromLED, m.StepsFromZero)
	}
}

func TestNew_AzimuthStepsPerDegree(t *testing.T) {
	st := New(Settings{Model: ModelMkIII, NominalBaud: 1200, AzimuthStepsPerRev: 36000})

	if got := st.Motors[MotorAzimuth].StepsPerDegree; got != 100 {
		t.Fatalf("steps/degree: got=%v want=100", got)
	}

	def := newMkII()
	if def.Settings.AzimuthStepsPerRev != DefaultAzimuthStepsPerRev {
		t.Fatalf("default steps/rev not applied: %d", def.Settings.AzimuthStepsPerRev)
	}
}

// ---- lamps / sensors ----

func TestSetLamps_Overrides(t *testing.T) {
	st := newMkII()

	st.SetLamps(true, false)
	if st.Sensors[16].ValueMkII != 755 {
		t.Fatalf("hg override missing: %v", st.Sensors[16].ValueMkII)
	}
	if st.Sensors[14].ValueMkII != initialSensors[14].ValueMkII {
		t.Fatalf("fel override applied with hg only")
	}

	st.SetLamps(false, true)
	if st.Sensors[16].ValueMkII != initialSensors[16].ValueMkII {
		t.Fatalf("hg override survived lamp change")
	}
	if st.Sensors[14].Value(ModelMkIII) != 776 {
		t.Fatalf("fel override missing: %v", st.Sensors[14].ValueMkIII)
	}

	st.SetLamps(true, true)
	if st.Sensors[16].ValueMkII != 755 || st.Sensors[15].ValueMkII != 239 {
		t.Fatalf("both lamps should apply both subsets")
	}

	st.SetLamps(false, false)
	if st.Sensors != initialSensors {
		t.Fatalf("B,0 must restore the power-on table")
	}
	if st.Lamps.HG || st.Lamps.FEL {
		t.Fatalf("lamps still on: %+v", st.Lamps)
	}
}

// ---- params ----

func TestParamVector(t *testing.T) {
	st := newMkII()
	st.SetParams([]int{20248, 5, 20249, 255})

	if !st.Params.Equal(20248, 5, 20249, 255) {
		t.Fatalf("unexpected params %v", st.Params.Slice())
	}
	if st.Params.Equal(20248, 5) {
		t.Fatalf("length must be part of equality")
	}
}
