package api

// Phase names understood by the controller.
const (
	PhaseColonisation = "colonisation"
	PhaseGrowing      = "growing"
	PhaseCake         = "cake"
)

// Phases lists the selectable growth phases in display order.
var Phases = []string{PhaseColonisation, PhaseGrowing, PhaseCake}

// SystemStatus reports whether the control loop is running and, when it is,
// the controller process ID.
type SystemStatus struct {
	Running bool `json:"running"`
	PID     *int `json:"pid,omitempty"`
}

// Measurements is the latest sensor snapshot.
type Measurements struct {
	Temperature float64 `json:"temperature"` // °C
	Humidity    float64 `json:"humidity"`    // %RH
	CO2         float64 `json:"co2"`         // ppm
	FanSpeed    float64 `json:"fan_speed"`   // %
}

// PhaseSettings holds the setpoints for one growth phase.
type PhaseSettings struct {
	TempSetpoint float64 `json:"temp_setpoint"`
	RHSetpoint   float64 `json:"rh_setpoint"`
	CO2Setpoint  int     `json:"co2_setpoint"`
}

// EnvironmentSettings holds the phase table and the active phase.
type EnvironmentSettings struct {
	CurrentPhase string                   `json:"current_phase"`
	Phases       map[string]PhaseSettings `json:"phases"`
}

// HumidifierSettings tunes the humidifier burst cycle.
type HumidifierSettings struct {
	BurstMinS float64 `json:"burst_min_s"`
	BurstMaxS float64 `json:"burst_max_s"`
}

// PIDSettings holds the fan CO2-control tunings.
type PIDSettings struct {
	Kp float64 `json:"kp"`
	Ki float64 `json:"ki"`
	Kd float64 `json:"kd"`
}

// Settings is the controller configuration as served by GET /api/settings.
type Settings struct {
	Environment EnvironmentSettings `json:"environment"`
	Humidifier  HumidifierSettings  `json:"humidifier"`
	PID         PIDSettings         `json:"pid"`
}

// SettingsPatch is a partial update for POST /api/settings. Nil sections
// are left untouched by the backend.
type SettingsPatch struct {
	Environment map[string]any `json:"environment,omitempty"`
	Humidifier  map[string]any `json:"humidifier,omitempty"`
	PID         map[string]any `json:"pid,omitempty"`
}
