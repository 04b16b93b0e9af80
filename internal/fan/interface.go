package fan

// Controller is the fan device backend
type Controller interface {
	// Temperature returns the current sensor temperature in degrees Celsius
	Temperature() (float64, error)

	// SetSpeed applies a fan speed as a percentage of the maximum
	SetSpeed(percent uint8) error
}

// State is a point-in-time view of the engine for logging and metrics
type State struct {
	Temperature        float64
	AverageTemperature float64
	CurrentSpeed       uint8
	TargetSpeed        uint8
	Overridden         bool
	Suspended          bool
}
