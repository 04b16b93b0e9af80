package keyboard

// Backlight is the keyboard lighting device backend
type Backlight interface {
	SetColor(c Color) error
}

// NullBacklight stands in on systems without a controllable keyboard LED;
// paired with monitor mode so profiles still validate and store
type NullBacklight struct{}

func (NullBacklight) SetColor(Color) error { return nil }

// State is a point-in-time view of the engine for logging and metrics
type State struct {
	Color      Color
	Animating  bool
	Overridden bool
	Suspended  bool
}
