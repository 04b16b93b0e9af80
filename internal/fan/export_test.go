package fan

// Step runs one control loop iteration without the ticker
func (e *Engine) Step() {
	e.step()
}
