package config

// DefaultEventTypes returns the event buttons offered out of the box.
// Any other type string is accepted when recording.
func DefaultEventTypes() []string {
	return []string{
		// Driver actions
		"brake",
		"horn",
		"swerve",
		"accelerate",

		// ADAS interventions
		"lane-departure",
		"forward-collision",
		"emergency-brake",
		"takeover",

		// Observations
		"near-miss",
		"pothole",
		"false-alarm",
	}
}
