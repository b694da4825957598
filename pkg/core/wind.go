package core

// WindMode selects who drives the wind state.
type WindMode string

const (
	WindAuto   WindMode = "auto"
	WindManual WindMode = "manual"
)

// MaxWindForce is the top of the Beaufort-like force scale.
const MaxWindForce = 12.0

// WindState is the process-wide wind field.
// Direction is the compass direction the drift vector points to.
type WindState struct {
	Force     float64  `json:"force"`
	Direction float64  `json:"direction"`
	Mode      WindMode `json:"mode"`
}

// ParseWindMode maps a string to a WindMode. Unknown values return false.
func ParseWindMode(s string) (WindMode, bool) {
	switch WindMode(s) {
	case WindAuto:
		return WindAuto, true
	case WindManual:
		return WindManual, true
	default:
		return "", false
	}
}
