package agents

// Emergency thresholds on the raw 0–100 vital scale. Exactly on the
// threshold is not an emergency.
const (
	HungerEmergency = 80
	ThirstEmergency = 80
	EnergyEmergency = 20
)

// NeedProfile holds normalized needs. Hunger, Thirst and EnergyDeficit range
// from 0.0 (fully satisfied) to 1.0 (desperate).
type NeedProfile struct {
	Hunger        float64 `json:"hunger"`
	Thirst        float64 `json:"thirst"`
	EnergyDeficit float64 `json:"energy_deficit"`
	Emergency     bool    `json:"emergency"`
}

// EvaluateNeeds derives a NeedProfile from raw vitals. A nil character
// yields the zero profile.
func EvaluateNeeds(c *Character) NeedProfile {
	if c == nil {
		return NeedProfile{}
	}
	hunger := clampVital(c.Hunger)
	thirst := clampVital(c.Thirst)
	energy := clampVital(c.Energy)

	return NeedProfile{
		Hunger:        hunger / 100,
		Thirst:        thirst / 100,
		EnergyDeficit: (100 - energy) / 100,
		Emergency:     hunger > HungerEmergency || thirst > ThirstEmergency || energy < EnergyEmergency,
	}
}

// Priority names the most pressing need, or "" when nothing presses.
func (n NeedProfile) Priority() string {
	switch {
	case n.Thirst > 0.6 && n.Thirst >= n.Hunger:
		return "thirst"
	case n.Hunger > 0.6:
		return "hunger"
	case n.EnergyDeficit > 0.7:
		return "fatigue"
	default:
		return ""
	}
}

func clampVital(v float64) float64 {
	if v != v { // NaN
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
