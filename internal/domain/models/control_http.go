package models

// StrategyRequest selects the active strategy mode.
type StrategyRequest struct {
	Mode string `json:"mode" validate:"required,oneof=STRICT MODERATE ADAPTIVE"`
}
