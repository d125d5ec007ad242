package dto

// UpdateTierRequest tunes a rate limit tier at runtime (admin surface).
type UpdateTierRequest struct {
	Points        int    `json:"points" validate:"omitempty,min=1"`
	Window        string `json:"window" validate:"omitempty"`         // e.g. "1m", "15m"
	BlockDuration string `json:"block_duration" validate:"omitempty"` // e.g. "5m", "0s"
}

func (r UpdateTierRequest) Validate() error {
	return validate.Struct(r)
}
