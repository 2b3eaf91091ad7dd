package requests

// LocationDTO is the JSON representation of [adaptergw.Location] as returned
// by the registry's getAdapter endpoint. Fields are pointers so a missing
// field can be told apart from a zero value. Port accepts any JSON number;
// only whole values are usable.
type LocationDTO struct {
	Host *string  `json:"host"`
	Port *float64 `json:"port"`
}

// HealthDTO is the body served on the health endpoint
type HealthDTO struct {
	Status   string `json:"status"`
	InFlight int64  `json:"inflight"`
}
