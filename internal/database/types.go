package database

// Value names inside a visitor namespace.
const (
	KeyUser   = "user"
	KeyImage  = "image"
	KeyResult = "ai"
)

// UserProfile is created on the introduce step and gains a location on the city step.
type UserProfile struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

// CapturedImage is the last uploaded or photographed image as a base64 data URL.
type CapturedImage struct {
	DataURL string `json:"data_url"`
}
