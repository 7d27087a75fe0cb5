// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

// Upload constants
const (
	// MaxUploadSize is the largest image accepted from a form upload or camera snapshot
	MaxUploadSize = 10 << 20

	// MaxDataURLSize bounds request bodies carrying a base64 data URL (4/3 of MaxUploadSize plus slack)
	MaxDataURLSize = MaxUploadSize*4/3 + 1024
)

// Selfie constants
const (
	// FallbackSnapshotWidth and FallbackSnapshotHeight are used when the camera reports no video size
	FallbackSnapshotWidth  = 640
	FallbackSnapshotHeight = 480
)

// Static server constants
const (
	// DefaultStaticPort is the port of the standalone static file server
	DefaultStaticPort = 5500

	// DefaultStaticHost is the interface the standalone static file server binds to
	DefaultStaticHost = "localhost"
)
