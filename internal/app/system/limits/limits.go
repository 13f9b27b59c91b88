// internal/app/system/limits/limits.go
package limits

// Request body size limits for the JSON APIs.
// These limits help prevent memory exhaustion from oversized requests.
const (
	// MaxNodeBody bounds org chart create/update payloads.
	MaxNodeBody = 64 << 10 // 64 KB

	// MaxAuthBody bounds register and login payloads.
	MaxAuthBody = 16 << 10 // 16 KB
)
