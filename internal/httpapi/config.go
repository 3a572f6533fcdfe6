package httpapi

// maxBodyBytes controls the maximum allowed request body size for the
// scoring endpoints. Default 10 MiB, matching the largest uploads the
// original service accepted.
var maxBodyBytes int64 = 10 << 20

// SetMaxBodyBytes allows configuring the maximum request body size.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		maxBodyBytes = 10 << 20
		return
	}
	maxBodyBytes = n
}
