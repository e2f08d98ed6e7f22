package ports

import "context"

// RequestThrottle bounds repeated login-code requests. Both checks count the
// current attempt. A throttle error means the limiter itself is unavailable;
// callers fail open so a limiter outage cannot lock clients out.
type RequestThrottle interface {
	AllowEmail(ctx context.Context, email string) (bool, error)
	AllowIP(ctx context.Context, ip string) (bool, error)
}
