package notify

// PermissionState tracks whether the configured sink may show
// notifications.
//
// State machine: unknown -> (sink capability check) -> default | denied.
// From default the service actively requests permission exactly once on
// Start; granted and denied are terminal for the session unless
// RequestPermission is re-invoked explicitly.
type PermissionState int

const (
	PermissionUnknown PermissionState = iota
	PermissionDefault
	PermissionGranted
	PermissionDenied
)

func (p PermissionState) String() string {
	switch p {
	case PermissionDefault:
		return "default"
	case PermissionGranted:
		return "granted"
	case PermissionDenied:
		return "denied"
	default:
		return "unknown"
	}
}
