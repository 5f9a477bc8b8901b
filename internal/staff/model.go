package staff

import "errors"

// Roles permitted to be recorded as having booked an appointment.
const (
	RoleAdmin     = "admin"
	RoleReception = "reception"
	RoleNurse     = "nurse"
	RoleDoctor    = "doctor"
)

// Member is a staff directory row. Read-only from the webhook's perspective.
type Member struct {
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	Status   string `json:"status"`
}

// ErrDirectoryUnavailable is returned when neither cache nor database can
// produce a directory snapshot.
var ErrDirectoryUnavailable = errors.New("staff: directory unavailable")
