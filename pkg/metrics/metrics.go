package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProfilesProvisioned = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studentms_profiles_provisioned_total",
		Help: "Role profiles created for new accounts.",
	}, []string{"role"})

	ProvisioningFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studentms_provisioning_failures_total",
		Help: "Account creations aborted while provisioning the role profile.",
	}, []string{"reason"})

	RollNumberRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "studentms_roll_number_retries_total",
		Help: "Enrollments retried after a roll number collision.",
	})

	AttendanceTaken = promauto.NewCounter(prometheus.CounterOpts{
		Name: "studentms_attendance_taken_total",
		Help: "Attendance events recorded.",
	})
)
