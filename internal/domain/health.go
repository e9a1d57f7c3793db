package domain

// CheckStatus is the outcome of one doctor check.
type CheckStatus string

const (
	CheckOK   CheckStatus = "ok"
	CheckWarn CheckStatus = "warn"
	CheckFail CheckStatus = "fail"
)

// HealthCheck is one line of the doctor report.
type HealthCheck struct {
	Name   string
	Status CheckStatus
	Detail string
}

// HealthReport keeps checks in the order they ran.
type HealthReport struct {
	Checks []HealthCheck
}

// Count returns how many checks ended with status.
func (r HealthReport) Count(status CheckStatus) int {
	n := 0
	for _, c := range r.Checks {
		if c.Status == status {
			n++
		}
	}
	return n
}

// Healthy reports whether no check failed. Warnings are allowed.
func (r HealthReport) Healthy() bool {
	return r.Count(CheckFail) == 0
}
