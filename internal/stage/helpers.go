package stage

import (
	"collator/internal/request"
	"collator/internal/services"
)

// ParseRequest parses the stored request payload for a job.
// On failure it returns a services.ErrValidation suitable for stage Execute
// methods; a record that cannot be parsed will not succeed on retry.
func ParseRequest(raw string) (request.Envelope, error) {
	env, err := request.Parse([]byte(raw))
	if err != nil {
		return request.Envelope{}, services.Wrap(
			services.ErrValidation, "aggregation", "parse request",
			"Aggregation request missing or invalid; resubmit the job", err)
	}
	return env, nil
}
