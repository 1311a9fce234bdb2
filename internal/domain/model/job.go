package model

import "time"

// RematchJob asks for a gig to be re-ranked in the background.
type RematchJob struct {
	JobID     string    `json:"job_id"`
	GigID     string    `json:"gig_id"`
	Limit     int       `json:"limit"`
	Enhanced  bool      `json:"use_ai"`
	Requested time.Time `json:"requested_at"`
}
