package entity

import "time"

// PolicyDocument is one crawled welfare/health-policy program description.
// Requirements and Benefits hold the two sections snippet assembly cares about.
type PolicyDocument struct {
	Id           int64
	Title        string
	Requirements string
	Benefits     string
	Region       string
	URL          string
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}
