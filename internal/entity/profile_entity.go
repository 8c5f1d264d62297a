package entity

import "time"

// ProfileField is one persisted profile attribute, the durable counterpart of
// the session's ephemeral overlay fields.
type ProfileField struct {
	Id         int64
	ProfileId  int64
	Name       string
	Value      string
	Confidence float64
	UpdatedAt  time.Time
}

// ProfileTriple is one persisted subject-predicate-object fact. The
// persistence pipeline owns deduplication; rows here may repeat.
type ProfileTriple struct {
	Id         int64
	ProfileId  int64
	Subject    string
	Predicate  string
	Object     string
	CodeSystem string
	Code       string
	Confidence float64
	CreatedAt  time.Time
}
