package model

import "time"

type ProfileTriple struct {
	Id         int64     `gorm:"primaryKey;autoIncrement"`
	ProfileId  int64     `gorm:"not null;index"`
	Subject    string    `gorm:"type:text;not null"`
	Predicate  string    `gorm:"type:text;not null"`
	Object     string    `gorm:"type:text;not null"`
	CodeSystem string    `gorm:"type:text"`
	Code       string    `gorm:"type:text"`
	Confidence float64   `gorm:"default:0"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

func (ProfileTriple) TableName() string {
	return "profile_triples"
}
