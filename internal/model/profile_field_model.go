package model

import "time"

type ProfileField struct {
	Id         int64     `gorm:"primaryKey;autoIncrement"`
	ProfileId  int64     `gorm:"not null;index;uniqueIndex:idx_profile_field_name"`
	Name       string    `gorm:"type:text;not null;uniqueIndex:idx_profile_field_name"`
	Value      string    `gorm:"type:text"`
	Confidence float64   `gorm:"default:0"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

func (ProfileField) TableName() string {
	return "profile_fields"
}
