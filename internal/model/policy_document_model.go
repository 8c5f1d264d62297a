package model

import "time"

type PolicyDocument struct {
	Id           int64     `gorm:"primaryKey;autoIncrement"`
	Title        string    `gorm:"type:text;not null"`
	Requirements string    `gorm:"type:text"`
	Benefits     string    `gorm:"type:text"`
	Region       string    `gorm:"type:text;index"`
	Url          string    `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (PolicyDocument) TableName() string {
	return "policy_documents"
}
