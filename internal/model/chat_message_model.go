package model

import "time"

type ChatMessage struct {
	Id        int64     `gorm:"primaryKey;autoIncrement"`
	SessionId string    `gorm:"type:text;not null;index"`
	Role      string    `gorm:"type:text;not null"`
	Content   string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
