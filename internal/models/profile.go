package models

import "time"

type Profile struct {
	UserID      string    `json:"user_id" dynamodbav:"user_id"`
	DisplayName string    `json:"display_name,omitempty" dynamodbav:"display_name,omitempty"`
	Bio         string    `json:"bio,omitempty" dynamodbav:"bio,omitempty"`
	AvatarURL   string    `json:"avatar_url,omitempty" dynamodbav:"avatar_url,omitempty"`
	UpdatedAt   time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

func (p *Profile) GetPK() string {
	return "USER#" + p.UserID
}

func (p *Profile) GetSK() string {
	return "PROFILE"
}
