package models

import "time"

type SocialAccount struct {
	ID                int64     `db:"id" json:"id"`
	UserID            int64     `db:"user_id" json:"user_id"`
	Platform          string    `db:"platform" json:"platform"`
	AccountName       string    `db:"account_name" json:"account_name"`
	ExternalAccountID string    `db:"external_account_id" json:"external_account_id"`
	AccessToken       string    `db:"access_token" json:"-"`
	RefreshToken      string    `db:"refresh_token" json:"-"`
	IsConnected       bool      `db:"is_connected" json:"is_connected"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}
