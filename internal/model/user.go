package model

import "time"

// User is a Telegram account; ID is the Telegram user id, which doubles as the chat id.
type User struct {
	ID         string     `bson:"_id" json:"id"`
	Username   string     `bson:"username" json:"username"`
	FirstName  string     `bson:"first_name" json:"first_name"`
	LastName   string     `bson:"last_name" json:"last_name"`
	MaxItems   int        `bson:"max_items" json:"max_items"`
	LoginToken LoginToken `bson:"login_token,omitempty" json:"-"`
	CreatedAt  time.Time  `bson:"created_at" json:"created_at"`
}

// LoginToken holds the bcrypt hash of the sha256 of the last issued JWT.
type LoginToken struct {
	TokenID    string    `bson:"token_id"`
	Token      []byte    `bson:"token"`
	Expiration time.Time `bson:"expiration"`
	CreatedAt  time.Time `bson:"created_at"`
}
