package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// User represents a registered account. OTP and reset token fields are nil when unset.
type User struct {
	ID                     bson.ObjectID `bson:"_id,omitempty"`
	Name                   string        `bson:"name"`
	Email                  string        `bson:"email"`
	PasswordHash           string        `bson:"password_hash"`
	IsVerified             bool          `bson:"is_verified"`
	OTP                    *string       `bson:"otp,omitempty"`
	OTPExpiresAt           *time.Time    `bson:"otp_expires_at,omitempty"`
	ResetPasswordToken     *string       `bson:"reset_password_token,omitempty"`
	ResetPasswordExpiresAt *time.Time    `bson:"reset_password_expires_at,omitempty"`
	CreatedAt              time.Time     `bson:"created_at"`
	UpdatedAt              time.Time     `bson:"updated_at"`
}
