package model

import "time"

// DriverLock is an advisory reservation held while a driver assignment is committed.
type DriverLock struct {
	ID        string    `bson:"_id" json:"id"`
	Owner     string    `bson:"owner" json:"owner"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

func DriverLockID(driverID string) string {
	return "driver_lock_" + driverID
}
