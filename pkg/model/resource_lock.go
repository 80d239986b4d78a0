package model

import "time"

// ResourceLock is an advisory lock document serializing mutations on one
// resource across processes. The unique _id makes acquisition a single
// insert; a TTL index on expires_at reaps locks from crashed holders.
type ResourceLock struct {
	ID        string    `bson:"_id" json:"id"`
	Owner     string    `bson:"owner" json:"owner"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
