// Package models holds the persisted entities of the file storage service.
package models

import "github.com/google/uuid"

// User is a registered account. Email is unique across the directory.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
}
