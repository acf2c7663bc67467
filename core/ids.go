package core

import "github.com/google/uuid"

// NewID generates a new unique identifier for tasks, memories and attachments.
func NewID() string { return uuid.NewString() }
