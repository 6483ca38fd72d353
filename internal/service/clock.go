package service

import "time"

// SystemClock implements ports.Clock with the wall clock.
type SystemClock struct{}

// NewSystemClock creates a SystemClock.
func NewSystemClock() *SystemClock { return &SystemClock{} }

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }
