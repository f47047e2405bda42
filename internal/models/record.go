package models

import "time"

// Record is a stored payload addressed by its code.
type Record struct {
	Code      string     `json:"code" db:"code"`
	Payload   string     `json:"data" db:"payload"`
	Sequence  uint64     `json:"-" db:"seq"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

type GenerateRequest struct {
	Data *string `json:"data"`
}
