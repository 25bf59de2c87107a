package entity

import "time"

// Store representa una tienda física. El código es único entre tiendas activas.
type Store struct {
	ID        string
	Name      string
	Code      string
	Location  string
	Address   string
	Phone     string
	Email     string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
