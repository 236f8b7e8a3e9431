package model

import "time"

type User struct {
	ID                 string
	FirstName          string
	LastName           string
	Email              string
	PasswordHash       string
	PurchasedCourseIDs []string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type Admin struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Image struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
}

type Course struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Image       Image     `json:"image"`
	CreatorID   string    `json:"creatorId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Purchase struct {
	ID        string
	UserID    string
	CourseID  string
	CreatedAt time.Time
}

// Order records a settled payment reported by the client. The matching
// Purchase entitlement is written in the same transaction.
type Order struct {
	ID          string
	UserID      string
	CourseID    string
	PaymentID   string
	AmountCents int64
	Currency    string
	Status      string
	CreatedAt   time.Time
}
