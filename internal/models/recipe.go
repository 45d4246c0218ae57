package models

import "github.com/shopspring/decimal"

// Recipe is a user's recipe. UserID is fixed at creation.
type Recipe struct {
	ID     int64
	UserID int64

	Title       string
	TimeMinutes int

	// Price is a fixed-point amount with two decimal places.
	Price decimal.Decimal

	Description string
	Link        string

	// Image is the storage path of the uploaded image, empty if none.
	Image string

	Tags        []Tag
	Ingredients []Ingredient
}

func (r Recipe) String() string {
	return r.Title
}
