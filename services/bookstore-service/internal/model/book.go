package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// DefaultBookImage is the image reference of a listing created without an upload.
const DefaultBookImage = "no-photo.jpg"

// BookCondition describes the physical state of a listed book.
type BookCondition string

const (
	ConditionNew     BookCondition = "New"
	ConditionLikeNew BookCondition = "Like New"
	ConditionGood    BookCondition = "Good"
	ConditionFair    BookCondition = "Fair"
	ConditionPoor    BookCondition = "Poor"
)

// BookConditions lists every valid condition.
var BookConditions = []BookCondition{
	ConditionNew, ConditionLikeNew, ConditionGood, ConditionFair, ConditionPoor,
}

func (c BookCondition) Valid() bool {
	for _, v := range BookConditions {
		if c == v {
			return true
		}
	}
	return false
}

// BookCategory groups listings in the catalog.
type BookCategory string

const (
	CategoryFiction    BookCategory = "Fiction"
	CategoryNonFiction BookCategory = "Non-Fiction"
	CategoryScience    BookCategory = "Science"
	CategoryTechnology BookCategory = "Technology"
	CategoryHistory    BookCategory = "History"
	CategoryBiography  BookCategory = "Biography"
	CategoryBusiness   BookCategory = "Business"
	CategoryOther      BookCategory = "Other"
)

// CategoryAll is the catalog filter value meaning "no category restriction".
const CategoryAll = "All"

// BookCategories lists every valid category.
var BookCategories = []BookCategory{
	CategoryFiction, CategoryNonFiction, CategoryScience, CategoryTechnology,
	CategoryHistory, CategoryBiography, CategoryBusiness, CategoryOther,
}

func (c BookCategory) Valid() bool {
	for _, v := range BookCategories {
		if c == v {
			return true
		}
	}
	return false
}

// BookStatus mirrors stock: a book is sold exactly when its stock is zero.
type BookStatus string

const (
	StatusAvailable BookStatus = "available"
	StatusSold      BookStatus = "sold"
)

// BookStatuses lists every valid status.
var BookStatuses = []BookStatus{StatusAvailable, StatusSold}

func (s BookStatus) Valid() bool {
	return s == StatusAvailable || s == StatusSold
}

// StatusForStock returns the status a listing with the given stock must have.
func StatusForStock(stock int) BookStatus {
	if stock > 0 {
		return StatusAvailable
	}
	return StatusSold
}

// Book is a listing owned by exactly one seller.
type Book struct {
	ID          bson.ObjectID `bson:"_id,omitempty"`
	Title       string        `bson:"title"`
	Author      string        `bson:"author"`
	Description string        `bson:"description"`
	Price       float64       `bson:"price"`
	Condition   BookCondition `bson:"condition"`
	Category    BookCategory  `bson:"category"`
	Stock       int           `bson:"stock"`
	Image       string        `bson:"image"`
	SellerID    bson.ObjectID `bson:"seller"`
	Status      BookStatus    `bson:"status"`
	CreatedAt   time.Time     `bson:"created_at"`
	UpdatedAt   time.Time     `bson:"updated_at"`
}

// InStock reports whether the book can still be bought.
func (b *Book) InStock() bool {
	return b.Stock > 0 && b.Status != StatusSold
}
