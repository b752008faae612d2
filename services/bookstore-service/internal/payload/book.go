package payload

import (
	"time"

	"github.com/vasapolrittideah/bookstore-api/services/bookstore-service/internal/model"
	"github.com/vasapolrittideah/bookstore-api/services/bookstore-service/internal/usecase"
)

type CreateBookRequest struct {
	Title       string   `json:"title"       validate:"required"`
	Author      string   `json:"author"      validate:"required"`
	Description string   `json:"description" validate:"required"`
	Price       *float64 `json:"price"       validate:"required,gte=0"`
	Condition   string   `json:"condition"   validate:"required,book_condition"`
	Category    string   `json:"category"    validate:"omitempty,book_category"`
	Stock       *int     `json:"stock"       validate:"omitempty,gte=0"`
}

func (r CreateBookRequest) Params() usecase.CreateBookParams {
	return usecase.CreateBookParams{
		Title:       r.Title,
		Author:      r.Author,
		Description: r.Description,
		Price:       r.Price,
		Condition:   model.BookCondition(r.Condition),
		Category:    model.BookCategory(r.Category),
		Stock:       r.Stock,
	}
}

type UpdateBookRequest struct {
	Title       *string  `json:"title"       validate:"omitempty,min=1"`
	Author      *string  `json:"author"      validate:"omitempty,min=1"`
	Description *string  `json:"description" validate:"omitempty,min=1"`
	Price       *float64 `json:"price"       validate:"omitempty,gte=0"`
	Condition   *string  `json:"condition"   validate:"omitempty,book_condition"`
	Category    *string  `json:"category"    validate:"omitempty,book_category"`
	Stock       *int     `json:"stock"       validate:"omitempty,gte=0"`
	Status      *string  `json:"status"      validate:"omitempty,book_status"`
}

func (r UpdateBookRequest) Params() usecase.UpdateBookParams {
	params := usecase.UpdateBookParams{
		Title:       r.Title,
		Author:      r.Author,
		Description: r.Description,
		Price:       r.Price,
		Stock:       r.Stock,
	}
	if r.Condition != nil {
		c := model.BookCondition(*r.Condition)
		params.Condition = &c
	}
	if r.Category != nil {
		c := model.BookCategory(*r.Category)
		params.Category = &c
	}
	if r.Status != nil {
		s := model.BookStatus(*r.Status)
		params.Status = &s
	}
	return params
}

type SellerResponse struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func NewSellerResponse(seller *usecase.SellerSummary) *SellerResponse {
	if seller == nil {
		return nil
	}
	return &SellerResponse{ID: seller.ID.Hex(), Name: seller.Name, Email: seller.Email}
}

// BookResponse is a listing. Seller holds the seller id, or a SellerResponse when populated.
type BookResponse struct {
	ID          string              `json:"_id"`
	Title       string              `json:"title"`
	Author      string              `json:"author"`
	Description string              `json:"description"`
	Price       float64             `json:"price"`
	Condition   model.BookCondition `json:"condition"`
	Category    model.BookCategory  `json:"category"`
	Stock       int                 `json:"stock"`
	Image       string              `json:"image"`
	Seller      any                 `json:"seller"`
	Status      model.BookStatus    `json:"status"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

func NewBookResponse(book *model.Book) BookResponse {
	return BookResponse{
		ID:          book.ID.Hex(),
		Title:       book.Title,
		Author:      book.Author,
		Description: book.Description,
		Price:       book.Price,
		Condition:   book.Condition,
		Category:    book.Category,
		Stock:       book.Stock,
		Image:       book.Image,
		Seller:      book.SellerID.Hex(),
		Status:      book.Status,
		CreatedAt:   book.CreatedAt,
		UpdatedAt:   book.UpdatedAt,
	}
}

func NewBookDetailResponse(detail *usecase.BookDetail) BookResponse {
	resp := NewBookResponse(detail.Book)
	if seller := NewSellerResponse(detail.Seller); seller != nil {
		resp.Seller = seller
	}
	return resp
}

func NewBookResponses(books []*model.Book) []BookResponse {
	out := make([]BookResponse, 0, len(books))
	for _, book := range books {
		out = append(out, NewBookResponse(book))
	}
	return out
}

func NewBookDetailResponses(details []*usecase.BookDetail) []BookResponse {
	out := make([]BookResponse, 0, len(details))
	for _, detail := range details {
		out = append(out, NewBookDetailResponse(detail))
	}
	return out
}
