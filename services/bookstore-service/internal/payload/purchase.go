package payload

import (
	"time"

	"github.com/vasapolrittideah/bookstore-api/services/bookstore-service/internal/model"
	"github.com/vasapolrittideah/bookstore-api/services/bookstore-service/internal/usecase"
)

type PurchasedBookResponse struct {
	ID        string              `json:"_id"`
	Title     string              `json:"title"`
	Author    string              `json:"author"`
	Price     float64             `json:"price"`
	Image     string              `json:"image"`
	Condition model.BookCondition `json:"condition"`
	Seller    *SellerResponse     `json:"seller"`
}

// PurchaseResponse is a purchase. Book holds the book id, a PurchasedBookResponse
// in the history, or null when the book was deleted.
type PurchaseResponse struct {
	ID           string    `json:"_id"`
	Book         any       `json:"book"`
	Buyer        string    `json:"buyer"`
	PurchaseDate time.Time `json:"purchaseDate"`
}

func NewPurchaseResponse(purchase *model.Purchase) PurchaseResponse {
	return PurchaseResponse{
		ID:           purchase.ID.Hex(),
		Book:         purchase.BookID.Hex(),
		Buyer:        purchase.BuyerID.Hex(),
		PurchaseDate: purchase.PurchasedAt,
	}
}

func NewPurchaseRecordResponses(records []*usecase.PurchaseRecord) []PurchaseResponse {
	out := make([]PurchaseResponse, 0, len(records))
	for _, record := range records {
		resp := NewPurchaseResponse(record.Purchase)
		resp.Book = nil
		if book := record.Book; book != nil {
			resp.Book = &PurchasedBookResponse{
				ID:        book.ID.Hex(),
				Title:     book.Title,
				Author:    book.Author,
				Price:     book.Price,
				Image:     book.Image,
				Condition: book.Condition,
				Seller:    NewSellerResponse(book.Seller),
			}
		}
		out = append(out, resp)
	}
	return out
}
