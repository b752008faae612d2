package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Purchase records that a buyer bought a book. It is never mutated, and BookID may
// point at a book its seller has since deleted.
type Purchase struct {
	ID          bson.ObjectID `bson:"_id,omitempty"`
	BookID      bson.ObjectID `bson:"book"`
	BuyerID     bson.ObjectID `bson:"buyer"`
	PurchasedAt time.Time     `bson:"purchase_date"`
}
