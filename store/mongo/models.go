package mongo

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/bazaar/content"
	"github.com/xraph/bazaar/creator"
	"github.com/xraph/bazaar/id"
	"github.com/xraph/bazaar/platform"
	"github.com/xraph/bazaar/purchase"
	"github.com/xraph/bazaar/types"
)

// ==================== Creator models ====================

type creatorModel struct {
	grove.BaseModel `grove:"table:bazaar_creators"`

	Principal     string    `grove:"principal,pk"   bson:"_id"`
	Handle        string    `grove:"handle"         bson:"handle"`
	ContentCount  int64     `grove:"content_count"  bson:"content_count"`
	TotalEarnings int64     `grove:"total_earnings" bson:"total_earnings"`
	Verified      bool      `grove:"verified"       bson:"verified"`
	CreatedAt     time.Time `grove:"created_at"     bson:"created_at"`
	UpdatedAt     time.Time `grove:"updated_at"     bson:"updated_at"`
}

func toCreatorModel(c *creator.Creator) *creatorModel {
	return &creatorModel{
		Principal:     c.Principal.String(),
		Handle:        c.Handle,
		ContentCount:  c.ContentCount,
		TotalEarnings: c.TotalEarnings.Int64(),
		Verified:      c.Verified,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func fromCreatorModel(m *creatorModel) *creator.Creator {
	return &creator.Creator{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Principal:     types.Principal(m.Principal),
		Handle:        m.Handle,
		ContentCount:  m.ContentCount,
		TotalEarnings: types.Credits(m.TotalEarnings),
		Verified:      m.Verified,
	}
}

// ==================== Content models ====================

type contentModel struct {
	grove.BaseModel `grove:"table:bazaar_content"`

	ID            int64     `grove:"id,pk"          bson:"_id"`
	Creator       string    `grove:"creator"        bson:"creator"`
	Title         string    `grove:"title"          bson:"title"`
	Description   string    `grove:"description"    bson:"description"`
	ContentRef    string    `grove:"content_ref"    bson:"content_ref"`
	Price         int64     `grove:"price"          bson:"price"`
	PurchaseCount int64     `grove:"purchase_count" bson:"purchase_count"`
	TotalEarnings int64     `grove:"total_earnings" bson:"total_earnings"`
	Active        bool      `grove:"active"         bson:"active"`
	CreatedAt     time.Time `grove:"created_at"     bson:"created_at"`
	UpdatedAt     time.Time `grove:"updated_at"     bson:"updated_at"`
}

func toContentModel(c *content.Content) *contentModel {
	return &contentModel{
		ID:            c.ID,
		Creator:       c.Creator.String(),
		Title:         c.Title,
		Description:   c.Description,
		ContentRef:    c.ContentRef,
		Price:         c.Price.Int64(),
		PurchaseCount: c.PurchaseCount,
		TotalEarnings: c.TotalEarnings.Int64(),
		Active:        c.Active,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func fromContentModel(m *contentModel) *content.Content {
	return &content.Content{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:            m.ID,
		Creator:       types.Principal(m.Creator),
		Title:         m.Title,
		Description:   m.Description,
		ContentRef:    m.ContentRef,
		Price:         types.Credits(m.Price),
		PurchaseCount: m.PurchaseCount,
		TotalEarnings: types.Credits(m.TotalEarnings),
		Active:        m.Active,
	}
}

// ==================== Purchase models ====================

// Access grants use the receipt id as the document id; uniqueness of the
// (buyer, content_id) pair is enforced by a unique compound index.
type purchaseModel struct {
	grove.BaseModel `grove:"table:bazaar_purchases"`

	ID          string    `grove:"id,pk"        bson:"_id"`
	Buyer       string    `grove:"buyer"        bson:"buyer"`
	ContentID   int64     `grove:"content_id"   bson:"content_id"`
	PurchasedAt time.Time `grove:"purchased_at" bson:"purchased_at"`
}

func toPurchaseModel(r *purchase.Record) *purchaseModel {
	return &purchaseModel{
		ID:          r.ReceiptID.String(),
		Buyer:       r.Buyer.String(),
		ContentID:   r.ContentID,
		PurchasedAt: r.PurchasedAt,
	}
}

func fromPurchaseModel(m *purchaseModel) (*purchase.Record, error) {
	rid, err := id.ParseReceiptID(m.ID)
	if err != nil {
		return nil, err
	}
	return &purchase.Record{
		Buyer:       types.Principal(m.Buyer),
		ContentID:   m.ContentID,
		ReceiptID:   rid,
		PurchasedAt: m.PurchasedAt,
	}, nil
}

// ==================== Platform models ====================

// The platform account is a singleton document with a fixed id.
const platformDocID = "platform"

type platformModel struct {
	grove.BaseModel `grove:"table:bazaar_platform"`

	ID             string    `grove:"id,pk"           bson:"_id"`
	Owner          string    `grove:"owner"           bson:"owner"`
	FeeBalance     int64     `grove:"fee_balance"     bson:"fee_balance"`
	ContentCounter int64     `grove:"content_counter" bson:"content_counter"`
	CreatedAt      time.Time `grove:"created_at"      bson:"created_at"`
	UpdatedAt      time.Time `grove:"updated_at"      bson:"updated_at"`
}

func fromPlatformModel(m *platformModel) *platform.State {
	return &platform.State{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Owner:          types.Principal(m.Owner),
		FeeBalance:     types.Credits(m.FeeBalance),
		ContentCounter: m.ContentCounter,
	}
}
