package sqlite

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

	Principal     string    `grove:"principal,pk"`
	Handle        string    `grove:"handle"`
	ContentCount  int64     `grove:"content_count"`
	TotalEarnings int64     `grove:"total_earnings"`
	Verified      bool      `grove:"verified"`
	CreatedAt     time.Time `grove:"created_at"`
	UpdatedAt     time.Time `grove:"updated_at"`
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

	ID            int64     `grove:"id,pk"`
	Creator       string    `grove:"creator"`
	Title         string    `grove:"title"`
	Description   string    `grove:"description"`
	ContentRef    string    `grove:"content_ref"`
	Price         int64     `grove:"price"`
	PurchaseCount int64     `grove:"purchase_count"`
	TotalEarnings int64     `grove:"total_earnings"`
	Active        bool      `grove:"active"`
	CreatedAt     time.Time `grove:"created_at"`
	UpdatedAt     time.Time `grove:"updated_at"`
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

type purchaseModel struct {
	grove.BaseModel `grove:"table:bazaar_purchases"`

	Buyer       string    `grove:"buyer,pk"`
	ContentID   int64     `grove:"content_id,pk"`
	ReceiptID   string    `grove:"receipt_id"`
	PurchasedAt time.Time `grove:"purchased_at"`
}

func toPurchaseModel(r *purchase.Record) *purchaseModel {
	return &purchaseModel{
		Buyer:       r.Buyer.String(),
		ContentID:   r.ContentID,
		ReceiptID:   r.ReceiptID.String(),
		PurchasedAt: r.PurchasedAt,
	}
}

func fromPurchaseModel(m *purchaseModel) (*purchase.Record, error) {
	rid, err := id.ParseReceiptID(m.ReceiptID)
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

// The platform account is a single row with a fixed id of 1.
type platformModel struct {
	grove.BaseModel `grove:"table:bazaar_platform"`

	ID             int64     `grove:"id,pk"`
	Owner          string    `grove:"owner"`
	FeeBalance     int64     `grove:"fee_balance"`
	ContentCounter int64     `grove:"content_counter"`
	CreatedAt      time.Time `grove:"created_at"`
	UpdatedAt      time.Time `grove:"updated_at"`
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
