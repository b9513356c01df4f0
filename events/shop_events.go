// Package events defines the domain events exchanged between modules.
package events

import (
	"time"

	"github.com/Ramiz200513/ShopMagazine-CleanArchMvvm/domain/shop"
	"github.com/go-monolith/mono/pkg/helper"
)

// CatalogChangedEvent is emitted whenever the catalog query engine
// produces a new state bundle: a catalog refresh, a filter change, or a
// loading/error transition.
type CatalogChangedEvent struct {
	Products           []shop.Product `json:"products"`
	Categories         []string       `json:"categories"`
	Search             string         `json:"search"`
	SelectedCategories []string       `json:"selected_categories"`
	MinRating          *float64       `json:"min_rating,omitempty"`
	Sort               string         `json:"sort"`
	Loading            bool           `json:"loading"`
	Error              string         `json:"error,omitempty"`
	Timestamp          time.Time      `json:"timestamp"`
}

// CartChangedEvent is emitted after every committed cart mutation with
// the full joined cart and the recomputed total.
type CartChangedEvent struct {
	Items      []shop.CartWithProduct `json:"items"`
	TotalPrice float64                `json:"total_price"`
	Timestamp  time.Time              `json:"timestamp"`
}

// Event definitions for the shop domain.
var (
	CatalogChangedV1 = helper.EventDefinition[CatalogChangedEvent](
		"catalog",
		"CatalogChanged",
		"v1",
	)

	CartChangedV1 = helper.EventDefinition[CartChangedEvent](
		"cart",
		"CartChanged",
		"v1",
	)
)
