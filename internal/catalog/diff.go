package catalog

import (
	"github.com/shopspring/decimal"

	"alsaraya/internal/domain"
	"alsaraya/internal/pos"
)

// Addition is a POS item the storefront catalog does not have yet.
type Addition struct {
	ExternalProductID string               `json:"externalProductId"`
	Name              string               `json:"name"`
	Category          string               `json:"category"`
	Price             decimal.Decimal      `json:"price"`
	Fields            domain.ProductFields `json:"-"`
}

// Update is a catalog row whose name, price or category drifted from the POS.
type Update struct {
	ProductID int                  `json:"productId"`
	Name      string               `json:"name"`
	Changed   []string             `json:"changed"`
	Fields    domain.ProductFields `json:"-"`
}

// Diff is what a reconcile cycle would apply. Dangling lists catalog rows whose
// POS item no longer exists; they are reported and never removed.
type Diff struct {
	Add       []Addition `json:"add"`
	Update    []Update   `json:"update"`
	Unchanged int        `json:"unchanged"`
	Dangling  []int      `json:"dangling"`
}

// DiffCatalog compares the flattened POS menu against the storefront catalog,
// keyed by external product id. When the menu lists an item twice the first
// occurrence wins.
func DiffCatalog(menu []pos.MenuProduct, products []domain.Product) Diff {
	byExternalID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		if id, ok := p.ExternalProductID.Get(); ok {
			byExternalID[id] = p
		}
	}

	diff := Diff{Add: []Addition{}, Update: []Update{}, Dangling: []int{}}
	seen := make(map[string]struct{}, len(menu))
	for _, item := range menu {
		if _, dup := seen[item.ItemID]; dup {
			continue
		}
		seen[item.ItemID] = struct{}{}

		fields := fieldsFromMenu(item)
		existing, ok := byExternalID[item.ItemID]
		if !ok {
			diff.Add = append(diff.Add, Addition{
				ExternalProductID: item.ItemID,
				Name:              fields.Name,
				Category:          fields.Category,
				Price:             fields.Price,
				Fields:            fields,
			})
			continue
		}

		changed := changedFields(existing, fields)
		if len(changed) == 0 {
			diff.Unchanged++
			continue
		}
		diff.Update = append(diff.Update, Update{
			ProductID: existing.ID,
			Name:      fields.Name,
			Changed:   changed,
			Fields:    fields,
		})
	}

	for _, p := range products {
		id, ok := p.ExternalProductID.Get()
		if !ok {
			continue
		}
		if _, inMenu := seen[id]; !inMenu {
			diff.Dangling = append(diff.Dangling, p.ID)
		}
	}

	return diff
}

func fieldsFromMenu(item pos.MenuProduct) domain.ProductFields {
	fields := domain.ProductFields{
		Name:              item.Name,
		Description:       item.Description,
		Price:             item.Price.Round(2),
		Category:          item.CategoryName,
		ExternalProductID: domain.NewExternalID(item.ItemID),
	}
	if item.CategoryID != "" {
		categoryID := item.CategoryID
		fields.ExternalCategoryID = &categoryID
	}
	return fields
}

func changedFields(p domain.Product, f domain.ProductFields) []string {
	var changed []string
	if p.Name != f.Name {
		changed = append(changed, "name")
	}
	if !priceEqual(p.Price, f.Price) {
		changed = append(changed, "price")
	}
	if p.Category != f.Category {
		changed = append(changed, "category")
	}
	return changed
}

func priceEqual(a, b decimal.Decimal) bool {
	return a.Round(2).Equal(b.Round(2))
}
