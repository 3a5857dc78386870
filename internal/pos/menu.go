package pos

import (
	"strings"

	"github.com/shopspring/decimal"
)

const UncategorizedCategory = "uncategorized"

// MenuProduct is one sellable POS item flattened out of its category tree.
type MenuProduct struct {
	ItemID       string          `json:"itemId"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	CategoryID   string          `json:"categoryId"`
	CategoryName string          `json:"category"`
}

// FlattenMenu walks categories in order. Items without an id are skipped; the
// price is the first price of the first size, zero when absent.
func FlattenMenu(menu *Menu) []MenuProduct {
	if menu == nil {
		return nil
	}

	var products []MenuProduct
	for _, category := range menu.ItemCategories {
		categoryName := strings.TrimSpace(category.Name)
		if categoryName == "" {
			categoryName = UncategorizedCategory
		}
		for _, item := range category.Items {
			if strings.TrimSpace(item.ItemID) == "" {
				continue
			}
			products = append(products, MenuProduct{
				ItemID:       strings.TrimSpace(item.ItemID),
				Name:         strings.TrimSpace(item.Name),
				Description:  item.Description,
				Price:        firstPrice(item.ItemSizes),
				CategoryID:   category.ID,
				CategoryName: categoryName,
			})
		}
	}
	return products
}

func firstPrice(sizes []ItemSize) decimal.Decimal {
	if len(sizes) == 0 || len(sizes[0].Prices) == 0 || sizes[0].Prices[0].Price == nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(*sizes[0].Prices[0].Price)
}
