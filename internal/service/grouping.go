package service

import (
	"sort"

	"homestock/internal/domain"
)

// GroupByCategory partitions items into per-category groups plus an
// uncategorized bucket. Every category the account owns gets a group, even
// when empty, so the UI can offer "add first item here". Groups are sorted
// by category name; item order within a group follows the input order, so
// callers supplying items sorted by name get fully deterministic output.
func GroupByCategory(items []*domain.Item, categories []*domain.Category) *domain.GroupedInventory {
	groups := make(map[string]*domain.CategoryGroup, len(categories))
	for _, category := range categories {
		groups[category.ID.String()] = &domain.CategoryGroup{
			ID:        category.ID,
			Name:      category.Name,
			Color:     category.Color,
			TextColor: TextColorFor(category.Color),
			Items:     []domain.Item{},
		}
	}

	uncategorized := []domain.Item{}
	for _, item := range items {
		if item.CategoryID != nil {
			if group, ok := groups[item.CategoryID.String()]; ok {
				group.Items = append(group.Items, *item)
				continue
			}
		}
		uncategorized = append(uncategorized, *item)
	}

	sorted := make([]domain.CategoryGroup, 0, len(groups))
	for _, group := range groups {
		sorted = append(sorted, *group)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	return &domain.GroupedInventory{
		Categories:    sorted,
		Uncategorized: uncategorized,
	}
}
