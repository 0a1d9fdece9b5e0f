// Package persistence reads item records from the relational store.
package persistence

// ItemModel maps the items table. The table is owned by the kiosk backend;
// this service only reads it.
type ItemModel struct {
	ItemID          int64  `gorm:"column:item_id;primaryKey"`
	ItemTitle       string `gorm:"column:item_title"`
	ItemDescription string `gorm:"column:item_description"`
	CategoryID      *int64 `gorm:"column:category_id"`
}

// TableName returns the items table name.
func (ItemModel) TableName() string { return "items" }

// CategoryModel maps the categories table.
type CategoryModel struct {
	CategoryID    int64  `gorm:"column:category_id;primaryKey"`
	CategoryTitle string `gorm:"column:category_title"`
}

// TableName returns the categories table name.
func (CategoryModel) TableName() string { return "categories" }

// ItemKeywordModel maps the item_keywords table.
type ItemKeywordModel struct {
	KeywordID int64  `gorm:"column:keyword_id;primaryKey;autoIncrement"`
	ItemID    int64  `gorm:"column:item_id;index"`
	Keyword   string `gorm:"column:keyword"`
}

// TableName returns the item_keywords table name.
func (ItemKeywordModel) TableName() string { return "item_keywords" }
