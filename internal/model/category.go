package model

// Category represents a row of the `category` table.
type Category struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// CategoryUsage is a category with the number of buttons referencing it.
type CategoryUsage struct {
	Category
	Buttons int `json:"buttons"`
}
