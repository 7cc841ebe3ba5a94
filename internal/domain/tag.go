package domain

// DefaultTagColor is used when a tag is created without a color.
const DefaultTagColor = "#999999"

// Tag is a global label shared across the whole workspace. The same tag
// can be attached to any number of projects and tasks.
type Tag struct {
	ID    string `json:"id"`
	Name  string `json:"name"`  // Globally unique
	Color string `json:"color"` // Hex code, e.g. "#ff8800"
}
