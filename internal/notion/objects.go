package notion

import "time"

// Database is a schema'd table: identity, display title and the property
// declarations its rows instantiate.
type Database struct {
	ID             string                        `json:"id"`
	CreatedTime    time.Time                     `json:"created_time"`
	LastEditedTime time.Time                     `json:"last_edited_time"`
	Title          []RichTextRun                 `json:"title"`
	Properties     map[string]PropertyDefinition `json:"properties"`
	URL            string                        `json:"url,omitempty"`
}

// DisplayTitle is the plain-text projection of the database title runs.
func (d Database) DisplayTitle() string {
	return PlainText(d.Title)
}

// Row is one queried database item.
type Row struct {
	ID             string                   `json:"id"`
	CreatedTime    time.Time                `json:"created_time"`
	LastEditedTime time.Time                `json:"last_edited_time"`
	URL            string                   `json:"url,omitempty"`
	Properties     map[string]PropertyValue `json:"properties"`
}

// Page is a standalone page: row-shaped properties plus its content blocks.
// Blocks are attached by the caller after a children fetch, never decoded
// from the page object itself.
type Page struct {
	ID             string                   `json:"id"`
	CreatedTime    time.Time                `json:"created_time"`
	LastEditedTime time.Time                `json:"last_edited_time"`
	URL            string                   `json:"url,omitempty"`
	Properties     map[string]PropertyValue `json:"properties"`
	Blocks         []Block                  `json:"blocks,omitempty"`
}
