// Package page holds the content-page domain object passed into the event
// engine by the host application.
package page

import "time"

// Page is a static content page.
type Page struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Content     string     `json:"content,omitempty"`
	IsPublished bool       `json:"is_published"`
	PublishedAt *time.Time `json:"publication_date,omitempty"`
}
