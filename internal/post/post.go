// Package post defines the JSONPlaceholder post resource and the local draft
// the creation form edits.
package post

import (
	"fmt"
	"strconv"
)

// DefaultUserID is the author attached to every post created by this client.
const DefaultUserID = 1

// FieldTitle is the form field name bound to Draft.Title.
const FieldTitle = "title"

// constError is an immutable error type for sentinel errors.
type constError string

func (e constError) Error() string { return string(e) }

// ErrUnknownField is returned by Draft.Set for a field the draft does not hold.
const ErrUnknownField = constError("unknown draft field")

// Post is a post as returned by the remote collection.
// ID is assigned by the server and never changes after creation.
type Post struct {
	ID     int    `json:"id"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	UserID int    `json:"userId"`
}

// Key returns the identity used to keep rows stable across refreshes.
func (p Post) Key() string {
	return strconv.Itoa(p.ID)
}

// NewPost is the write payload sent to the collection endpoint.
type NewPost struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	UserID int    `json:"userId"`
}

// Draft is the form-local state of a post being composed.
type Draft struct {
	Title string
}

// Set merges a single named field into the draft, leaving the others as they are.
func (d *Draft) Set(field, value string) error {
	switch field {
	case FieldTitle:
		d.Title = value
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
}

// Payload builds the create request for the draft.
// The body mirrors the title.
func (d Draft) Payload() NewPost {
	return NewPost{
		Title:  d.Title,
		Body:   d.Title,
		UserID: DefaultUserID,
	}
}
