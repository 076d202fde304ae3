// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Span is a run of text inside a rich-text block.
type Span struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Block is one paragraph-level node of structured article content.
type Block struct {
	Type     string `json:"type"`
	Children []Span `json:"children"`
}

// Content is an article body. It is either plain text or a list of
// rich-text blocks, and round-trips through JSON in the same shape the
// client sent it (a JSON string or a JSON array).
type Content struct {
	Text       string
	Blocks     []Block
	Structured bool
}

// TextContent returns plain-text content.
func TextContent(s string) *Content {
	return &Content{Text: s}
}

// BlockContent returns structured content made of the given blocks.
func BlockContent(blocks ...Block) *Content {
	return &Content{Blocks: blocks, Structured: true}
}

// IsEmpty reports whether the content counts as absent. An empty string is
// absent; an empty block list is not.
func (c *Content) IsEmpty() bool {
	return c == nil || (!c.Structured && c.Text == "")
}

// MarshalJSON encodes blocks as an array and plain text as a string.
func (c Content) MarshalJSON() ([]byte, error) {
	if c.Structured {
		if c.Blocks == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(c.Blocks)
	}
	return json.Marshal(c.Text)
}

// UnmarshalJSON accepts either a JSON string or a JSON array of blocks.
func (c *Content) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = Content{}
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Content{Text: s}
		return nil
	case '[':
		var blocks []Block
		if err := json.Unmarshal(data, &blocks); err != nil {
			return fmt.Errorf("content blocks: %w", err)
		}
		*c = Content{Blocks: blocks, Structured: true}
		return nil
	}
	return errors.New("content must be a string or a list of blocks")
}

// Value stores content as JSON in a jsonb column.
func (c Content) Value() (driver.Value, error) {
	b, err := c.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan reads content back from a jsonb column.
func (c *Content) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*c = Content{}
		return nil
	case []byte:
		return c.UnmarshalJSON(v)
	case string:
		return c.UnmarshalJSON([]byte(v))
	}
	return fmt.Errorf("scan content: unsupported type %T", src)
}

// Tags is the label set attached to an article, stored as a jsonb array.
type Tags []string

// Value encodes tags as a JSON array. A nil set is stored as NULL.
func (t Tags) Value() (driver.Value, error) {
	if t == nil {
		return nil, nil
	}
	b, err := json.Marshal([]string(t))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan decodes a jsonb array into tags.
func (t *Tags) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*t = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("scan tags: unsupported type %T", src)
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("scan tags: %w", err)
	}
	*t = out
	return nil
}

// Author is the public projection of the user who wrote an article.
type Author struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Article is a blog/news post. A non-nil PublishedAt means the article is
// publicly visible; nil means draft.
type Article struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Content     Content    `json:"content"`
	Excerpt     *string    `json:"excerpt"`
	Views       int        `json:"views"`
	IsFeatured  bool       `json:"isFeatured"`
	ReadingTime *int       `json:"readingTime"`
	Tags        Tags       `json:"tags"`
	PublishedAt *time.Time `json:"publishedAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`

	CategoryID   *int64 `json:"-"`
	AuthorID     *int64 `json:"-"`
	CoverImageID *int64 `json:"-"`

	// Populated relations.
	Category   *Category `json:"category"`
	Author     *Author   `json:"author"`
	CoverImage *Media    `json:"coverImage"`
}

// IsPublished returns true if the article has a publish timestamp.
func (a *Article) IsPublished() bool {
	return a.PublishedAt != nil
}

// Ref is a relation id in a write payload. It accepts a number, a numeric
// string, or an object carrying an "id" field.
type Ref int64

// UnmarshalJSON decodes the accepted relation shapes.
func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return errors.New("empty relation")
	}
	switch data[0] {
	case '{':
		var obj struct {
			ID json.RawMessage `json:"id"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		if obj.ID == nil {
			return errors.New("relation object has no id")
		}
		return r.UnmarshalJSON(obj.ID)
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("relation id %q is not a number", s)
		}
		*r = Ref(n)
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("relation id: %w", err)
	}
	*r = Ref(n)
	return nil
}

// ArticleInput is the client payload for creating or updating an article.
// Pointer fields distinguish "absent" from zero values.
type ArticleInput struct {
	Title       *string  `json:"title"`
	Slug        *string  `json:"slug"`
	Content     *Content `json:"content"`
	Excerpt     *string  `json:"excerpt"`
	Category    *Ref     `json:"category"`
	CoverImage  *Ref     `json:"coverImage"`
	IsFeatured  *bool    `json:"isFeatured"`
	ReadingTime *int     `json:"readingTime"`
	Tags        []string `json:"tags"`

	// Views is accepted so payloads echoing a fetched article decode, but
	// it is never written.
	Views *int `json:"views"`
}

// ApplyTo copies the supplied fields onto an article. Relations, views,
// author and publish state are left to the caller.
func (in *ArticleInput) ApplyTo(a *Article) {
	if in.Title != nil {
		a.Title = *in.Title
	}
	if in.Slug != nil {
		a.Slug = *in.Slug
	}
	if in.Content != nil {
		a.Content = *in.Content
	}
	if in.Excerpt != nil {
		if *in.Excerpt == "" {
			a.Excerpt = nil
		} else {
			excerpt := *in.Excerpt
			a.Excerpt = &excerpt
		}
	}
	if in.Category != nil {
		id := int64(*in.Category)
		a.CategoryID = &id
	}
	if in.CoverImage != nil {
		id := int64(*in.CoverImage)
		a.CoverImageID = &id
	}
	if in.IsFeatured != nil {
		a.IsFeatured = *in.IsFeatured
	}
	if in.ReadingTime != nil {
		rt := *in.ReadingTime
		a.ReadingTime = &rt
	}
	if in.Tags != nil {
		a.Tags = Tags(in.Tags)
	}
}
