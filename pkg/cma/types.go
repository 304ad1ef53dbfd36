package cma

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
)

// Sys is the server-owned system block of every resource.
type Sys struct {
	ID               string     `json:"id"                         yaml:"id"`
	Type             string     `json:"type,omitempty"             yaml:"type,omitempty"`
	Version          int        `json:"version,omitempty"          yaml:"version,omitempty"`
	PublishedVersion *int       `json:"publishedVersion,omitempty" yaml:"publishedVersion,omitempty"`
	ArchivedVersion  *int       `json:"archivedVersion,omitempty"  yaml:"archivedVersion,omitempty"`
	PublishedCounter int        `json:"publishedCounter,omitempty" yaml:"publishedCounter,omitempty"`
	CreatedAt        *time.Time `json:"createdAt,omitempty"        yaml:"createdAt,omitempty"`
	UpdatedAt        *time.Time `json:"updatedAt,omitempty"        yaml:"updatedAt,omitempty"`
	PublishedAt      *time.Time `json:"publishedAt,omitempty"      yaml:"publishedAt,omitempty"`
	FirstPublishedAt *time.Time `json:"firstPublishedAt,omitempty" yaml:"firstPublishedAt,omitempty"`
	ArchivedAt       *time.Time `json:"archivedAt,omitempty"       yaml:"archivedAt,omitempty"`
	Space            *Link      `json:"space,omitempty"            yaml:"space,omitempty"`
	Environment      *Link      `json:"environment,omitempty"      yaml:"environment,omitempty"`
	ContentType      *Link      `json:"contentType,omitempty"      yaml:"contentType,omitempty"`
	CreatedBy        *Link      `json:"createdBy,omitempty"        yaml:"createdBy,omitempty"`
	UpdatedBy        *Link      `json:"updatedBy,omitempty"        yaml:"updatedBy,omitempty"`
	PublishedBy      *Link      `json:"publishedBy,omitempty"      yaml:"publishedBy,omitempty"`
	ArchivedBy       *Link      `json:"archivedBy,omitempty"       yaml:"archivedBy,omitempty"`
}

// clone returns a copy of s that shares no pointers with it.
func (s Sys) clone() Sys {
	out := s
	out.PublishedVersion = cloneInt(s.PublishedVersion)
	out.ArchivedVersion = cloneInt(s.ArchivedVersion)
	out.CreatedAt = cloneTime(s.CreatedAt)
	out.UpdatedAt = cloneTime(s.UpdatedAt)
	out.PublishedAt = cloneTime(s.PublishedAt)
	out.FirstPublishedAt = cloneTime(s.FirstPublishedAt)
	out.ArchivedAt = cloneTime(s.ArchivedAt)
	out.Space = s.Space.clone()
	out.Environment = s.Environment.clone()
	out.ContentType = s.ContentType.clone()
	out.CreatedBy = s.CreatedBy.clone()
	out.UpdatedBy = s.UpdatedBy.clone()
	out.PublishedBy = s.PublishedBy.clone()
	out.ArchivedBy = s.ArchivedBy.clone()

	return out
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}

	out := *v

	return &out
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}

	out := *v

	return &out
}

// Link references another resource.
type Link struct {
	Sys LinkSys `json:"sys" yaml:"sys"`
}

// LinkSys is the system block of a link.
type LinkSys struct {
	Type     string `json:"type"               yaml:"type"`
	LinkType string `json:"linkType,omitempty" yaml:"linkType,omitempty"`
	ID       string `json:"id"                 yaml:"id"`
}

// NewLink builds a link to a resource of the given link type.
func NewLink(linkType, id string) *Link {
	return &Link{Sys: LinkSys{Type: "Link", LinkType: linkType, ID: id}}
}

func (l *Link) clone() *Link {
	if l == nil {
		return nil
	}

	out := *l

	return &out
}

// Collection is a page of wrapped resources.
type Collection[T any] struct {
	Total  int
	Skip   int
	Limit  int
	Items  []*Envelope[T]
	Errors []CollectionError
}

// Err aggregates the per-item failures reported by the server, or returns nil.
func (c *Collection[T]) Err() error {
	var result *multierror.Error

	for i := range c.Errors {
		result = multierror.Append(result, &c.Errors[i])
	}

	return result.ErrorOrNil()
}

// CollectionError is a partial failure attached to a collection response.
type CollectionError struct {
	Sys     LinkSys                `json:"sys"               yaml:"sys"`
	Details map[string]interface{} `json:"details,omitempty" yaml:"details,omitempty"`
}

// Error implements the error interface.
func (e *CollectionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Sys.ID, e.Details)
}

// QueryParams describes list options.
type QueryParams struct {
	Skip        int
	Limit       int
	Order       []string
	ContentType string
	Select      []string
	Filters     map[string][]string
}

// NewQueryParams creates empty query parameters.
func NewQueryParams() *QueryParams {
	return &QueryParams{
		Filters: make(map[string][]string),
	}
}

// WithSkip sets the number of items to skip.
func (q *QueryParams) WithSkip(skip int) *QueryParams {
	q.Skip = skip

	return q
}

// WithLimit sets the page size.
func (q *QueryParams) WithLimit(limit int) *QueryParams {
	q.Limit = limit

	return q
}

// WithOrder sets the ordering, e.g. "sys.createdAt" or "-fields.title".
func (q *QueryParams) WithOrder(order ...string) *QueryParams {
	q.Order = append(q.Order, order...)

	return q
}

// WithContentType restricts entry queries to one content type.
func (q *QueryParams) WithContentType(id string) *QueryParams {
	q.ContentType = id

	return q
}

// WithSelect limits the returned fields.
func (q *QueryParams) WithSelect(fields ...string) *QueryParams {
	q.Select = append(q.Select, fields...)

	return q
}

// WithFilter adds a raw search parameter such as "fields.title[match]".
func (q *QueryParams) WithFilter(key string, values ...string) *QueryParams {
	if q.Filters == nil {
		q.Filters = make(map[string][]string)
	}

	q.Filters[key] = append(q.Filters[key], values...)

	return q
}

// Clone returns an independent copy of q.
func (q *QueryParams) Clone() *QueryParams {
	if q == nil {
		return NewQueryParams()
	}

	out := &QueryParams{
		Skip:        q.Skip,
		Limit:       q.Limit,
		ContentType: q.ContentType,
		Order:       append([]string(nil), q.Order...),
		Select:      append([]string(nil), q.Select...),
		Filters:     make(map[string][]string, len(q.Filters)),
	}

	for key, values := range q.Filters {
		out.Filters[key] = append([]string(nil), values...)
	}

	return out
}

// ToValues converts the parameters to URL values.
func (q *QueryParams) ToValues() url.Values {
	values := url.Values{}

	if q == nil {
		return values
	}

	if q.Skip > 0 {
		values.Set("skip", strconv.Itoa(q.Skip))
	}

	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}

	if len(q.Order) > 0 {
		values.Set("order", strings.Join(q.Order, ","))
	}

	if q.ContentType != "" {
		values.Set("content_type", q.ContentType)
	}

	if len(q.Select) > 0 {
		values.Set("select", strings.Join(q.Select, ","))
	}

	for key, vals := range q.Filters {
		if len(vals) > 0 {
			values.Set(key, strings.Join(vals, ","))
		}
	}

	return values
}
