package comments

import (
	"fmt"
	"net/url"

	"commentd/internal/models"
)

// Sort fields accepted by the listing endpoint. Anything else falls back to
// SortCreatedAt rather than erroring.
const (
	SortCreatedAt = "created_at"
	SortUsername  = "username"
	SortEmail     = "email"
)

// Sort orders. Anything else falls back to OrderDesc.
const (
	OrderAsc  = "ASC"
	OrderDesc = "DESC"
)

// CacheKeyPrefix is the namespace for every cached listing payload. Writes
// purge the whole namespace with a wildcard over this prefix.
const CacheKeyPrefix = "comments:list:"

// ListQuery carries the full signature of a listing request. Filters are
// case-sensitive substring matches (SQL LIKE) on the comment text and the
// author's username/email.
type ListQuery struct {
	Page     int
	Limit    int
	Sort     string
	Order    string
	Text     string
	Username string
	Email    string
}

// Normalize clamps invalid paging values to the defaults and falls back to
// the default sort/order for unknown values. It never rejects a query.
func (q ListQuery) Normalize(defaultLimit int) ListQuery {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}
	switch q.Sort {
	case SortCreatedAt, SortUsername, SortEmail:
	default:
		q.Sort = SortCreatedAt
	}
	switch q.Order {
	case OrderAsc, OrderDesc:
	default:
		q.Order = OrderDesc
	}
	return q
}

// CacheKey derives the deterministic cache key for a normalized query. Field
// order is fixed and the free-text filters are escaped so they cannot contain
// the separator characters; distinct signatures never share a key.
func (q ListQuery) CacheKey() string {
	return fmt.Sprintf("%sp=%d:l=%d:s=%s:o=%s:t=%s:u=%s:e=%s",
		CacheKeyPrefix, q.Page, q.Limit, q.Sort, q.Order,
		url.QueryEscape(q.Text), url.QueryEscape(q.Username), url.QueryEscape(q.Email))
}

// Meta is the pagination envelope of a listing response.
type Meta struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Pages int   `json:"pages"`
}

// ListResult is the listing payload: root comments with their direct replies
// and attachments eager-loaded, plus pagination metadata.
type ListResult struct {
	Data []models.Comment `json:"data"`
	Meta Meta             `json:"meta"`
}
