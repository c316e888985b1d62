package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidPageToken indicates that a supplied page token could not be decoded.
var ErrInvalidPageToken = errors.New("pagination: invalid page token")

// Cursor marks the position after which the next page of results starts.
// Listings are ordered by creation time descending with the document ID as a
// tie breaker.
type Cursor struct {
	CreatedAt time.Time `json:"createdAt"`
	ID        string    `json:"id"`
}

// IsZero reports whether the cursor points at the beginning of the result set.
func (c Cursor) IsZero() bool {
	return c.CreatedAt.IsZero() && c.ID == ""
}

// EncodeToken serialises the provided cursor into a base64 URL-safe page token.
func EncodeToken(cursor Cursor) (string, error) {
	if cursor.IsZero() {
		return "", nil
	}
	data, err := json.Marshal(cursor)
	if err != nil {
		return "", fmt.Errorf("pagination: encode token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// DecodeToken parses the page token produced by EncodeToken back into a cursor.
func DecodeToken(token string) (Cursor, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Cursor{}, nil
	}
	decoded, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: %v", ErrInvalidPageToken, err)
	}
	var cursor Cursor
	if err := json.Unmarshal(decoded, &cursor); err != nil {
		return Cursor{}, fmt.Errorf("%w: %v", ErrInvalidPageToken, err)
	}
	if cursor.IsZero() {
		return Cursor{}, fmt.Errorf("%w: empty cursor", ErrInvalidPageToken)
	}
	return cursor, nil
}
