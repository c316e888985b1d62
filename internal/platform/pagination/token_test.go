package pagination

import (
	"errors"
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	cursor := Cursor{
		CreatedAt: time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC),
		ID:        "ord_01HZXY",
	}

	token, err := EncodeToken(cursor)
	if err != nil {
		t.Fatalf("EncodeToken returned error: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	decoded, err := DecodeToken(token)
	if err != nil {
		t.Fatalf("DecodeToken returned error: %v", err)
	}
	if !decoded.CreatedAt.Equal(cursor.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", decoded.CreatedAt, cursor.CreatedAt)
	}
	if decoded.ID != cursor.ID {
		t.Errorf("ID = %q, want %q", decoded.ID, cursor.ID)
	}
}

func TestEncodeTokenZeroCursor(t *testing.T) {
	token, err := EncodeToken(Cursor{})
	if err != nil {
		t.Fatalf("EncodeToken returned error: %v", err)
	}
	if token != "" {
		t.Errorf("expected empty token for zero cursor, got %q", token)
	}
}

func TestDecodeTokenEmpty(t *testing.T) {
	cursor, err := DecodeToken("  ")
	if err != nil {
		t.Fatalf("DecodeToken returned error: %v", err)
	}
	if !cursor.IsZero() {
		t.Errorf("expected zero cursor, got %+v", cursor)
	}
}

func TestDecodeTokenInvalid(t *testing.T) {
	for _, token := range []string{"not-base64!!", "aGVsbG8", "e30"} {
		if _, err := DecodeToken(token); !errors.Is(err, ErrInvalidPageToken) {
			t.Errorf("DecodeToken(%q) error = %v, want ErrInvalidPageToken", token, err)
		}
	}
}
