package pagination

import (
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCursorRoundTrip(t *testing.T) {
	in := Cursor{At: time.Date(2026, 3, 2, 9, 0, 0, 123, time.FixedZone("EST", -5*3600)), ID: uuid.New()}
	out, err := ParseCursor(EncodeCursor(in))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !out.At.Equal(in.At) || out.ID != in.ID {
		t.Fatalf("round trip mismatch: %+v vs %+v", out, in)
	}
	if out.At.Location() != time.UTC {
		t.Fatalf("expected UTC, got %s", out.At.Location())
	}
}

func TestParseCursorRejectsGarbage(t *testing.T) {
	if c, err := ParseCursor("  "); c != nil || err != nil {
		t.Fatalf("expected nil cursor for blank input, got %+v %v", c, err)
	}
	for _, value := range []string{
		"%%%",
		base64.RawURLEncoding.EncodeToString([]byte("no-separator")),
		base64.RawURLEncoding.EncodeToString([]byte("yesterday." + uuid.NewString())),
		base64.RawURLEncoding.EncodeToString([]byte("1772442000000000000.nope")),
	} {
		if _, err := ParseCursor(value); !errors.Is(err, ErrBadCursor) {
			t.Fatalf("expected ErrBadCursor for %q, got %v", value, err)
		}
	}
}

func TestNormalizeLimit(t *testing.T) {
	cases := map[int]int{0: DefaultLimit, -3: DefaultLimit, 10: 10, MaxLimit + 1: MaxLimit}
	for in, want := range cases {
		if got := NormalizeLimit(in); got != want {
			t.Fatalf("NormalizeLimit(%d) = %d, want %d", in, got, want)
		}
	}
	if LimitWithBuffer(10) != 11 {
		t.Fatalf("expected buffer of one")
	}
}

func TestTrim(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	rows := make([]Cursor, 4)
	for i := range rows {
		rows[i] = Cursor{At: base.Add(time.Duration(i) * time.Hour), ID: uuid.New()}
	}
	key := func(c Cursor) Cursor { return c }

	page, next := Trim(rows, 3, key)
	if len(page) != 3 || next == "" {
		t.Fatalf("expected 3 rows and a cursor, got %d %q", len(page), next)
	}
	c, err := ParseCursor(next)
	if err != nil || !c.At.Equal(rows[2].At) || c.ID != rows[2].ID {
		t.Fatalf("cursor should point at last row: %+v %v", c, err)
	}

	page, next = Trim(rows[:2], 3, key)
	if len(page) != 2 || next != "" {
		t.Fatalf("expected final page, got %d %q", len(page), next)
	}
}
