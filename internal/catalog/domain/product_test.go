package domain_test

import (
	"testing"
	"time"

	"github.com/dejobratic/catalog/internal/catalog/domain"
)

func TestPageQueryNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   domain.PageQuery
		want domain.PageQuery
	}{
		{
			name: "defaults applied",
			in:   domain.PageQuery{},
			want: domain.PageQuery{Limit: 20, SortBy: domain.SortByCreatedAt, SortOrder: domain.Descending},
		},
		{
			name: "limit clamped to max",
			in:   domain.PageQuery{Limit: 500},
			want: domain.PageQuery{Limit: 100, SortBy: domain.SortByCreatedAt, SortOrder: domain.Descending},
		},
		{
			name: "explicit values preserved",
			in:   domain.PageQuery{Limit: 5, SortBy: domain.SortByPrice, SortOrder: domain.Ascending},
			want: domain.PageQuery{Limit: 5, SortBy: domain.SortByPrice, SortOrder: domain.Ascending},
		},
		{
			name: "negative limit falls back to default",
			in:   domain.PageQuery{Limit: -3},
			want: domain.PageQuery{Limit: 20, SortBy: domain.SortByCreatedAt, SortOrder: domain.Descending},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Normalize(20, 100)
			if got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestBuildPage(t *testing.T) {
	rows := []domain.Product{
		{ID: "a", Price: 1},
		{ID: "b", Price: 2},
		{ID: "c", Price: 3},
	}

	t.Run("full probe sets cursor", func(t *testing.T) {
		page := domain.BuildPage(rows, 2, domain.SortByPrice)

		if !page.HasMore {
			t.Fatal("expected hasMore")
		}
		if page.NextCursor == nil {
			t.Fatal("expected nextCursor present when hasMore")
		}
		if len(page.Data) != 2 {
			t.Fatalf("expected trimmed page of 2, got %d", len(page.Data))
		}

		cursor, err := domain.DecodeCursor(*page.NextCursor)
		if err != nil {
			t.Fatalf("decode cursor: %v", err)
		}
		if cursor.ID != "b" {
			t.Errorf("expected cursor at last retained row b, got %s", cursor.ID)
		}
		if v, _ := cursor.PriceValue(); v != 2 {
			t.Errorf("expected cursor price 2, got %v", v)
		}
	})

	t.Run("short probe has no cursor", func(t *testing.T) {
		page := domain.BuildPage(rows, 3, domain.SortByPrice)

		if page.HasMore {
			t.Fatal("expected hasMore false")
		}
		if page.NextCursor != nil {
			t.Fatal("expected nextCursor absent when hasMore false")
		}
		if len(page.Data) != 3 {
			t.Fatalf("expected 3 rows, got %d", len(page.Data))
		}
	})

	t.Run("empty result serializes as empty slice", func(t *testing.T) {
		page := domain.BuildPage(nil, 5, domain.SortByPrice)

		if page.Data == nil {
			t.Fatal("expected non-nil empty data")
		}
		if page.HasMore || page.NextCursor != nil {
			t.Fatal("expected empty page without cursor")
		}
	})
}

func TestCursorRoundTrip(t *testing.T) {
	created := time.Date(2025, 3, 14, 9, 26, 53, 589793000, time.UTC)
	p := domain.Product{ID: "p-42", Name: "Tomato", Price: 12.75, CreatedAt: created}

	tests := []struct {
		name   string
		sortBy domain.SortField
		check  func(t *testing.T, c domain.Cursor)
	}{
		{
			name:   "price",
			sortBy: domain.SortByPrice,
			check: func(t *testing.T, c domain.Cursor) {
				v, err := c.PriceValue()
				if err != nil || v != 12.75 {
					t.Errorf("expected price 12.75, got %v (%v)", v, err)
				}
			},
		},
		{
			name:   "createdAt",
			sortBy: domain.SortByCreatedAt,
			check: func(t *testing.T, c domain.Cursor) {
				v, err := c.TimeValue()
				if err != nil || !v.Equal(created) {
					t.Errorf("expected %v, got %v (%v)", created, v, err)
				}
			},
		},
		{
			name:   "name",
			sortBy: domain.SortByName,
			check: func(t *testing.T, c domain.Cursor) {
				if c.Value != "Tomato" {
					t.Errorf("expected Tomato, got %q", c.Value)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := domain.EncodeCursor(domain.CursorFor(p, tt.sortBy))

			decoded, err := domain.DecodeCursor(token)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if decoded.ID != "p-42" {
				t.Errorf("expected id p-42, got %s", decoded.ID)
			}
			tt.check(t, decoded)
		})
	}
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	for _, token := range []string{"", "not-base64!", "bm90LWpzb24", "e30"} {
		if _, err := domain.DecodeCursor(token); err == nil {
			t.Errorf("expected error for token %q", token)
		}
	}
}
