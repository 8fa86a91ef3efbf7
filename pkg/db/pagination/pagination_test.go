package pagination

import "testing"

func TestTrimBuildsNextToken(t *testing.T) {
	rows := []int{5, 4, 3}
	page, info, err := Trim(rows, 2, func(v int) (Cursor, error) {
		return Cursor{ID: string(rune('0' + v))}, nil
	})
	if err != nil {
		t.Fatalf("trim: %v", err)
	}
	if len(page) != 2 || !info.HasMore {
		t.Fatalf("expected 2 rows and has_more, got %v %+v", page, info)
	}

	cursor, err := DecodeCursor(info.NextPageToken)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cursor.ID != "4" {
		t.Fatalf("expected cursor at last returned row, got %q", cursor.ID)
	}
}

func TestTrimLastPage(t *testing.T) {
	page, info, err := Trim([]int{1}, 2, func(int) (Cursor, error) { return Cursor{}, nil })
	if err != nil {
		t.Fatalf("trim: %v", err)
	}
	if len(page) != 1 || info.HasMore || info.NextPageToken != "" {
		t.Fatalf("unexpected page %v %+v", page, info)
	}
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	if _, err := DecodeCursor("%%%"); err != ErrInvalidPageToken {
		t.Fatalf("expected ErrInvalidPageToken, got %v", err)
	}
}

func TestLimitClamp(t *testing.T) {
	if (Pagination{}).Limit() != DefaultPageSize {
		t.Fatalf("expected default page size")
	}
	if (Pagination{PageSize: 1000}).Limit() != MaxPageSize {
		t.Fatalf("expected max page size")
	}
}
