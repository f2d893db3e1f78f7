package paging

import (
	"testing"
)

func TestNewCollectionPage(t *testing.T) {
	tests := []struct {
		name            string
		currentPage     int
		pageSize        int
		totalItems      int
		wantTotalPages  int
		wantCurrentPage int
	}{
		{
			name:            "exact_division",
			currentPage:     1,
			pageSize:        10,
			totalItems:      30,
			wantTotalPages:  3,
			wantCurrentPage: 1,
		},
		{
			name:            "partial_last_page",
			currentPage:     2,
			pageSize:        10,
			totalItems:      25,
			wantTotalPages:  3,
			wantCurrentPage: 2,
		},
		{
			name:            "empty_collection_has_one_page",
			currentPage:     1,
			pageSize:        10,
			totalItems:      0,
			wantTotalPages:  1,
			wantCurrentPage: 1,
		},
		{
			name:            "page_clamped_to_total",
			currentPage:     9,
			pageSize:        10,
			totalItems:      25,
			wantTotalPages:  3,
			wantCurrentPage: 3,
		},
		{
			name:            "page_clamped_to_one",
			currentPage:     0,
			pageSize:        10,
			totalItems:      25,
			wantTotalPages:  3,
			wantCurrentPage: 1,
		},
		{
			name:            "negative_total_treated_as_empty",
			currentPage:     1,
			pageSize:        10,
			totalItems:      -5,
			wantTotalPages:  1,
			wantCurrentPage: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := NewCollectionPage[int](nil, tt.currentPage, tt.pageSize, tt.totalItems)
			if page.TotalPages != tt.wantTotalPages {
				t.Errorf("TotalPages = %d, want %d", page.TotalPages, tt.wantTotalPages)
			}
			if page.CurrentPage != tt.wantCurrentPage {
				t.Errorf("CurrentPage = %d, want %d", page.CurrentPage, tt.wantCurrentPage)
			}
		})
	}
}

func TestSlice(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e", "f", "g"}

	tests := []struct {
		name    string
		page    int
		perPage int
		want    []string
	}{
		{"first_page", 1, 3, []string{"a", "b", "c"}},
		{"middle_page", 2, 3, []string{"d", "e", "f"}},
		{"partial_last_page", 3, 3, []string{"g"}},
		{"past_end", 4, 3, nil},
		{"page_zero", 0, 3, nil},
		{"zero_per_page", 1, 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Slice(items, tt.page, tt.perPage)
			if len(got) != len(tt.want) {
				t.Fatalf("Slice() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Slice()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestPlanSmallTotals(t *testing.T) {
	for total := 1; total <= 5; total++ {
		tokens := Plan(3, total)
		if len(tokens) != total {
			t.Errorf("Plan(3, %d) returned %d tokens, want %d", total, len(tokens), total)
		}
		for i, tok := range tokens {
			if int(tok) != i+1 {
				t.Errorf("Plan(3, %d)[%d] = %d, want %d", total, i, tok, i+1)
			}
		}
	}
}

func TestPlanLargeTotals(t *testing.T) {
	tests := []struct {
		name    string
		current int
		total   int
		want    []Token
	}{
		{
			name:    "current_at_start",
			current: 1,
			total:   10,
			want:    []Token{1, 2, Ellipsis, 10},
		},
		{
			name:    "current_in_middle",
			current: 5,
			total:   10,
			want:    []Token{1, Ellipsis, 4, 5, 6, Ellipsis, 10},
		},
		{
			name:    "current_at_end",
			current: 10,
			total:   10,
			want:    []Token{1, Ellipsis, 9, 10},
		},
		{
			name:    "window_abuts_left_edge",
			current: 3,
			total:   10,
			want:    []Token{1, 2, 3, 4, Ellipsis, 10},
		},
		{
			name:    "window_abuts_right_edge",
			current: 8,
			total:   10,
			want:    []Token{1, Ellipsis, 7, 8, 9, 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Plan(tt.current, tt.total)
			if len(got) != len(tt.want) {
				t.Fatalf("Plan(%d, %d) = %v, want %v", tt.current, tt.total, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Plan(%d, %d)[%d] = %d, want %d", tt.current, tt.total, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestPlanProperties(t *testing.T) {
	for total := 6; total <= 50; total++ {
		for current := 1; current <= total; current++ {
			tokens := Plan(current, total)

			if len(tokens) > 7 {
				t.Fatalf("Plan(%d, %d) has %d tokens, want <= 7", current, total, len(tokens))
			}

			var hasFirst, hasLast, hasCurrent bool
			for _, tok := range tokens {
				switch tok {
				case 1:
					hasFirst = true
				case Token(total):
					hasLast = true
				}
				if tok == Token(current) {
					hasCurrent = true
				}
			}
			if !hasFirst {
				t.Errorf("Plan(%d, %d) missing page 1", current, total)
			}
			if !hasLast {
				t.Errorf("Plan(%d, %d) missing page %d", current, total, total)
			}
			if !hasCurrent {
				t.Errorf("Plan(%d, %d) missing current page", current, total)
			}
		}
	}
}

func TestTokenIsEllipsis(t *testing.T) {
	if !Ellipsis.IsEllipsis() {
		t.Error("Ellipsis.IsEllipsis() = false, want true")
	}
	if Token(3).IsEllipsis() {
		t.Error("Token(3).IsEllipsis() = true, want false")
	}
}
