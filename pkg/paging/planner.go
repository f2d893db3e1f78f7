package paging

// Token is one entry of a rendered page-number strip: either a page number
// or the Ellipsis marker.
type Token int

// Ellipsis marks a gap between the fixed edge pages and the current-page
// window.
const Ellipsis Token = -1

// IsEllipsis reports whether the token is the gap marker.
func (t Token) IsEllipsis() bool {
	return t == Ellipsis
}

// Plan computes the page-number strip for a pager with total pages and the
// given current page.
//
// For total <= 5 the strip is simply 1..total. Beyond that, page 1 and page
// total are always present, a window of up to 3 pages centered on current is
// kept inside [2, total-1], and an Ellipsis token fills each gap where the
// window does not abut an edge. The strip never exceeds 7 tokens.
func Plan(current, total int) []Token {
	if total < 1 {
		total = 1
	}
	if current < 1 {
		current = 1
	}
	if current > total {
		current = total
	}

	if total <= 5 {
		tokens := make([]Token, 0, total)
		for p := 1; p <= total; p++ {
			tokens = append(tokens, Token(p))
		}
		return tokens
	}

	start := current - 1
	end := current + 1
	if start < 2 {
		start = 2
	}
	if end > total-1 {
		end = total - 1
	}

	tokens := make([]Token, 0, 7)
	tokens = append(tokens, 1)

	if start > 2 {
		tokens = append(tokens, Ellipsis)
	}
	for p := start; p <= end; p++ {
		tokens = append(tokens, Token(p))
	}
	if end < total-1 {
		tokens = append(tokens, Ellipsis)
	}

	return append(tokens, Token(total))
}
