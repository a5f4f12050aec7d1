package utils

// PageOffset is the row offset of a 1-based page.
func PageOffset(page, perPage int) int {
	if page < 1 || perPage < 1 {
		return 0
	}
	return (page - 1) * perPage
}

// PageCount is how many pages of perPage rows total spans.
func PageCount(total int64, perPage int) int {
	if perPage < 1 || total < 1 {
		return 0
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}
