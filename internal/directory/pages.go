package directory

import "fmt"

// Ellipsis marks a gap in the page list returned by VisiblePages
const Ellipsis = 0

const pageWindow = 2

// VisiblePages returns the page numbers to offer around current: the first
// and last page always, and pages within two of current. Gaps are marked
// with Ellipsis.
func VisiblePages(current, total int) []int {
	if total <= 0 {
		return nil
	}
	if total == 1 {
		return []int{1}
	}
	if current < 1 {
		current = 1
	}
	if current > total {
		current = total
	}

	pages := []int{1}
	if current-pageWindow > 2 {
		pages = append(pages, Ellipsis)
	}
	for i := max(2, current-pageWindow); i <= min(total-1, current+pageWindow); i++ {
		pages = append(pages, i)
	}
	if current+pageWindow < total-1 {
		pages = append(pages, Ellipsis)
	}
	return append(pages, total)
}

// Summary renders the results line shown above a listing
func Summary(loading bool, shown, total int, search string) string {
	if loading {
		return "Loading professionals..."
	}
	s := fmt.Sprintf("Showing %d of %d professionals", shown, total)
	if search != "" {
		s += fmt.Sprintf(" matching “%s”", search)
	}
	return s
}
