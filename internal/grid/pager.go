package grid

// DefaultPageSize matches the console's table page size.
const DefaultPageSize = 10

// PageCount returns ceil(total/size). An empty collection has zero pages.
func PageCount(total, size int) int {
	if size <= 0 {
		size = DefaultPageSize
	}
	if total <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// Pager is a page cursor. Moving past either end is a no-op.
type Pager struct {
	Index int
	Size  int
}

// NewPager returns a cursor on the first page.
func NewPager(size int) Pager {
	if size <= 0 {
		size = DefaultPageSize
	}
	return Pager{Size: size}
}

func (p Pager) size() int {
	if p.Size <= 0 {
		return DefaultPageSize
	}
	return p.Size
}

// CanPrev reports whether a previous page exists.
func (p Pager) CanPrev() bool {
	return p.Index > 0
}

// CanNext reports whether a next page exists for total rows.
func (p Pager) CanNext(total int) bool {
	return p.Index+1 < PageCount(total, p.size())
}

// Next moves to the following page, or stays on the last one.
func (p Pager) Next(total int) Pager {
	if p.CanNext(total) {
		p.Index++
	}
	return p
}

// Prev moves to the preceding page, or stays on the first one.
func (p Pager) Prev() Pager {
	if p.CanPrev() {
		p.Index--
	}
	return p
}

// First returns the cursor on page 0.
func (p Pager) First() Pager {
	p.Index = 0
	return p
}

// Clamp pulls the index into [0, PageCount-1]; with no rows it is 0.
func (p Pager) Clamp(total int) Pager {
	last := PageCount(total, p.size()) - 1
	if p.Index > last {
		p.Index = last
	}
	if p.Index < 0 {
		p.Index = 0
	}
	return p
}

// Window returns the [start, end) bounds of the current page for total rows,
// after clamping.
func (p Pager) Window(total int) (start, end int) {
	p = p.Clamp(total)
	start = p.Index * p.size()
	end = min(start+p.size(), total)
	if start > end {
		start = end
	}
	return start, end
}
