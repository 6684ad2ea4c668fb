package derive

import "sort"

// Calendar layout constants. Every scheduled item renders as a block
// with a fixed assumed duration; blocks shorter than the minimum height
// are padded up so they stay clickable.
const (
	// BlockMinutes is the assumed duration of every scheduled block.
	BlockMinutes = 45
	// MinBlockMinutes is the rendering floor for a block's height.
	MinBlockMinutes = 15
)

// Item is one schedulable entry on the calendar: a task step or a habit
// with a clock-time slot.
type Item struct {
	ID     string
	Label  string
	Hour   int
	Minute int
}

// Window is the visible portion of the day, [StartHour, EndHour).
type Window struct {
	StartHour int
	EndHour   int
}

// Contains reports whether a start time falls inside the window.
func (w Window) Contains(hour int) bool {
	return hour >= w.StartHour && hour < w.EndHour
}

// Block is a laid-out item. Top and Height are minutes relative to the
// window start; Left and Width are fractions of the day column, so two
// overlapping blocks render side by side at Width 0.5 each.
type Block struct {
	Item   Item
	Top    int
	Height int
	Column int
	Left   float64
	Width  float64
}

// Layout places scheduled items into the window.
//
// Items outside the window are dropped from the layout (they still
// exist in the underlying collection). The rest are sorted by start
// time and greedily assigned to the first column whose previous block
// has ended, which is the classic sweep for interval graph coloring.
// Widths are then equalized per overlap cluster: every block in a
// cluster of overlapping items gets 1/n of the column width, while an
// item with no overlaps keeps the full width.
func Layout(items []Item, w Window) []Block {
	blocks := make([]Block, 0, len(items))
	for _, it := range items {
		if !w.Contains(it.Hour) {
			continue
		}
		start := (it.Hour-w.StartHour)*60 + it.Minute
		height := BlockMinutes
		if height < MinBlockMinutes {
			height = MinBlockMinutes
		}
		blocks = append(blocks, Block{Item: it, Top: start, Height: height})
	}

	sort.SliceStable(blocks, func(i, j int) bool {
		return blocks[i].Top < blocks[j].Top
	})

	// Greedy column assignment: columnEnd[c] is the end time of the
	// block most recently placed in column c.
	var columnEnd []int
	for i := range blocks {
		start, end := blocks[i].Top, blocks[i].Top+BlockMinutes
		placed := false
		for c, colEnd := range columnEnd {
			if colEnd <= start {
				blocks[i].Column = c
				columnEnd[c] = end
				placed = true
				break
			}
		}
		if !placed {
			blocks[i].Column = len(columnEnd)
			columnEnd = append(columnEnd, end)
		}
	}

	// Equalize widths within each overlap cluster. A cluster is a
	// maximal run of blocks where each starts before the cluster's
	// running end time.
	for lo := 0; lo < len(blocks); {
		hi := lo + 1
		clusterEnd := blocks[lo].Top + BlockMinutes
		maxColumn := blocks[lo].Column
		for hi < len(blocks) && blocks[hi].Top < clusterEnd {
			if end := blocks[hi].Top + BlockMinutes; end > clusterEnd {
				clusterEnd = end
			}
			if blocks[hi].Column > maxColumn {
				maxColumn = blocks[hi].Column
			}
			hi++
		}

		width := 1.0 / float64(maxColumn+1)
		for i := lo; i < hi; i++ {
			blocks[i].Width = width
			blocks[i].Left = float64(blocks[i].Column) * width
		}
		lo = hi
	}

	return blocks
}
