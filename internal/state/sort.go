package state

import (
	"cmp"
	"fmt"
	"slices"
)

// Header is a sortable column of the container list.
type Header uint8

const (
	HeaderState Header = iota
	HeaderStatus
	HeaderCPU
	HeaderMemory
	HeaderID
	HeaderName
	HeaderImage
	HeaderRx
	HeaderTx
)

// Headers lists every column in display order.
var Headers = []Header{
	HeaderState, HeaderStatus, HeaderCPU, HeaderMemory,
	HeaderID, HeaderName, HeaderImage, HeaderRx, HeaderTx,
}

func (h Header) String() string {
	switch h {
	case HeaderState:
		return "state"
	case HeaderStatus:
		return "status"
	case HeaderCPU:
		return "cpu"
	case HeaderMemory:
		return "memory/limit"
	case HeaderID:
		return "id"
	case HeaderName:
		return "name"
	case HeaderImage:
		return "image"
	case HeaderRx:
		return "↓ rx"
	case HeaderTx:
		return "↑ tx"
	default:
		return fmt.Sprintf("header(%d)", uint8(h))
	}
}

// Direction is the sort order of a column.
type Direction uint8

const (
	Asc Direction = iota
	Desc
)

func (d Direction) String() string {
	if d == Desc {
		return "desc"
	}
	return "asc"
}

// Sort is an active column sort.
type Sort struct {
	Header    Header
	Direction Direction
}

// cycleSort advances the sort for a header request: a new header starts
// ascending, the same header goes ascending → descending → off.
func cycleSort(cur Sort, active bool, h Header) (Sort, bool) {
	if !active || cur.Header != h {
		return Sort{Header: h, Direction: Asc}, true
	}
	if cur.Direction == Asc {
		return Sort{Header: h, Direction: Desc}, true
	}
	return Sort{}, false
}

// applySort orders items in place. With no active sort, items are ordered by
// creation time. The sort is stable so equal keys keep their relative order.
func applySort(items []*ContainerItem, s Sort, active bool) {
	if !active {
		slices.SortStableFunc(items, func(a, b *ContainerItem) int {
			return cmp.Compare(a.Created, b.Created)
		})
		return
	}
	less := comparator(s.Header)
	if s.Direction == Desc {
		slices.SortStableFunc(items, func(a, b *ContainerItem) int { return less(b, a) })
		return
	}
	slices.SortStableFunc(items, less)
}

func comparator(h Header) func(a, b *ContainerItem) int {
	switch h {
	case HeaderState:
		// Ascending lists the least healthy first.
		return func(a, b *ContainerItem) int { return cmp.Compare(b.State.Order(), a.State.Order()) }
	case HeaderStatus:
		return func(a, b *ContainerItem) int { return cmp.Compare(a.Status, b.Status) }
	case HeaderCPU:
		return func(a, b *ContainerItem) int { return lastCPU(a).Compare(lastCPU(b)) }
	case HeaderMemory:
		return func(a, b *ContainerItem) int { return lastMem(a).Compare(lastMem(b)) }
	case HeaderID:
		return func(a, b *ContainerItem) int { return cmp.Compare(a.ID, b.ID) }
	case HeaderName:
		return func(a, b *ContainerItem) int { return cmp.Compare(a.Name, b.Name) }
	case HeaderImage:
		return func(a, b *ContainerItem) int { return cmp.Compare(a.Image, b.Image) }
	case HeaderRx:
		return func(a, b *ContainerItem) int { return a.Rx.Compare(b.Rx) }
	case HeaderTx:
		return func(a, b *ContainerItem) int { return a.Tx.Compare(b.Tx) }
	default:
		return func(a, b *ContainerItem) int { return cmp.Compare(a.Created, b.Created) }
	}
}

func lastCPU(c *ContainerItem) CPUStats {
	v, _ := c.CPU.Last()
	return v
}

func lastMem(c *ContainerItem) ByteStats {
	v, _ := c.Mem.Last()
	return v
}
