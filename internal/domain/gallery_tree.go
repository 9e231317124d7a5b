package domain

import (
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Forest is an in-memory index over the active gallery nodes.
type Forest struct {
	nodes    map[uuid.UUID]*Gallery
	children map[uuid.UUID][]*Gallery
	roots    []*Gallery
}

// NewForest indexes nodes. Nodes whose parent is not part of the set are
// treated as roots for display purposes.
func NewForest(nodes []*Gallery) *Forest {
	f := &Forest{
		nodes:    make(map[uuid.UUID]*Gallery, len(nodes)),
		children: make(map[uuid.UUID][]*Gallery),
	}
	for _, n := range nodes {
		f.nodes[n.ID] = n
	}
	for _, n := range nodes {
		if n.ParentID != nil {
			if _, ok := f.nodes[*n.ParentID]; ok {
				f.children[*n.ParentID] = append(f.children[*n.ParentID], n)
				continue
			}
		}
		f.roots = append(f.roots, n)
	}
	sortByName(f.roots)
	for _, c := range f.children {
		sortByName(c)
	}
	return f
}

func (f *Forest) Len() int {
	return len(f.nodes)
}

func (f *Forest) Get(id uuid.UUID) (*Gallery, bool) {
	n, ok := f.nodes[id]
	return n, ok
}

func (f *Forest) Roots() []*Gallery {
	return f.roots
}

func (f *Forest) Children(id uuid.UUID) []*Gallery {
	return f.children[id]
}

// ChainReaches reports whether walking parent links from start (start
// included) arrives at target. The walk is capped at the node count so a
// cycle already present in stored data cannot loop forever.
func (f *Forest) ChainReaches(start, target uuid.UUID) bool {
	cur := start
	for steps := 0; steps <= len(f.nodes); steps++ {
		if cur == target {
			return true
		}
		n, ok := f.nodes[cur]
		if !ok || n.ParentID == nil {
			return false
		}
		cur = *n.ParentID
	}
	return false
}

// Ancestors returns the parent chain of id, nearest first.
func (f *Forest) Ancestors(id uuid.UUID) []*Gallery {
	var out []*Gallery
	n, ok := f.nodes[id]
	if !ok {
		return nil
	}
	seen := map[uuid.UUID]bool{id: true}
	for n.ParentID != nil && len(out) < len(f.nodes) {
		p, ok := f.nodes[*n.ParentID]
		if !ok || seen[p.ID] {
			break
		}
		seen[p.ID] = true
		out = append(out, p)
		n = p
	}
	return out
}

// Descendants returns every node below id, breadth first.
func (f *Forest) Descendants(id uuid.UUID) []*Gallery {
	var out []*Gallery
	seen := map[uuid.UUID]bool{id: true}
	queue := []uuid.UUID{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, c := range f.children[cur] {
			if seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			out = append(out, c)
			queue = append(queue, c.ID)
		}
	}
	return out
}

// TreeEntry is one row of a flattened, depth-annotated tree listing.
type TreeEntry struct {
	Gallery *Gallery
	Depth   int
}

// Label indents the gallery name by depth, for select boxes.
func (e TreeEntry) Label() string {
	return strings.Repeat("— ", e.Depth) + e.Gallery.Name
}

// Flatten lists the forest depth first, roots in name order.
func (f *Forest) Flatten() []TreeEntry {
	out := make([]TreeEntry, 0, len(f.nodes))
	seen := make(map[uuid.UUID]bool, len(f.nodes))
	var walk func(n *Gallery, depth int)
	walk = func(n *Gallery, depth int) {
		if seen[n.ID] {
			return
		}
		seen[n.ID] = true
		out = append(out, TreeEntry{Gallery: n, Depth: depth})
		for _, c := range f.children[n.ID] {
			walk(c, depth+1)
		}
	}
	for _, r := range f.roots {
		walk(r, 0)
	}
	return out
}

func sortByName(nodes []*Gallery) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return strings.ToLower(nodes[i].Name) < strings.ToLower(nodes[j].Name)
	})
}
