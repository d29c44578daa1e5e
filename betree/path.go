package betree

// Path is the chain of node ids an operation has visited, root first.
// Under a write lock_path every node on it is write-locked and pinned by
// the operation until it finishes.
type Path []NID

func (p *Path) push(nid NID) { *p = append(*p, nid) }

func (p Path) indexOf(nid NID) int {
	for i, id := range p {
		if id == nid {
			return i
		}
	}
	return -1
}

func (p Path) contains(nid NID) bool { return p.indexOf(nid) >= 0 }

// upTo copies the chain from the root down to and including position i.
func (p Path) upTo(i int) Path {
	return append(make(Path, 0, i+2), p[:i+1]...)
}
