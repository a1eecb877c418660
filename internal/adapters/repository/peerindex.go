package repository

import (
	"hash/fnv"
	"sync"

	"github.com/okian/careerpulse/internal/domain/percentile"
	"github.com/okian/careerpulse/pkg/metrics"
)

// Treap-based order-statistic index over the latest overall score of every
// subject, one tree per score kind.
//
// Ordering: score ASC, then subjectID ASC (deterministic). Each node carries
// its subtree size and sum so strict-below counts and means are O(log n).

// treap node
type node struct {
	id    string
	score int
	prio  uint64
	left  *node
	right *node
	size  int
	sum   int
	max   int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func nsum(n *node) int {
	if n == nil {
		return 0
	}
	return n.sum
}

func fix(n *node) {
	if n == nil {
		return
	}
	n.size = 1 + nsize(n.left) + nsize(n.right)
	n.sum = n.score + nsum(n.left) + nsum(n.right)
	n.max = n.score
	if n.right != nil {
		n.max = n.right.max
	}
}

// less reports whether (aScore, aID) sorts before (bScore, bID).
func less(aScore int, aID string, bScore int, bID string) bool {
	if aScore != bScore {
		return aScore < bScore
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

// idPriority derives a stable heap priority from the subject ID.
func idPriority(id string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	return h.Sum64()
}

func insert(n *node, id string, score int) *node {
	if n == nil {
		nn := &node{id: id, score: score, prio: idPriority(id)}
		fix(nn)
		return nn
	}
	if less(score, id, n.score, n.id) {
		n.left = insert(n.left, id, score)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, score)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, score int) *node {
	if n == nil {
		return nil
	}
	if score == n.score && id == n.id {
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, score)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, score)
		}
	} else if less(score, id, n.score, n.id) {
		n.left = deleteNode(n.left, id, score)
	} else {
		n.right = deleteNode(n.right, id, score)
	}
	fix(n)
	return n
}

// countBelow returns the number of nodes with score strictly below v.
func countBelow(n *node, v int) int {
	count := 0
	for n != nil {
		if n.score < v {
			count += nsize(n.left) + 1
			n = n.right
		} else {
			n = n.left
		}
	}
	return count
}

type tree struct {
	root *node
	byID map[string]int
}

// PeerIndex ranks a score against the latest score of every other subject
// of the same kind.
type PeerIndex struct {
	mu    sync.RWMutex
	trees map[string]*tree
}

// NewPeerIndex returns an empty index.
func NewPeerIndex(opts ...PeerIndexOption) *PeerIndex {
	p := &PeerIndex{trees: make(map[string]*tree)}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Upsert sets subjectID's score for kind, replacing any previous entry.
func (p *PeerIndex) Upsert(kind, subjectID string, overall int) {
	p.mu.Lock()
	t, ok := p.trees[kind]
	if !ok {
		t = &tree{byID: make(map[string]int)}
		p.trees[kind] = t
	}
	if old, ok := t.byID[subjectID]; ok {
		if old == overall {
			p.mu.Unlock()
			return
		}
		t.root = deleteNode(t.root, subjectID, old)
	}
	t.byID[subjectID] = overall
	t.root = insert(t.root, subjectID, overall)
	size := len(t.byID)
	p.mu.Unlock()

	metrics.UpdatePeerIndexSize(kind, size)
}

// Rank ranks value against every subject of kind except exclude, whose own
// entry would otherwise count as a peer.
func (p *PeerIndex) Rank(kind, exclude string, value int) percentile.Result {
	p.mu.RLock()
	defer p.mu.RUnlock()

	t, ok := p.trees[kind]
	if !ok || t.root == nil {
		return percentile.FromCounts(0, 0, 0, 0)
	}
	below := countBelow(t.root, value)
	total := t.root.size
	sum := t.root.sum
	highest := t.root.max

	if own, ok := t.byID[exclude]; ok {
		total--
		sum -= own
		if own < value {
			below--
		}
		if total == 0 {
			return percentile.FromCounts(0, 0, 0, 0)
		}
		if own == highest {
			highest = maxExcluding(t.root, exclude)
		}
	}
	return percentile.FromCounts(below, total, float64(sum), float64(highest))
}

// maxExcluding returns the largest score held by any subject but id.
func maxExcluding(n *node, id string) int {
	// The two right-most nodes are the only candidates.
	var last, prev *node
	var walk func(*node)
	walk = func(n *node) {
		if n == nil || (last != nil && prev != nil) {
			return
		}
		walk(n.right)
		if last == nil {
			last = n
		} else if prev == nil {
			prev = n
		}
		walk(n.left)
	}
	walk(n)
	if last != nil && last.id != id {
		return last.score
	}
	if prev != nil {
		return prev.score
	}
	return 0
}

// Len returns the number of subjects indexed for kind.
func (p *PeerIndex) Len(kind string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if t, ok := p.trees[kind]; ok {
		return len(t.byID)
	}
	return 0
}

// Kinds returns the number of score kinds indexed.
func (p *PeerIndex) Kinds() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.trees)
}
