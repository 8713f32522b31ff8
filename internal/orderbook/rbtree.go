package orderbook

// A red-black tree keeps each side's active price levels in price order so
// the best bid/ask is an O(1) lookup and adding or removing a level is
// O(log n) rather than the O(n) shift a sorted vector would need — the
// substitution spec's Design Notes explicitly sanction in place of an
// array kept sorted by shifting.
//
// Nodes store a levelIdx, a slot into the book's own level table, rather
// than a pointer to the level: the table — not the tree — owns level
// storage, so deleting a tree node never touches level memory.

type color bool

const (
	red   color = true
	black color = false
)

type rbNode struct {
	price  int64
	level  int
	color  color
	left   *rbNode
	right  *rbNode
	parent *rbNode
}

// RBTree is a red-black tree keyed by price, yielding level table indices.
type RBTree struct {
	root       *rbNode
	size       int
	minNode    *rbNode
	maxNode    *rbNode
	descending bool // true for bids: Min() returns the highest price
}

func NewRBTree(descending bool) *RBTree {
	return &RBTree{descending: descending}
}

func (t *RBTree) Size() int    { return t.size }
func (t *RBTree) IsEmpty() bool { return t.size == 0 }

// Min returns the level index of the best price for this side, or -1 if
// the side is empty.
func (t *RBTree) Min() int {
	if t.descending {
		if t.maxNode == nil {
			return -1
		}
		return t.maxNode.level
	}
	if t.minNode == nil {
		return -1
	}
	return t.minNode.level
}

func (t *RBTree) MinPrice() (int64, bool) {
	if t.descending {
		if t.maxNode == nil {
			return 0, false
		}
		return t.maxNode.price, true
	}
	if t.minNode == nil {
		return 0, false
	}
	return t.minNode.price, true
}

// Get retrieves the level index at the given price, or -1 if absent.
func (t *RBTree) Get(price int64) int {
	node := t.search(price)
	if node == nil {
		return -1
	}
	return node.level
}

// Insert adds a level index at price.
func (t *RBTree) Insert(price int64, levelIdx int) {
	newNode := &rbNode{price: price, level: levelIdx, color: red}

	if t.root == nil {
		newNode.color = black
		t.root = newNode
		t.minNode = newNode
		t.maxNode = newNode
		t.size = 1
		return
	}

	var parent *rbNode
	current := t.root
	for current != nil {
		parent = current
		if price < current.price {
			current = current.left
		} else if price > current.price {
			current = current.right
		} else {
			current.level = levelIdx
			return
		}
	}

	newNode.parent = parent
	if price < parent.price {
		parent.left = newNode
	} else {
		parent.right = newNode
	}
	t.size++

	if t.minNode == nil || price < t.minNode.price {
		t.minNode = newNode
	}
	if t.maxNode == nil || price > t.maxNode.price {
		t.maxNode = newNode
	}

	t.insertFixup(newNode)
}

// Delete removes the level at price.
func (t *RBTree) Delete(price int64) {
	node := t.search(price)
	if node == nil {
		return
	}
	t.size--

	if node == t.minNode {
		t.minNode = t.successor(node)
	}
	if node == t.maxNode {
		t.maxNode = t.predecessor(node)
	}

	t.deleteNode(node)
}

// ForEach visits level indices in the side's priority order (best first).
func (t *RBTree) ForEach(fn func(levelIdx int) bool) {
	if t.descending {
		t.reverseInOrder(t.root, fn)
	} else {
		t.inOrder(t.root, fn)
	}
}

func (t *RBTree) search(price int64) *rbNode {
	current := t.root
	for current != nil {
		if price < current.price {
			current = current.left
		} else if price > current.price {
			current = current.right
		} else {
			return current
		}
	}
	return nil
}

func (t *RBTree) inOrder(node *rbNode, fn func(int) bool) bool {
	if node == nil {
		return true
	}
	if !t.inOrder(node.left, fn) {
		return false
	}
	if !fn(node.level) {
		return false
	}
	return t.inOrder(node.right, fn)
}

func (t *RBTree) reverseInOrder(node *rbNode, fn func(int) bool) bool {
	if node == nil {
		return true
	}
	if !t.reverseInOrder(node.right, fn) {
		return false
	}
	if !fn(node.level) {
		return false
	}
	return t.reverseInOrder(node.left, fn)
}

func (t *RBTree) successor(node *rbNode) *rbNode {
	if node.right != nil {
		current := node.right
		for current.left != nil {
			current = current.left
		}
		return current
	}
	parent := node.parent
	for parent != nil && node == parent.right {
		node = parent
		parent = parent.parent
	}
	return parent
}

func (t *RBTree) predecessor(node *rbNode) *rbNode {
	if node.left != nil {
		current := node.left
		for current.right != nil {
			current = current.right
		}
		return current
	}
	parent := node.parent
	for parent != nil && node == parent.left {
		node = parent
		parent = parent.parent
	}
	return parent
}

func (t *RBTree) rotateLeft(x *rbNode) {
	y := x.right
	x.right = y.left
	if y.left != nil {
		y.left.parent = x
	}
	y.parent = x.parent
	if x.parent == nil {
		t.root = y
	} else if x == x.parent.left {
		x.parent.left = y
	} else {
		x.parent.right = y
	}
	y.left = x
	x.parent = y
}

func (t *RBTree) rotateRight(x *rbNode) {
	y := x.left
	x.left = y.right
	if y.right != nil {
		y.right.parent = x
	}
	y.parent = x.parent
	if x.parent == nil {
		t.root = y
	} else if x == x.parent.right {
		x.parent.right = y
	} else {
		x.parent.left = y
	}
	y.right = x
	x.parent = y
}

func (t *RBTree) insertFixup(z *rbNode) {
	for z.parent != nil && z.parent.color == red {
		if z.parent == z.parent.parent.left {
			y := z.parent.parent.right
			if y != nil && y.color == red {
				z.parent.color = black
				y.color = black
				z.parent.parent.color = red
				z = z.parent.parent
			} else {
				if z == z.parent.right {
					z = z.parent
					t.rotateLeft(z)
				}
				z.parent.color = black
				z.parent.parent.color = red
				t.rotateRight(z.parent.parent)
			}
		} else {
			y := z.parent.parent.left
			if y != nil && y.color == red {
				z.parent.color = black
				y.color = black
				z.parent.parent.color = red
				z = z.parent.parent
			} else {
				if z == z.parent.left {
					z = z.parent
					t.rotateRight(z)
				}
				z.parent.color = black
				z.parent.parent.color = red
				t.rotateLeft(z.parent.parent)
			}
		}
	}
	t.root.color = black
}

func (t *RBTree) transplant(u, v *rbNode) {
	if u.parent == nil {
		t.root = v
	} else if u == u.parent.left {
		u.parent.left = v
	} else {
		u.parent.right = v
	}
	if v != nil {
		v.parent = u.parent
	}
}

func (t *RBTree) deleteNode(z *rbNode) {
	var x, xParent *rbNode
	y := z
	yOriginalColor := y.color

	if z.left == nil {
		x = z.right
		xParent = z.parent
		t.transplant(z, z.right)
	} else if z.right == nil {
		x = z.left
		xParent = z.parent
		t.transplant(z, z.left)
	} else {
		y = z.right
		for y.left != nil {
			y = y.left
		}
		yOriginalColor = y.color
		x = y.right
		if y.parent == z {
			xParent = y
		} else {
			xParent = y.parent
			t.transplant(y, y.right)
			y.right = z.right
			y.right.parent = y
		}
		t.transplant(z, y)
		y.left = z.left
		y.left.parent = y
		y.color = z.color
	}

	if yOriginalColor == black {
		t.deleteFixup(x, xParent)
	}
}

func (t *RBTree) deleteFixup(x *rbNode, xParent *rbNode) {
	for x != t.root && (x == nil || x.color == black) {
		if x == xParent.left {
			w := xParent.right
			if w != nil && w.color == red {
				w.color = black
				xParent.color = red
				t.rotateLeft(xParent)
				w = xParent.right
			}
			if w == nil || ((w.left == nil || w.left.color == black) && (w.right == nil || w.right.color == black)) {
				if w != nil {
					w.color = red
				}
				x = xParent
				xParent = x.parent
			} else {
				if w.right == nil || w.right.color == black {
					if w.left != nil {
						w.left.color = black
					}
					w.color = red
					t.rotateRight(w)
					w = xParent.right
				}
				w.color = xParent.color
				xParent.color = black
				if w.right != nil {
					w.right.color = black
				}
				t.rotateLeft(xParent)
				x = t.root
			}
		} else {
			w := xParent.left
			if w != nil && w.color == red {
				w.color = black
				xParent.color = red
				t.rotateRight(xParent)
				w = xParent.left
			}
			if w == nil || ((w.right == nil || w.right.color == black) && (w.left == nil || w.left.color == black)) {
				if w != nil {
					w.color = red
				}
				x = xParent
				xParent = x.parent
			} else {
				if w.left == nil || w.left.color == black {
					if w.right != nil {
						w.right.color = black
					}
					w.color = red
					t.rotateLeft(w)
					w = xParent.left
				}
				w.color = xParent.color
				xParent.color = black
				if w.left != nil {
					w.left.color = black
				}
				t.rotateRight(xParent)
				x = t.root
			}
		}
	}
	if x != nil {
		x.color = black
	}
}
