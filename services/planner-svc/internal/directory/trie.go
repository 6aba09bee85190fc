// Package directory implements the passenger name directory as a prefix
// tree. Keys are lowercased names; the terminal node of each name stores the
// canonical display form with a capitalized first letter. Children are kept
// sorted by rune, so a breadth-first walk yields names ordered shortest
// first and lexicographically within equal length.
package directory

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"transit/pkg/domain"
)

type child struct {
	r    rune
	node *node
}

type node struct {
	children []child // sorted by rune
	terminal bool
	display  string
}

func (n *node) childFor(r rune) *node {
	i := sort.Search(len(n.children), func(i int) bool { return n.children[i].r >= r })
	if i < len(n.children) && n.children[i].r == r {
		return n.children[i].node
	}
	return nil
}

func (n *node) ensureChild(r rune) *node {
	i := sort.Search(len(n.children), func(i int) bool { return n.children[i].r >= r })
	if i < len(n.children) && n.children[i].r == r {
		return n.children[i].node
	}
	c := child{r: r, node: &node{}}
	n.children = append(n.children, child{})
	copy(n.children[i+1:], n.children[i:])
	n.children[i] = c
	return c.node
}

// Trie is a passenger directory. The zero value is ready to use; callers
// that need concurrent access must synchronize externally.
type Trie struct {
	root node
	size int
}

// New creates an empty directory.
func New() *Trie {
	return &Trie{}
}

// Len returns the number of distinct names stored.
func (t *Trie) Len() int {
	return t.size
}

// Insert registers a passenger name. The lowercased form is the key, the
// stored display form capitalizes the first letter. Re-inserting the same
// name in any casing does not create a duplicate. Empty names are ignored.
func (t *Trie) Insert(name string) {
	key := domain.NormalizeName(name)
	if key == "" {
		return
	}

	cur := &t.root
	for _, r := range key {
		cur = cur.ensureChild(r)
	}
	if !cur.terminal {
		cur.terminal = true
		t.size++
	}
	cur.display = capitalize(key)
}

// PrefixSearch returns the display names of all passengers whose name starts
// with prefix, case-insensitively. An empty prefix yields an empty result.
// Names come out shortest first, lexicographically within equal length.
func (t *Trie) PrefixSearch(prefix string) []string {
	result := []string{}

	key := domain.NormalizeName(prefix)
	if key == "" {
		return result
	}

	cur := &t.root
	for _, r := range key {
		cur = cur.childFor(r)
		if cur == nil {
			return result
		}
	}

	// Breadth-first walk from the prefix node collects every finished name.
	queue := []*node{cur}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]

		if n.terminal {
			result = append(result, n.display)
		}
		for _, c := range n.children {
			queue = append(queue, c.node)
		}
	}

	return result
}

func capitalize(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(name[size:])
}
