// Package dsu implements a disjoint-set (union-find) structure with
// union by size and iterative path compression.
package dsu

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownElement is returned when an element was never added.
	ErrUnknownElement = errors.New("dsu: unknown element")
	// ErrDuplicateElement is returned when an element is added twice.
	ErrDuplicateElement = errors.New("dsu: duplicate element")
)

// DisjointSet tracks a partition of elements into disjoint groups.
// The zero value is not usable; construct with New.
type DisjointSet[T comparable] struct {
	parent map[T]T
	size   map[T]int
	count  int
}

// New returns an empty DisjointSet.
func New[T comparable]() *DisjointSet[T] {
	return &DisjointSet[T]{
		parent: make(map[T]T),
		size:   make(map[T]int),
	}
}

// Add registers x as a new singleton group.
func (d *DisjointSet[T]) Add(x T) error {
	if _, ok := d.parent[x]; ok {
		return fmt.Errorf("%w: %v", ErrDuplicateElement, x)
	}
	d.parent[x] = x
	d.size[x] = 1
	d.count++
	return nil
}

// Contains reports whether x has been added.
func (d *DisjointSet[T]) Contains(x T) bool {
	_, ok := d.parent[x]
	return ok
}

// Find returns the representative of the group containing x.
func (d *DisjointSet[T]) Find(x T) (T, error) {
	var zero T
	root, ok := d.parent[x]
	if !ok {
		return zero, fmt.Errorf("%w: %v", ErrUnknownElement, x)
	}
	for root != d.parent[root] {
		root = d.parent[root]
	}

	// Second pass: point every node on the walk directly at the root.
	for x != root {
		next := d.parent[x]
		d.parent[x] = root
		x = next
	}
	return root, nil
}

// Union merges the groups containing a and b. The root of the larger
// group absorbs the smaller; on a tie b's root attaches under a's.
func (d *DisjointSet[T]) Union(a, b T) error {
	ra, err := d.Find(a)
	if err != nil {
		return err
	}
	rb, err := d.Find(b)
	if err != nil {
		return err
	}
	if ra == rb {
		return nil
	}

	if d.size[ra] < d.size[rb] {
		ra, rb = rb, ra
	}
	d.parent[rb] = ra
	d.size[ra] += d.size[rb]
	delete(d.size, rb)
	d.count--
	return nil
}

// Connected reports whether a and b belong to the same group.
func (d *DisjointSet[T]) Connected(a, b T) (bool, error) {
	ra, err := d.Find(a)
	if err != nil {
		return false, err
	}
	rb, err := d.Find(b)
	if err != nil {
		return false, err
	}
	return ra == rb, nil
}

// GroupSize returns the size of the group containing x.
func (d *DisjointSet[T]) GroupSize(x T) (int, error) {
	root, err := d.Find(x)
	if err != nil {
		return 0, err
	}
	return d.size[root], nil
}

// Len returns the number of elements added.
func (d *DisjointSet[T]) Len() int {
	return len(d.parent)
}

// Groups returns the number of disjoint groups.
func (d *DisjointSet[T]) Groups() int {
	return d.count
}
