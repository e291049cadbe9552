package imodvis

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// FilterByNContours removes every object whose number of
// contours does not satisfy the comparison op against n.
//
// Supported operators are >, >=, <, <=, == and !=.
func (m *Model) FilterByNContours(op string, n int) error {
	cmp, err := comparison(op)
	if err != nil {
		return errors.Wrap(err, "filter by contours")
	}
	var kept []*Object
	for _, obj := range m.Objects {
		if cmp(len(obj.Contours), n) {
			kept = append(kept, obj)
		}
	}
	if len(kept) != len(m.Objects) {
		m.Objects = kept
		m.dropViews()
	}
	return nil
}

func comparison(op string) (func(a, b int) bool, error) {
	switch op {
	case ">":
		return func(a, b int) bool { return a > b }, nil
	case ">=":
		return func(a, b int) bool { return a >= b }, nil
	case "<":
		return func(a, b int) bool { return a < b }, nil
	case "<=":
		return func(a, b int) bool { return a <= b }, nil
	case "==":
		return func(a, b int) bool { return a == b }, nil
	case "!=":
		return func(a, b int) bool { return a != b }, nil
	}
	return nil, errors.Errorf("unknown operator %q", op)
}

// MoveObjects merges the contours and meshes of the objects
// listed in spec into the object dest, and then removes the
// merged objects from the model.
//
// Object numbers are 1-based, and spec is a comma-separated
// list of numbers and ranges, such as "2-5,7". A range whose
// end precedes its start is empty.
func (m *Model) MoveObjects(dest int, spec string) error {
	if dest < 1 || dest > len(m.Objects) {
		return errors.Errorf("move objects: destination %d out of range", dest)
	}
	sources, err := ParseRange(spec)
	if err != nil {
		return errors.Wrap(err, "move objects")
	}
	if len(sources) == 0 {
		return nil
	}
	remove := map[int]bool{}
	for _, src := range sources {
		if src < 1 || src > len(m.Objects) {
			return errors.Errorf("move objects: object %d out of range", src)
		}
		if src == dest {
			return errors.Errorf("move objects: object %d is the destination", src)
		}
		remove[src] = true
	}

	target := m.Objects[dest-1]
	for _, src := range sources {
		obj := m.Objects[src-1]
		target.Contours = append(target.Contours, obj.Contours...)
		target.Meshes = append(target.Meshes, obj.Meshes...)
	}

	var kept []*Object
	for i, obj := range m.Objects {
		if !remove[i+1] {
			kept = append(kept, obj)
		}
	}
	m.Objects = kept
	m.dropViews()
	return nil
}

// ParseRange parses a list of 1-based indices such as
// "1,3-5". Duplicates are removed and the original order of
// first appearance is kept.
func ParseRange(spec string) ([]int, error) {
	var res []int
	seen := map[int]bool{}
	add := func(i int) {
		if !seen[i] {
			seen[i] = true
			res = append(res, i)
		}
	}
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if start, end, ok := strings.Cut(part, "-"); ok {
			s, err := strconv.Atoi(strings.TrimSpace(start))
			if err != nil {
				return nil, errors.Errorf("invalid range %q", part)
			}
			e, err := strconv.Atoi(strings.TrimSpace(end))
			if err != nil {
				return nil, errors.Errorf("invalid range %q", part)
			}
			for i := s; i <= e; i++ {
				add(i)
			}
		} else {
			i, err := strconv.Atoi(part)
			if err != nil {
				return nil, errors.Errorf("invalid index %q", part)
			}
			add(i)
		}
	}
	return res, nil
}
