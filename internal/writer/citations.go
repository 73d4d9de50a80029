package writer

import (
	"regexp"
	"sort"
	"strconv"
)

var marker = regexp.MustCompile(`\[(\d+)\]`)

// citedIDs lists the distinct citation ids referenced in text, ascending.
func citedIDs(text string) []int {
	seen := make(map[int]struct{})
	var ids []int
	for _, m := range marker.FindAllStringSubmatch(text, -1) {
		id, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
