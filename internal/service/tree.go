package service

// buildTree nests parent-pointer rows. attach is called once per child, in
// input order, so siblings keep the order of rows. Rows whose parent is not
// in rows come back as roots, also in input order.
func buildTree[T any](rows []T, id func(T) string, parent func(T) *string, attach func(parent, child T)) []T {
	byID := make(map[string]T, len(rows))
	for _, r := range rows {
		byID[id(r)] = r
	}
	roots := make([]T, 0)
	for _, r := range rows {
		pid := parent(r)
		if pid == nil {
			roots = append(roots, r)
			continue
		}
		p, ok := byID[*pid]
		if !ok || *pid == id(r) {
			roots = append(roots, r)
			continue
		}
		attach(p, r)
	}
	return roots
}
