package contracts

import "strings"

// ProtectedPaths is the set of relative paths the update engine must never
// create, modify, or delete. A directory entry protects everything beneath it.
type ProtectedPaths struct {
	paths map[string]struct{}
}

func NewProtectedPaths(paths []string) ProtectedPaths {
	inventory := make(map[string]struct{}, len(paths))
	for _, path := range paths {
		path = strings.Trim(strings.TrimSpace(path), "/")
		if path != "" {
			inventory[path] = struct{}{}
		}
	}
	return ProtectedPaths{paths: inventory}
}

func (this ProtectedPaths) Contains(path string) bool {
	path = strings.Trim(path, "/")
	if _, found := this.paths[path]; found {
		return true
	}
	for len(path) > 0 {
		slash := strings.LastIndex(path, "/")
		if slash < 0 {
			return false
		}
		path = path[:slash]
		if _, found := this.paths[path]; found {
			return true
		}
	}
	return false
}

func (this ProtectedPaths) Len() int {
	return len(this.paths)
}
