package store

import "strings"

// SplitPath splits a node path into its parent path and its own name.
// SplitPath("/oplock/backup.0000000001") returns ("/oplock", "backup.0000000001").
// The root path "/" is its own parent.
func SplitPath(path string) (parent, name string) {
	trimmed := strings.TrimSuffix(path, "/")
	if trimmed == "" {
		return "/", ""
	}
	idx := strings.LastIndex(trimmed, "/")
	if idx <= 0 {
		return "/", strings.TrimPrefix(trimmed, "/")
	}
	return trimmed[:idx], trimmed[idx+1:]
}

// JoinPath joins a parent path and a child name into a full node path.
func JoinPath(parent, name string) string {
	if parent == "" || parent == "/" {
		return "/" + name
	}
	return strings.TrimSuffix(parent, "/") + "/" + name
}
