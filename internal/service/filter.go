package service

import (
	"path/filepath"
	"strings"
)

// filterTables 保留匹配 include（为空时全部保留）且不匹配 exclude 的表，顺序不变
func filterTables(tables, include, exclude []string) []string {
	if len(include) == 0 && len(exclude) == 0 {
		return tables
	}

	selected := make([]string, 0, len(tables))
	for _, table := range tables {
		if len(include) > 0 && !matchesPattern(table, include) {
			continue
		}
		if matchesPattern(table, exclude) {
			continue
		}
		selected = append(selected, table)
	}
	return selected
}

// matchesPattern 判断 name 是否等于或通配匹配任一模式
func matchesPattern(name string, patterns []string) bool {
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == name {
			return true
		}
		if matched, err := filepath.Match(pattern, name); err == nil && matched {
			return true
		}
	}
	return false
}
