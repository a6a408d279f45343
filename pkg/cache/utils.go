package cache

// GenerateKey creates a cache key with prefix and ID.
func GenerateKey(prefix string, id string) string {
	return prefix + ":" + id
}
