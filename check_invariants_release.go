//go:build !debug
// +build !debug

package dualcache

func (c *Cache[K, V]) checkInvariants() {}
