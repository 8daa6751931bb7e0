package ast

import (
	"strings"
	"sync"
)

// Cache keeps the last parse of every document URI. An entry is reused while
// the version, the text, the custom tags and the root-object flag are unchanged.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	version int32
	text    string
	tags    string
	addRoot bool
	file    *File
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: map[string]cacheEntry{}}
}

// Get returns the parsed file for uri, parsing text when the cached entry is
// stale.
func (c *Cache) Get(uri string, version int32, text string, opts Options) *File {
	tags := strings.Join(opts.CustomTags, "\x00")
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[uri]; ok && e.version == version && e.text == text && e.tags == tags && e.addRoot == opts.AddRootObject {
		return e.file
	}
	f := Parse(text, opts)
	c.entries[uri] = cacheEntry{version: version, text: text, tags: tags, addRoot: opts.AddRootObject, file: f}
	return f
}

// Delete drops the entry for uri.
func (c *Cache) Delete(uri string) {
	c.mu.Lock()
	delete(c.entries, uri)
	c.mu.Unlock()
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = map[string]cacheEntry{}
	c.mu.Unlock()
}
