package model

import "github.com/kdbxkit/kdbx/pkg/kdbxtypes"

// CustomDataItem is one entry of a custom-data map: a string value plus an
// optional v4.1 last-modification time.
type CustomDataItem struct {
	Value                 string
	LastModificationTime  kdbxtypes.Timestamp
	HasModificationTime   bool
}

type customDataEntry struct {
	key   string
	value CustomDataItem
}

// CustomData is an insertion-ordered key/value map attached to the
// database, groups, and entries.
type CustomData struct {
	entries []customDataEntry
	index   map[string]int
}

// NewCustomData returns an empty CustomData container.
func NewCustomData() *CustomData {
	return &CustomData{index: make(map[string]int)}
}

func (c *CustomData) Get(key string) (CustomDataItem, bool) {
	if c == nil || c.index == nil {
		return CustomDataItem{}, false
	}
	i, ok := c.index[key]
	if !ok {
		return CustomDataItem{}, false
	}
	return c.entries[i].value, true
}

func (c *CustomData) Set(key string, value CustomDataItem) {
	if c.index == nil {
		c.index = make(map[string]int)
	}
	if i, ok := c.index[key]; ok {
		c.entries[i].value = value
		return
	}
	c.index[key] = len(c.entries)
	c.entries = append(c.entries, customDataEntry{key: key, value: value})
}

func (c *CustomData) Delete(key string) {
	if c == nil || c.index == nil {
		return
	}
	i, ok := c.index[key]
	if !ok {
		return
	}
	c.entries = append(c.entries[:i], c.entries[i+1:]...)
	delete(c.index, key)
	for k, v := range c.index {
		if v > i {
			c.index[k] = v - 1
		}
	}
}

func (c *CustomData) Keys() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.key
	}
	return out
}

func (c *CustomData) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

func (c *CustomData) Clone() *CustomData {
	out := NewCustomData()
	if c == nil {
		return out
	}
	for _, e := range c.entries {
		out.Set(e.key, e.value)
	}
	return out
}
