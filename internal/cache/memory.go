package cache

import (
	"container/list"
	"context"
	"sync"

	"github.com/roach88/attune/internal/domain"
)

// DefaultMemoryEntries bounds a memory cache created with size <= 0.
const DefaultMemoryEntries = 1024

// Memory is a bounded LRU cache in process memory.
type Memory struct {
	mu      sync.Mutex
	max     int
	order   *list.List
	entries map[string]*list.Element
}

type memoryEntry struct {
	key     string
	reading domain.DailyEnergyReading
}

// NewMemory creates an LRU cache holding at most size readings.
func NewMemory(size int) *Memory {
	if size <= 0 {
		size = DefaultMemoryEntries
	}
	return &Memory{max: size, order: list.New(), entries: make(map[string]*list.Element, size)}
}

func (m *Memory) Get(_ context.Context, key string) (domain.DailyEnergyReading, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	el, ok := m.entries[key]
	if !ok {
		return domain.DailyEnergyReading{}, false, nil
	}
	m.order.MoveToFront(el)
	return el.Value.(*memoryEntry).reading, true, nil
}

func (m *Memory) Set(_ context.Context, key string, r domain.DailyEnergyReading) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if el, ok := m.entries[key]; ok {
		el.Value.(*memoryEntry).reading = r
		m.order.MoveToFront(el)
		return nil
	}
	m.entries[key] = m.order.PushFront(&memoryEntry{key: key, reading: r})
	for m.order.Len() > m.max {
		oldest := m.order.Back()
		m.order.Remove(oldest)
		delete(m.entries, oldest.Value.(*memoryEntry).key)
	}
	return nil
}

// Len reports the number of cached readings.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order.Len()
}

func (m *Memory) Close() error { return nil }
