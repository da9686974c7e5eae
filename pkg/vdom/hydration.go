package vdom

import (
	"fmt"
	"sync"
)

// HIDGenerator generates unique node IDs.
type HIDGenerator struct {
	counter uint32
	mu      sync.Mutex
}

// NewHIDGenerator creates a new HIDGenerator.
func NewHIDGenerator() *HIDGenerator {
	return &HIDGenerator{}
}

// Next returns the next node ID (e.g., "h1", "h2", ...).
func (g *HIDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return fmt.Sprintf("h%d", g.counter)
}

// Current returns the current counter value without incrementing.
func (g *HIDGenerator) Current() uint32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.counter
}

// AssignHIDs gives every node in the tree that has no HID a fresh one.
// Nodes that already carry an HID (for example after Diff) keep it.
func AssignHIDs(node *VNode, gen *HIDGenerator) {
	node.Walk(func(n *VNode) bool {
		if n.HID == "" {
			n.HID = gen.Next()
		}
		return true
	})
}

// CollectHIDs returns a map of HID to VNode for all nodes with HIDs.
func CollectHIDs(node *VNode) map[string]*VNode {
	out := make(map[string]*VNode)
	node.Walk(func(n *VNode) bool {
		if n.HID != "" {
			out[n.HID] = n
		}
		return true
	})
	return out
}
