// Package dom is the slice of the host page the tooltip writes to.
package dom

import (
	"errors"
	"regexp"
	"slices"
	"strings"
	"sync"
)

// ErrNoID is returned for markup whose root element carries no id.
var ErrNoID = errors.New("markup root has no id")

// Document is the host page.
type Document interface {
	// Has reports whether an element with id exists.
	Has(id string) bool
	// Replace swaps the element with id for markup.
	Replace(id, markup string) error
	// Append adds markup at the end of the body.
	Append(markup string) error
	// RemoveClass removes class from the element with id. It reports false
	// when there is no such element.
	RemoveClass(id, class string) bool
}

// Upsert replaces the element with id, or appends markup when it is missing.
func Upsert(doc Document, id, markup string) error {
	if doc.Has(id) {
		return doc.Replace(id, markup)
	}
	return doc.Append(markup)
}

var (
	rootTag   = regexp.MustCompile(`^\s*<[a-zA-Z][^>]*>`)
	idAttr    = regexp.MustCompile(`\bid="([^"]*)"`)
	classAttr = regexp.MustCompile(`\bclass="([^"]*)"`)
)

// RootID returns the id attribute of the markup's first element.
func RootID(markup string) (string, error) {
	tag := rootTag.FindString(markup)
	if m := idAttr.FindStringSubmatch(tag); m != nil {
		return m[1], nil
	}
	return "", ErrNoID
}

// Memory is an in-process Document keyed by root element id.
type Memory struct {
	mu       sync.RWMutex
	order    []string
	elements map[string]string
}

// NewMemory returns an empty document.
func NewMemory() *Memory {
	return &Memory{elements: make(map[string]string)}
}

// Has implements Document.
func (m *Memory) Has(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.elements[id]
	return ok
}

// Replace implements Document.
func (m *Memory) Replace(id, markup string) error {
	newID, err := RootID(markup)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i := slices.Index(m.order, id)
	if i < 0 {
		return errors.New("no element with id " + id)
	}
	delete(m.elements, id)
	m.order[i] = newID
	m.elements[newID] = markup
	return nil
}

// Append implements Document.
func (m *Memory) Append(markup string) error {
	id, err := RootID(markup)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.elements[id]; !ok {
		m.order = append(m.order, id)
	}
	m.elements[id] = markup
	return nil
}

// RemoveClass implements Document by rewriting the root element's class attribute.
func (m *Memory) RemoveClass(id, class string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	markup, ok := m.elements[id]
	if !ok {
		return false
	}
	tag := rootTag.FindString(markup)
	newTag := classAttr.ReplaceAllStringFunc(tag, func(attr string) string {
		classes := strings.Fields(classAttr.FindStringSubmatch(attr)[1])
		classes = slices.DeleteFunc(classes, func(c string) bool { return c == class })
		return `class="` + strings.Join(classes, " ") + `"`
	})
	m.elements[id] = newTag + markup[len(tag):]
	return true
}

// Element returns the markup of the element with id.
func (m *Memory) Element(id string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	markup, ok := m.elements[id]
	return markup, ok
}

// HasClass reports whether the root of element id carries class.
func (m *Memory) HasClass(id, class string) bool {
	markup, ok := m.Element(id)
	if !ok {
		return false
	}
	attr := classAttr.FindStringSubmatch(rootTag.FindString(markup))
	return attr != nil && slices.Contains(strings.Fields(attr[1]), class)
}

// Body returns all elements in document order.
func (m *Memory) Body() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var b strings.Builder
	for _, id := range m.order {
		b.WriteString(m.elements[id])
		b.WriteByte('\n')
	}
	return b.String()
}
