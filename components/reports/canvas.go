package reports

import (
	"fmt"
	"sync"
)

// CanvasOptions configures a Canvas.
type CanvasOptions struct {
	IDs      IDGenerator
	CellSize int
}

// Canvas holds the authoritative working state of one report template and the
// currently selected element. Reads return deep copies.
type Canvas struct {
	mu       sync.RWMutex
	tpl      Template
	index    map[string]int
	selected string
	ids      IDGenerator
	cellSize int
}

// NewCanvas builds a canvas over a deep copy of tpl.
func NewCanvas(tpl Template, opts CanvasOptions) *Canvas {
	c := &Canvas{
		ids:      normalizeIDGenerator(opts.IDs),
		cellSize: opts.CellSize,
	}
	if c.cellSize <= 0 {
		c.cellSize = CellSize
	}
	c.replace(tpl)
	return c
}

// AddElement creates an element from a palette entry dropped at a pixel coordinate.
// The element lands on the cell under the drop point and is painted last.
func (c *Canvas) AddElement(entry PaletteEntry, drop PixelPoint) (Element, error) {
	if !entry.Kind.Valid() {
		return Element{}, fmt.Errorf("%w: %q", ErrUnknownKind, entry.Kind)
	}
	if err := ValidDrop(drop); err != nil {
		return Element{}, err
	}
	size := entry.defaultSize()
	el := Element{
		Kind:     entry.Kind,
		Title:    entry.defaultTitle(),
		Config:   cloneConfig(entry.DefaultConfig),
		Position: CellFromPixel(drop, c.cellSize),
		Size:     size,
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	id, err := c.freshIDLocked()
	if err != nil {
		return Element{}, err
	}
	el.ID = id
	c.appendLocked(el)
	return cloneElement(el), nil
}

// Select points the selection at id. An empty id clears the selection.
func (c *Canvas) Select(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id == "" {
		c.selected = ""
		return nil
	}
	if _, ok := c.index[id]; !ok {
		return fmt.Errorf("%w: %s", ErrElementNotFound, id)
	}
	c.selected = id
	return nil
}

// ClearSelection drops the selection pointer.
func (c *Canvas) ClearSelection() {
	c.mu.Lock()
	c.selected = ""
	c.mu.Unlock()
}

// Selected returns the selected element, if any.
func (c *Canvas) Selected() (Element, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.selected == "" {
		return Element{}, false
	}
	idx, ok := c.index[c.selected]
	if !ok {
		return Element{}, false
	}
	return cloneElement(c.tpl.Elements[idx]), true
}

// SelectedID returns the id of the selected element or "".
func (c *Canvas) SelectedID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.selected
}

// UpdateElement replaces the patched fields of an element. Last write wins.
func (c *Canvas) UpdateElement(id string, patch ElementPatch) (Element, error) {
	if patch.Position != nil {
		if err := patch.Position.Validate(); err != nil {
			return Element{}, err
		}
	}
	if patch.Size != nil {
		if err := patch.Size.Validate(); err != nil {
			return Element{}, err
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	idx, ok := c.index[id]
	if !ok {
		return Element{}, fmt.Errorf("%w: %s", ErrElementNotFound, id)
	}
	el := &c.tpl.Elements[idx]
	if patch.Title != nil {
		el.Title = *patch.Title
	}
	if patch.Config != nil {
		el.Config = cloneConfig(patch.Config)
	}
	if patch.Position != nil {
		el.Position = *patch.Position
	}
	if patch.Size != nil {
		el.Size = *patch.Size
	}
	return cloneElement(*el), nil
}

// DeleteElement removes an element and clears the selection when it pointed at it.
func (c *Canvas) DeleteElement(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx, ok := c.index[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrElementNotFound, id)
	}
	c.tpl.Elements = append(c.tpl.Elements[:idx], c.tpl.Elements[idx+1:]...)
	c.reindexLocked()
	if c.selected == id {
		c.selected = ""
	}
	return nil
}

// DuplicateElement copies an element one cell down and to the right under a new id.
func (c *Canvas) DuplicateElement(id string) (Element, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx, ok := c.index[id]
	if !ok {
		return Element{}, fmt.Errorf("%w: %s", ErrElementNotFound, id)
	}
	newID, err := c.freshIDLocked()
	if err != nil {
		return Element{}, err
	}
	dup := cloneElement(c.tpl.Elements[idx])
	dup.ID = newID
	dup.Position = dup.Position.Offset(1, 1)
	c.appendLocked(dup)
	return cloneElement(dup), nil
}

// LoadTemplate replaces the working template with a deep copy of tpl and clears the selection.
// The working template is left untouched when tpl fails ValidateTemplate.
func (c *Canvas) LoadTemplate(tpl Template) error {
	if err := ValidateTemplate(tpl); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replace(tpl)
	c.selected = ""
	return nil
}

// Template returns a deep copy of the working template.
func (c *Canvas) Template() Template {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneTemplate(c.tpl)
}

// Elements returns a deep copy of the elements in paint order.
func (c *Canvas) Elements() []Element {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneElements(c.tpl.Elements)
}

// Element returns a copy of the element with the given id.
func (c *Canvas) Element(id string) (Element, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	idx, ok := c.index[id]
	if !ok {
		return Element{}, false
	}
	return cloneElement(c.tpl.Elements[idx]), true
}

// Len returns the number of elements on the canvas.
func (c *Canvas) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tpl.Elements)
}

func (c *Canvas) replace(tpl Template) {
	c.tpl = cloneTemplate(tpl)
	if c.tpl.Elements == nil {
		c.tpl.Elements = []Element{}
	}
	c.reindexLocked()
}

func (c *Canvas) appendLocked(el Element) {
	c.tpl.Elements = append(c.tpl.Elements, el)
	c.index[el.ID] = len(c.tpl.Elements) - 1
}

func (c *Canvas) reindexLocked() {
	c.index = make(map[string]int, len(c.tpl.Elements))
	for i, el := range c.tpl.Elements {
		c.index[el.ID] = i
	}
}

// maxIDAttempts bounds how many ids freshIDLocked draws before giving up.
const maxIDAttempts = 16

// freshIDLocked draws ids until one is unused so ids stay unique per template.
func (c *Canvas) freshIDLocked() (string, error) {
	var last string
	for range maxIDAttempts {
		id := c.ids.NewID()
		if id == "" {
			continue
		}
		if _, taken := c.index[id]; !taken {
			return id, nil
		}
		last = id
	}
	if last == "" {
		return "", fmt.Errorf("%w: id generator returned no id after %d attempts", errMissingElementID, maxIDAttempts)
	}
	return "", fmt.Errorf("%w: %s still taken after %d attempts", errDuplicateElementID, last, maxIDAttempts)
}
