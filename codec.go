package easel

import (
	"errors"
	"fmt"

	"github.com/easelhq/easel/style"
)

var (
	// ErrUnknownType marks an exchange node whose type tag the engine does
	// not recognize.
	ErrUnknownType = errors.New("unknown element type")

	// ErrInvalidNode marks a structurally unusable exchange node.
	ErrInvalidNode = errors.New("invalid exchange node")
)

// ExchangeStyles is the style bag of an exchange node. Alongside styleable
// properties it carries the geometry that lives on the element record, so a
// node is self-contained.
type ExchangeStyles struct {
	style.Style
	Width  *float64 `json:"width,omitempty"`
	Height *float64 `json:"height,omitempty"`
	X      *float64 `json:"x,omitempty"`
	Y      *float64 `json:"y,omitempty"`
}

// ExchangeNode is the portable, id-less element description used to move
// designs in and out of the engine. Ids are assigned at import time, never
// carried in the wire form.
type ExchangeNode struct {
	Type     ElementType     `json:"type"`
	Name     string          `json:"name,omitempty"`
	Content  string          `json:"content,omitempty"`
	Styles   *ExchangeStyles `json:"styles,omitempty"`
	Children []*ExchangeNode `json:"children,omitempty"`
}

// ValidateExchange walks the whole node tree and reports the first violation
// with its path, e.g. "root.children[1].children[0]". Import is all or
// nothing: one bad node rejects the entire tree.
func ValidateExchange(node *ExchangeNode) error {
	return validateExchangeNode(node, "root")
}

func validateExchangeNode(n *ExchangeNode, path string) error {
	if n == nil {
		return fmt.Errorf("%s: %w: nil node", path, ErrInvalidNode)
	}
	if !n.Type.Valid() {
		return fmt.Errorf("%s: %w %q", path, ErrUnknownType, n.Type)
	}
	if n.Type == TypePage {
		return fmt.Errorf("%s: %w: pages cannot be imported as elements", path, ErrInvalidNode)
	}
	if len(n.Children) > 0 && !n.Type.IsContainer() {
		return fmt.Errorf("%s: %w: type %q cannot have children", path, ErrInvalidNode, n.Type)
	}
	for i, c := range n.Children {
		if err := validateExchangeNode(c, fmt.Sprintf("%s.children[%d]", path, i)); err != nil {
			return err
		}
	}
	return nil
}

// ParseExchange decodes and validates an exchange tree from JSON.
func ParseExchange(data []byte) (*ExchangeNode, error) {
	var n ExchangeNode
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("parse exchange node: %w", err)
	}
	if err := ValidateExchange(&n); err != nil {
		return nil, err
	}
	return &n, nil
}

// Encode renders the node tree as indented JSON.
func (n *ExchangeNode) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(n, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode exchange node: %w", err)
	}
	return data, nil
}

// ImportNode validates the tree and, only when every node passes,
// materializes it with fresh ids under parentID. On any validation error
// the store is untouched.
func (s *Store) ImportNode(node *ExchangeNode, parentID string) (*Element, error) {
	if err := ValidateExchange(node); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	parent, ok := s.elements[parentID]
	if !ok {
		return nil, fmt.Errorf("%w: unknown parent %q", ErrInvalidNode, parentID)
	}
	if !parent.Type.IsContainer() {
		return nil, fmt.Errorf("%w: parent %q cannot hold children", ErrInvalidNode, parentID)
	}

	el := s.materializeLocked(node, parent.ID)
	parent.Children = append(parent.Children, el.ID)

	s.publish(Change{Kind: ChangeAdd, IDs: []string{el.ID}, Label: "Import element"})
	return el, nil
}

// materializeLocked turns one validated node into a registered element, then
// recurses into its children. Callers hold s.mu.
func (s *Store) materializeLocked(n *ExchangeNode, parentID string) *Element {
	el := NewElement(n.Type)
	el.ParentID = parentID
	el.styleRev = s.nextRev()
	if n.Name != "" {
		el.Name = n.Name
	}
	if n.Content != "" {
		if n.Type.IsMedia() {
			el.Src = n.Content
		} else {
			el.Content = n.Content
		}
	}
	if n.Styles != nil {
		merged := el.Styles.Clone()
		style.Merge(merged, &n.Styles.Style)
		el.Styles = merged
		if n.Styles.Width != nil {
			el.Size.Width = *n.Styles.Width
		}
		if n.Styles.Height != nil {
			el.Size.Height = *n.Styles.Height
		}
		if n.Styles.X != nil {
			el.Position.X = *n.Styles.X
		}
		if n.Styles.Y != nil {
			el.Position.Y = *n.Styles.Y
		}
	}
	s.elements[el.ID] = el
	for _, c := range n.Children {
		child := s.materializeLocked(c, el.ID)
		el.Children = append(el.Children, child.ID)
	}
	return el
}

// ExportNode captures the subtree rooted at id as a portable exchange tree.
// Geometry is written into the styles bag so the node reproduces its layout
// when imported elsewhere.
func (s *Store) ExportNode(id string) (*ExchangeNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	el, ok := s.elements[id]
	if !ok {
		return nil, fmt.Errorf("%w: unknown element %q", ErrInvalidNode, id)
	}
	if el.Type == TypePage {
		return nil, fmt.Errorf("%w: pages cannot be exported as elements", ErrInvalidNode)
	}
	return s.exportNodeLocked(el), nil
}

func (s *Store) exportNodeLocked(el *Element) *ExchangeNode {
	n := &ExchangeNode{
		Type: el.Type,
		Name: el.Name,
	}
	if el.Type.IsMedia() {
		n.Content = el.Src
	} else {
		n.Content = el.Content
	}
	xs := &ExchangeStyles{
		Width:  style.Ptr(el.Size.Width),
		Height: style.Ptr(el.Size.Height),
		X:      style.Ptr(el.Position.X),
		Y:      style.Ptr(el.Position.Y),
	}
	if el.Styles != nil {
		xs.Style = *el.Styles
	}
	n.Styles = xs
	for _, cid := range el.Children {
		child, ok := s.elements[cid]
		if !ok {
			continue
		}
		n.Children = append(n.Children, s.exportNodeLocked(child))
	}
	return n
}
