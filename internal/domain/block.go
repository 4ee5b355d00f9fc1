package domain

import "time"

// Reserved prop keys consumed by the style pipeline instead of the component.
const (
	PropStyles             = "_styles"
	PropMotion             = "_motion"
	PropBackgroundGradient = "_backgroundGradient"
)

// Props is the open, component-specific configuration bag of a block.
type Props map[string]any

// Clone returns a deep copy of p. Nested maps and slices decoded from JSON are
// copied so a clone can be edited without touching the source.
func (p Props) Clone() Props {
	if p == nil {
		return nil
	}
	out := make(Props, len(p))
	for k, v := range p {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, vv := range t {
			m[k] = cloneValue(vv)
		}
		return m
	case Props:
		return t.Clone()
	case []any:
		s := make([]any, len(t))
		for i, vv := range t {
			s[i] = cloneValue(vv)
		}
		return s
	default:
		return v
	}
}

// Block is one node of a page's content tree.
type Block struct {
	ID            string    `json:"id"`
	PageID        string    `json:"pageId"`
	ComponentName string    `json:"componentName"`
	ParentBlockID *string   `json:"parentBlockId"` // nil for root blocks
	SortOrder     int       `json:"sortOrder"`
	IsVisible     bool      `json:"isVisible"`
	Props         Props     `json:"props"`
	CustomCSS     string    `json:"customCss"`
	CustomClasses string    `json:"customClasses"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ParentID returns the parent id or "" for root blocks.
func (b *Block) ParentID() string {
	if b.ParentBlockID == nil {
		return ""
	}
	return *b.ParentBlockID
}

// IsRoot reports whether b sits at the top level of its page.
func (b *Block) IsRoot() bool {
	return b.ParentBlockID == nil
}

// Clone returns a deep copy of b.
func (b Block) Clone() Block {
	out := b
	if b.ParentBlockID != nil {
		p := *b.ParentBlockID
		out.ParentBlockID = &p
	}
	out.Props = b.Props.Clone()
	return out
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

type BlockStore interface {
	GetBlock(id string) (*Block, error)
	ListBlocks(pageID string) ([]Block, error)
	ApplyChanges(pageID string, upserts []Block, deletedIDs []string) error
	ReplacePageBlocks(pageID string, blocks []Block) error
	DeleteBlocksByPage(pageID string) error
}
