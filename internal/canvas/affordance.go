package canvas

import (
	"pagebuilder/internal/domain"
	"pagebuilder/internal/tree"
)

// Adder is the slice of the tree store the empty-state affordances call.
type Adder interface {
	AddBlock(componentName string, parentID *string, props domain.Props) (tree.Change, error)
	AddBlockToContainer(componentName, containerID string, props domain.Props) (tree.Change, error)
}

// QuickStart adds the first block of an empty page from the empty-canvas
// suggestions, seeded with the component's default props.
func QuickStart(a Adder, components Components, componentName string) (tree.Change, error) {
	return a.AddBlock(componentName, nil, defaultProps(components, componentName))
}

// DropZoneAdd adds a block into a container through its "add block here" zone.
func DropZoneAdd(a Adder, components Components, componentName, containerID string) (tree.Change, error) {
	return a.AddBlockToContainer(componentName, containerID, defaultProps(components, componentName))
}

func defaultProps(components Components, name string) domain.Props {
	if components == nil {
		return domain.Props{}
	}
	if e, ok := components.Entry(name); ok && e.DefaultProps != nil {
		return e.DefaultProps.Clone()
	}
	return domain.Props{}
}
