// Package inspector renders a live view of a Core's accessibility tree as
// a Bubble Tea component: a collapsible forest of windows and elements,
// a detail panel for the current selection, and a scrolling log of events
// off the event bus.
package inspector

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/watchcask/allio/pkg/allio/types"
)

// node is one row of the rendered forest: either a window or an element.
// A window's children are its root elements (IsRoot), and each element's
// children follow its Children list. Elements not reachable that way, such
// as orphans (ParentID unset and not IsRoot), are not shown.
type node struct {
	key      string
	label    string
	element  *types.Element
	window   *types.Window
	children []*node
}

var (
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	selectedStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("99")).
			Foreground(lipgloss.Color("15")).
			Bold(true)

	windowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("170")).
			Bold(true)
)

func windowKey(id types.WindowId) string  { return fmt.Sprintf("window:%d", id) }
func elementKey(id types.ElementId) string { return fmt.Sprintf("element:%d", id) }

// TreeView is the forest of windows and elements browsed by the inspector.
// Selection and expansion state survive a Rebuild so a live snapshot
// refresh never resets the user's place in the tree.
type TreeView struct {
	roots    []*node
	index    map[string]*node
	selected string
	expanded map[string]bool
}

// NewTreeView creates an empty tree view; call Rebuild to populate it.
func NewTreeView() *TreeView {
	return &TreeView{
		index:    make(map[string]*node),
		expanded: make(map[string]bool),
	}
}

// Rebuild replaces the forest with the given snapshot's windows and
// elements, keeping whatever selection and expansion state still resolves
// to a node in the new tree.
func (tv *TreeView) Rebuild(snapshot types.Snapshot) {
	byID := make(map[types.ElementId]*types.Element, len(snapshot.Elements))
	for i := range snapshot.Elements {
		el := &snapshot.Elements[i]
		byID[el.ID] = el
	}

	index := make(map[string]*node, len(snapshot.Windows)+len(snapshot.Elements))

	buildElement := func(el *types.Element) *node {
		var build func(el *types.Element) *node
		build = func(el *types.Element) *node {
			n := &node{key: elementKey(el.ID), label: elementLabel(el), element: el}
			for _, childID := range el.Children {
				if child, ok := byID[childID]; ok {
					n.children = append(n.children, build(child))
				}
			}
			index[n.key] = n
			return n
		}
		return build(el)
	}

	roots := make([]*node, 0, len(snapshot.Windows))
	for i := range snapshot.Windows {
		w := snapshot.Windows[i]
		wn := &node{key: windowKey(w.ID), label: windowLabel(w), window: &snapshot.Windows[i]}
		for _, el := range snapshot.Elements {
			if el.WindowID == w.ID && el.IsRoot {
				wn.children = append(wn.children, buildElement(byID[el.ID]))
			}
		}
		index[wn.key] = wn
		roots = append(roots, wn)
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i].window.ID < roots[j].window.ID })

	tv.roots = roots
	tv.index = index
	if _, ok := index[tv.selected]; !ok {
		tv.selected = ""
	}
}

func windowLabel(w types.Window) string {
	return fmt.Sprintf("%s — %s", w.AppName, w.Title)
}

func elementLabel(el *types.Element) string {
	label := el.Role.String()
	if el.Label != nil && *el.Label != "" {
		label = fmt.Sprintf("%s %q", label, *el.Label)
	}
	if el.Value != nil {
		label = fmt.Sprintf("%s = %s", label, el.Value.String())
	}
	return label
}

// Selected returns the currently selected element, if the selection is an
// element node (as opposed to a window, or nothing).
func (tv *TreeView) Selected() (*types.Element, bool) {
	n, ok := tv.index[tv.selected]
	if !ok || n.element == nil {
		return nil, false
	}
	return n.element, true
}

// Toggle flips the expansion state of the currently selected node.
func (tv *TreeView) Toggle() {
	if tv.selected == "" {
		return
	}
	if tv.expanded[tv.selected] {
		delete(tv.expanded, tv.selected)
	} else {
		tv.expanded[tv.selected] = true
	}
}

func (tv *TreeView) visible() []*node {
	var out []*node
	var walk func(n *node)
	walk = func(n *node) {
		out = append(out, n)
		if tv.expanded[n.key] {
			for _, c := range n.children {
				walk(c)
			}
		}
	}
	for _, r := range tv.roots {
		walk(r)
	}
	return out
}

// SelectNext moves the selection to the next visible row, depth-first.
func (tv *TreeView) SelectNext() {
	visible := tv.visible()
	if len(visible) == 0 {
		return
	}
	if tv.selected == "" {
		tv.selected = visible[0].key
		return
	}
	for i, n := range visible {
		if n.key == tv.selected {
			if i < len(visible)-1 {
				tv.selected = visible[i+1].key
			}
			return
		}
	}
	tv.selected = visible[0].key
}

// SelectPrevious moves the selection to the previous visible row.
func (tv *TreeView) SelectPrevious() {
	visible := tv.visible()
	if len(visible) == 0 {
		return
	}
	if tv.selected == "" {
		tv.selected = visible[0].key
		return
	}
	for i, n := range visible {
		if n.key == tv.selected {
			if i > 0 {
				tv.selected = visible[i-1].key
			}
			return
		}
	}
	tv.selected = visible[0].key
}

// Render draws the forest as an indented, styled tree.
func (tv *TreeView) Render() string {
	if len(tv.roots) == 0 {
		return dimStyle.Render("no windows")
	}
	var lines []string
	var walk func(n *node, depth int)
	walk = func(n *node, depth int) {
		lines = append(lines, tv.renderLine(n, depth))
		if tv.expanded[n.key] {
			for _, c := range n.children {
				walk(c, depth+1)
			}
		}
	}
	for _, r := range tv.roots {
		walk(r, 0)
	}
	return strings.Join(lines, "\n")
}

func (tv *TreeView) renderLine(n *node, depth int) string {
	indent := strings.Repeat("  ", depth)

	expandIcon := "  "
	if len(n.children) > 0 {
		if tv.expanded[n.key] {
			expandIcon = "▼ "
		} else {
			expandIcon = "▶ "
		}
	}

	prefix := " "
	if n.key == tv.selected {
		prefix = "►"
	}

	line := fmt.Sprintf("%s%s%s%s", prefix, indent, expandIcon, n.label)

	switch {
	case n.key == tv.selected:
		return selectedStyle.Render(line)
	case n.window != nil:
		return windowStyle.Render(line)
	default:
		return normalStyle.Render(line)
	}
}
