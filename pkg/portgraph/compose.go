package portgraph

import "slices"

type compositionKind uint8

const (
	kindPort compositionKind = iota
	kindGroup
)

// Composition is an item of a vertex's port layout: either a single port or
// a port group that nests further compositions.
type Composition struct {
	kind compositionKind
	id   int
}

// PortItem wraps a port as a composition.
func PortItem(p PortID) Composition { return Composition{kind: kindPort, id: int(p)} }

// GroupItem wraps a port group as a composition.
func GroupItem(pg PortGroupID) Composition { return Composition{kind: kindGroup, id: int(pg)} }

// IsPort reports whether the composition is a single port.
func (c Composition) IsPort() bool { return c.kind == kindPort }

// IsGroup reports whether the composition is a port group.
func (c Composition) IsGroup() bool { return c.kind == kindGroup }

// Port returns the wrapped port. Only meaningful if IsPort is true.
func (c Composition) Port() PortID { return PortID(c.id) }

// Group returns the wrapped port group. Only meaningful if IsGroup is true.
func (c Composition) Group() PortGroupID { return PortGroupID(c.id) }

// Flatten returns all ports below the given compositions in depth-first order.
func (g *Graph) Flatten(items []Composition) []PortID {
	var out []PortID
	g.Walk(items, func(p PortID) { out = append(out, p) })
	return out
}

// Walk calls fn for every port below items in depth-first order.
func (g *Graph) Walk(items []Composition, fn func(PortID)) {
	for _, it := range items {
		if it.IsPort() {
			if g.Port(it.Port()) != nil {
				fn(it.Port())
			}
			continue
		}
		if pg := g.PortGroup(it.Group()); pg != nil {
			g.Walk(pg.Items, fn)
		}
	}
}

// FirstPort returns the first port below items, or false if there is none.
func (g *Graph) FirstPort(items []Composition) (PortID, bool) {
	for _, it := range items {
		if it.IsPort() {
			if g.Port(it.Port()) != nil {
				return it.Port(), true
			}
			continue
		}
		if pg := g.PortGroup(it.Group()); pg != nil {
			if p, ok := g.FirstPort(pg.Items); ok {
				return p, true
			}
		}
	}
	return 0, false
}

// AddPortGroup creates a port group on vertex v. With parent == NoPortGroup
// the group becomes the last top-level composition of v; otherwise it is
// appended to parent, which must belong to v.
func (g *Graph) AddPortGroup(v VertexID, parent PortGroupID, ordered bool) (PortGroupID, error) {
	vx := g.Vertex(v)
	if vx == nil {
		return 0, ErrUnknownVertex
	}
	var par *PortGroup
	if parent != NoPortGroup {
		if par = g.PortGroup(parent); par == nil {
			return 0, ErrUnknownPortGroup
		}
		if par.Vertex != v {
			return 0, ErrForeignComposition
		}
	}
	id := PortGroupID(len(g.portGroups))
	g.portGroups = append(g.portGroups, &PortGroup{ID: id, Ordered: ordered, Vertex: v, Parent: parent})
	if par != nil {
		par.Items = append(par.Items, GroupItem(id))
	} else {
		vx.Items = append(vx.Items, GroupItem(id))
	}
	return id, nil
}

// MoveInto detaches item from its current container and appends it to the
// port group target. Both must belong to the same vertex.
func (g *Graph) MoveInto(item Composition, target PortGroupID) error {
	tg := g.PortGroup(target)
	if tg == nil {
		return ErrUnknownPortGroup
	}
	v, err := g.owner(item)
	if err != nil {
		return err
	}
	if v != tg.Vertex {
		return ErrForeignComposition
	}
	g.detach(item)
	tg.Items = append(tg.Items, item)
	g.setParent(item, target)
	return nil
}

// WrapPort replaces port p in its container by a new port group holding p,
// keeping the position. It returns the new group.
func (g *Graph) WrapPort(p PortID, ordered bool) (PortGroupID, error) {
	port := g.Port(p)
	if port == nil {
		return 0, ErrUnknownPort
	}
	if port.Vertex == NoVertex {
		return 0, ErrUnknownVertex
	}
	id := PortGroupID(len(g.portGroups))
	grp := &PortGroup{ID: id, Ordered: ordered, Vertex: port.Vertex, Parent: port.Group, Items: []Composition{PortItem(p)}}
	g.portGroups = append(g.portGroups, grp)
	items := g.container(port.Vertex, port.Group)
	if i := slices.Index(*items, PortItem(p)); i >= 0 {
		(*items)[i] = GroupItem(id)
	}
	port.Group = id
	return id, nil
}

// RemovePortGroup removes a port group and everything below it. Contained
// ports are removed with [Graph.RemovePort].
func (g *Graph) RemovePortGroup(pg PortGroupID) {
	grp := g.PortGroup(pg)
	if grp == nil {
		return
	}
	for _, it := range slices.Clone(grp.Items) {
		if it.IsPort() {
			g.RemovePort(it.Port())
		} else {
			g.RemovePortGroup(it.Group())
		}
	}
	g.detach(GroupItem(pg))
	g.portGroups[pg] = nil
}

// RemoveEmptyGroups removes every port group of v that contains no port,
// directly or below. It returns the number of groups removed.
func (g *Graph) RemoveEmptyGroups(v VertexID) int {
	removed := 0
	for _, pg := range g.PortGroups() {
		grp := g.portGroups[pg]
		if grp == nil || grp.Vertex != v {
			continue
		}
		if _, ok := g.FirstPort(grp.Items); !ok {
			g.RemovePortGroup(pg)
			removed++
		}
	}
	return removed
}

func (g *Graph) owner(item Composition) (VertexID, error) {
	if item.IsPort() {
		p := g.Port(item.Port())
		if p == nil {
			return NoVertex, ErrUnknownPort
		}
		return p.Vertex, nil
	}
	pg := g.PortGroup(item.Group())
	if pg == nil {
		return NoVertex, ErrUnknownPortGroup
	}
	return pg.Vertex, nil
}

func (g *Graph) setParent(item Composition, parent PortGroupID) {
	if item.IsPort() {
		g.ports[item.Port()].Group = parent
	} else {
		g.portGroups[item.Group()].Parent = parent
	}
}

// container returns the item list holding compositions of v under parent.
func (g *Graph) container(v VertexID, parent PortGroupID) *[]Composition {
	if parent != NoPortGroup {
		if pg := g.PortGroup(parent); pg != nil {
			return &pg.Items
		}
	}
	if vx := g.Vertex(v); vx != nil {
		return &vx.Items
	}
	return &[]Composition{}
}

func (g *Graph) detach(item Composition) {
	var v VertexID
	var parent PortGroupID
	if item.IsPort() {
		p := g.Port(item.Port())
		if p == nil || p.Vertex == NoVertex {
			return
		}
		v, parent = p.Vertex, p.Group
	} else {
		pg := g.PortGroup(item.Group())
		if pg == nil {
			return
		}
		v, parent = pg.Vertex, pg.Parent
	}
	items := g.container(v, parent)
	*items = slices.DeleteFunc(*items, func(c Composition) bool { return c == item })
}
