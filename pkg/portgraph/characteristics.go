package portgraph

// StickTogether reports whether the direct members of vg form one chain of
// touching vertices, i.e. the group has exactly one touching pair fewer than
// it has vertices.
func (g *Graph) StickTogether(vg VertexGroupID) bool {
	grp := g.VertexGroup(vg)
	if grp == nil {
		return false
	}
	return len(grp.Vertices) == len(grp.TouchingPairs)+1
}

// IsConnector reports whether vg is a connector: a stick-together group with
// port pairings in which every member vertex carries at least one paired port,
// such as a plug mated with its socket.
func (g *Graph) IsConnector(vg VertexGroupID) bool {
	grp := g.VertexGroup(vg)
	if grp == nil || len(grp.Vertices) < 2 || !g.StickTogether(vg) {
		return false
	}
	pairings := g.GroupPortPairings(vg)
	if len(pairings) == 0 {
		return false
	}
	for _, v := range grp.Vertices {
		if !g.hasPairedPort(v, pairings) {
			return false
		}
	}
	return true
}

// IsDeviceVertex reports whether v is the device of its group: the group is
// not a connector, it declares port pairings, and none of them touch v.
func (g *Graph) IsDeviceVertex(v VertexID) bool {
	vx := g.Vertex(v)
	if vx == nil || vx.Group == NoVertexGroup || g.IsConnector(vx.Group) {
		return false
	}
	pairings := g.GroupPortPairings(vx.Group)
	return len(pairings) > 0 && !g.hasPairedPort(v, pairings)
}

func (g *Graph) hasPairedPort(v VertexID, pairings []PortPairing) bool {
	for _, p := range g.PortsOf(v) {
		for _, pp := range pairings {
			if pp.Contains(p) {
				return true
			}
		}
	}
	return false
}
