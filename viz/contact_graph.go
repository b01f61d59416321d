// ABOUTME: Graph of people linked by relations, shared companies and groups
// ABOUTME: Renders DOT or SVG through goccy/go-graphviz
package viz

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	"github.com/google/uuid"

	"github.com/harperreed/contactshq/gateway"
	"github.com/harperreed/contactshq/models"
)

type NodeKind int

const (
	NodePerson NodeKind = iota
	NodeCompany
	NodeGroup
	// NodeExternal is a relation name that matches no stored person.
	NodeExternal
)

type Node struct {
	Key   string
	Label string
	Kind  NodeKind
	Type  models.PersonType
}

type Edge struct {
	From, To string
	Label    string
}

type Graph struct {
	Nodes []Node
	Edges []Edge
}

var typeColors = map[models.PersonType]string{
	models.PersonTypeFamily:       "lightpink",
	models.PersonTypeFriend:       "lightgreen",
	models.PersonTypeAcquaintance: "lightgrey",
	models.PersonTypeBusiness:     "lightblue",
	models.PersonTypeClient:       "khaki",
}

type GraphGenerator struct {
	gw *gateway.Gateway
}

func NewGraphGenerator(gw *gateway.Gateway) *GraphGenerator {
	return &GraphGenerator{gw: gw}
}

// BuildGraph links people to the people named in their relations, to their company
// and to their groups. With center set, only that person and their direct
// neighbours are kept.
func BuildGraph(people []*models.Person, center *uuid.UUID) Graph {
	var g Graph
	seen := map[string]bool{}
	addNode := func(n Node) {
		if !seen[n.Key] {
			seen[n.Key] = true
			g.Nodes = append(g.Nodes, n)
		}
	}

	byName := make(map[string]string, len(people))
	for _, p := range people {
		byName[strings.ToLower(p.FullName())] = personKey(p.ID())
		if _, ok := byName[strings.ToLower(p.GivenName)]; !ok {
			byName[strings.ToLower(p.GivenName)] = personKey(p.ID())
		}
	}

	for _, p := range people {
		key := personKey(p.ID())
		addNode(Node{Key: key, Label: p.FullName(), Kind: NodePerson, Type: p.Type})

		for _, rel := range p.ContactRelations {
			if rel.IsBlank() {
				continue
			}
			target, ok := byName[strings.ToLower(strings.TrimSpace(rel.Value))]
			if !ok {
				target = "ext:" + strings.ToLower(rel.Value)
				addNode(Node{Key: target, Label: rel.Value, Kind: NodeExternal})
			}
			if target != key {
				g.Edges = append(g.Edges, Edge{From: key, To: target, Label: rel.LabelText()})
			}
		}
		if c := strings.TrimSpace(models.Deref(p.Company)); c != "" {
			ck := "company:" + strings.ToLower(c)
			addNode(Node{Key: ck, Label: c, Kind: NodeCompany})
			g.Edges = append(g.Edges, Edge{From: key, To: ck, Label: "works at"})
		}
		for _, grp := range p.Groups {
			gk := "group:" + strings.ToLower(grp)
			addNode(Node{Key: gk, Label: grp, Kind: NodeGroup})
			g.Edges = append(g.Edges, Edge{From: key, To: gk})
		}
	}

	if center != nil {
		g = neighbourhood(g, personKey(*center))
	}
	sort.SliceStable(g.Nodes, func(i, j int) bool { return g.Nodes[i].Kind < g.Nodes[j].Kind })
	return g
}

// neighbourhood keeps root, nodes one edge away, and people sharing a company or
// group node with root.
func neighbourhood(g Graph, root string) Graph {
	keep := map[string]bool{root: true}
	for _, e := range g.Edges {
		if e.From == root {
			keep[e.To] = true
		}
		if e.To == root {
			keep[e.From] = true
		}
	}
	for _, e := range g.Edges {
		if keep[e.To] && e.To != root && !strings.HasPrefix(e.To, "person:") {
			keep[e.From] = true
		}
	}

	var out Graph
	for _, n := range g.Nodes {
		if keep[n.Key] {
			out.Nodes = append(out.Nodes, n)
		}
	}
	for _, e := range g.Edges {
		if keep[e.From] && keep[e.To] {
			out.Edges = append(out.Edges, e)
		}
	}
	return out
}

func personKey(id uuid.UUID) string {
	return "person:" + id.String()
}

// GeneratePeopleGraph renders the graph of every stored person in the given format.
func (gen *GraphGenerator) GeneratePeopleGraph(ctx context.Context, center *uuid.UUID, format graphviz.Format) ([]byte, error) {
	people := gen.gw.Fetch(ctx, gateway.FetchOptions{Sort: gateway.SortGivenName})
	if center != nil {
		if _, err := gen.gw.Get(ctx, *center); err != nil {
			return nil, fmt.Errorf("failed to load center person: %w", err)
		}
	}
	return Render(ctx, BuildGraph(people, center), format)
}

func Render(ctx context.Context, model Graph, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create graphviz instance: %w", err)
	}
	defer func() { _ = gv.Close() }()

	graph, err := gv.Graph()
	if err != nil {
		return nil, fmt.Errorf("failed to create graph: %w", err)
	}
	defer func() { _ = graph.Close() }()

	graph.SetLayout("neato")
	graph.SetOverlap(false)
	graph.SetLabel("People")

	nodes := make(map[string]*cgraph.Node, len(model.Nodes))
	for _, n := range model.Nodes {
		node, err := graph.CreateNodeByName(n.Key)
		if err != nil {
			return nil, fmt.Errorf("failed to create node: %w", err)
		}
		node.SetLabel(n.Label)
		switch n.Kind {
		case NodePerson:
			node.SetShape("ellipse")
			node.SetStyle("filled")
			node.SetFillColor(typeColors[n.Type])
		case NodeCompany:
			node.SetShape("box")
			node.SetStyle("filled")
			node.SetFillColor("lightblue")
		case NodeGroup:
			node.SetShape("folder")
		case NodeExternal:
			node.SetShape("plaintext")
		}
		nodes[n.Key] = node
	}

	for i, e := range model.Edges {
		edge, err := graph.CreateEdgeByName(fmt.Sprintf("e%d", i), nodes[e.From], nodes[e.To])
		if err != nil {
			return nil, fmt.Errorf("failed to create edge: %w", err)
		}
		if e.Label != "" {
			edge.SetLabel(e.Label)
		}
		if !strings.HasPrefix(e.To, "person:") {
			edge.SetStyle("dashed")
		}
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, format, &buf); err != nil {
		return nil, fmt.Errorf("failed to render graph: %w", err)
	}
	return buf.Bytes(), nil
}
