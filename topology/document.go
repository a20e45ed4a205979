package topology

// Document is the serializable form of a topology, for external emulators
// and for inspection.
type Document struct {
	Name  string         `yaml:"name"`
	Nodes []NodeDocument `yaml:"nodes"`
	Links []LinkDocument `yaml:"links"`
}

// NodeDocument is the serializable form of a node.
type NodeDocument struct {
	Name      string `yaml:"name"`
	Kind      string `yaml:"kind"`
	ConfigDir string `yaml:"config_dir,omitempty"`
	Address   string `yaml:"address,omitempty"`
	Gateway   string `yaml:"gateway,omitempty"`
}

// EndpointDocument is the serializable form of an endpoint.
type EndpointDocument struct {
	Node      string `yaml:"node"`
	Interface string `yaml:"interface,omitempty"`
}

// LinkDocument is the serializable form of a link.
type LinkDocument struct {
	Endpoints [2]EndpointDocument `yaml:"endpoints,flow"`
}

// Document returns the serializable form of the topology.
func (m *Topology) Document() Document {
	doc := Document{
		Name:  m.name,
		Nodes: make([]NodeDocument, 0, len(m.nodes)),
		Links: make([]LinkDocument, 0, len(m.links)),
	}

	for _, node := range m.nodes {
		nodeDoc := NodeDocument{
			Name:      node.Name,
			Kind:      node.Kind.String(),
			ConfigDir: node.ConfigDir,
		}
		if node.Address.IsValid() {
			nodeDoc.Address = node.Address.String()
		}
		if node.Gateway.IsValid() {
			nodeDoc.Gateway = node.Gateway.String()
		}
		doc.Nodes = append(doc.Nodes, nodeDoc)
	}

	for _, link := range m.links {
		doc.Links = append(doc.Links, LinkDocument{
			Endpoints: [2]EndpointDocument{
				{Node: link.A.Node, Interface: link.A.Interface},
				{Node: link.B.Node, Interface: link.B.Interface},
			},
		})
	}
	return doc
}
