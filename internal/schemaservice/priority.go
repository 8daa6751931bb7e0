package schemaservice

// Priority orders the schemas that apply to one resource. Higher wins; ties
// at the maximum are combined.
type Priority int

const (
	SchemaStore       Priority = 1
	SchemaAssociation Priority = 2
	Settings          Priority = 3
	Modeline          Priority = 4
)

// priorities maps a schema URI to the set of priorities it was registered
// with. A URI without an entry has priority 0.
type priorities map[string]map[Priority]struct{}

func (p priorities) add(uri string, prio Priority) {
	set, ok := p[uri]
	if !ok {
		set = map[Priority]struct{}{}
		p[uri] = set
	}
	set[prio] = struct{}{}
}

// highest returns the ids holding the maximum priority, in input order.
func (p priorities) highest(ids []string) []string {
	best := Priority(0)
	byPrio := map[Priority][]string{}
	for _, id := range ids {
		set := p[id]
		if len(set) == 0 {
			set = map[Priority]struct{}{0: {}}
		}
		for prio := range set {
			best = max(best, prio)
			byPrio[prio] = append(byPrio[prio], id)
		}
	}
	return byPrio[best]
}
