package provision

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/ucs-toolbox/podcfg/internal/model"
)

// policyRank fixes the node IDs, and with them the tie-break order of the
// stabilized topological sort.
var policyRank = []model.PolicyType{
	model.PolicyTypeBIOS,
	model.PolicyTypeQoS,
	model.PolicyTypeVNIC,
	model.PolicyTypeBoot,
	model.PolicyTypeStorage,
}

// policyDeps records which policy types must exist before another can be
// created. LAN connectivity references QoS policies through its vNICs.
var policyDeps = map[model.PolicyType][]model.PolicyType{
	model.PolicyTypeVNIC: {model.PolicyTypeQoS},
}

// PolicyOrder returns the policy types in an order that satisfies every
// dependency. The order is deterministic.
func PolicyOrder() ([]model.PolicyType, error) {
	g := simple.NewDirectedGraph()

	ids := make(map[model.PolicyType]int64, len(policyRank))

	for i, t := range policyRank {
		ids[t] = int64(i)
		g.AddNode(simple.Node(int64(i)))
	}

	for dependent, deps := range policyDeps {
		for _, dep := range deps {
			g.SetEdge(g.NewEdge(simple.Node(ids[dep]), simple.Node(ids[dependent])))
		}
	}

	sorted, err := topo.SortStabilized(g, nil)
	if err != nil {
		return nil, errors.Wrap(err, "policy dependencies are cyclic")
	}

	order := make([]model.PolicyType, len(sorted))
	for i, n := range sorted {
		order[i] = policyRank[n.ID()]
	}

	return order, nil
}
