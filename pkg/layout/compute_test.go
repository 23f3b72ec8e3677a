package layout

import (
	"testing"

	"github.com/valhq/flowscope/pkg/errors"
)

func TestComputeDispatch(t *testing.T) {
	nodes := []Node{{ID: "a"}, {ID: "b"}}
	edges := []Edge{{Source: "a", Target: "b"}}

	for _, algorithm := range []string{AlgorithmGrid, AlgorithmHierarchical, AlgorithmForce} {
		pm, err := Compute(algorithm, nodes, edges, DefaultParams())
		if err != nil {
			t.Fatalf("Compute(%q) error = %v", algorithm, err)
		}
		checkCompleteness(t, nodes, pm)
	}
}

func TestComputeUnknownAlgorithm(t *testing.T) {
	_, err := Compute("circular", []Node{{ID: "a"}}, nil, DefaultParams())
	if !errors.Is(err, errors.ErrCodeInvalidAlgorithm) {
		t.Errorf("Compute(circular) error = %v, want invalid-algorithm", err)
	}
}
