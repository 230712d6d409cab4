package residual

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestTableRoundTripsThroughWire(t *testing.T) {
	table := Table{
		2: {{
			Formula: &VFieldAccessPredicate{Access: &VFieldAccess{
				Root: &VLocal{Name: "o"}, FieldName: "S$f",
			}},
			Context:    2,
			Position:   PosValue,
			Refinement: RefineNone,
			BranchStack: []BranchFrame{{
				AtNode: 1,
				Cond:   &VBinary{Op: ">", Left: &VLocal{Name: "x"}, Right: &VLit{Kind: VLitInt, Value: float64(0)}},
			}},
		}},
		3: {{
			Formula:    &VPredicateAccess{Name: "valid", Args: []VNode{&VLocal{Name: "o"}}},
			Context:    3,
			Position:   PosLoopBefore,
			Refinement: RefineInCall,
		}},
	}

	data, err := EncodeTable(table)
	require.NoError(t, err)

	decoded, err := DecodeTable(data)
	require.NoError(t, err)

	if diff := cmp.Diff(table, decoded); diff != "" {
		t.Errorf("table did not round-trip through wire encoding (-want +got):\n%s", diff)
	}
}

func TestProgramTraceRoundTripsThroughWire(t *testing.T) {
	trace := ProgramTrace{
		"m": {
			PreNodes:  []NodeID{10},
			PostNodes: []NodeID{20},
			Body: []*VOp{
				{
					ID: 1, Kind: VOpIf,
					Then: []*VOp{{ID: 2, Kind: VOpAssignMember}},
				},
				{ID: 3, Kind: VOpReturnValue},
			},
		},
	}

	data, err := EncodeProgramTrace(trace)
	require.NoError(t, err)

	decoded, err := DecodeProgramTrace(data)
	require.NoError(t, err)

	if diff := cmp.Diff(trace, decoded); diff != "" {
		t.Errorf("trace did not round-trip through wire encoding (-want +got):\n%s", diff)
	}
}
