package residual

import (
	"encoding/json"
	"fmt"
)

// This file defines the on-disk JSON encoding of Table and ProgramTrace —
// the shape a verifier run would actually hand the weaver. spec.md does not
// mandate a wire format, and nothing in the example pack offers a closer
// match for this exact tagged-union-of-ASTs shape, so this is a deliberate
// standard-library choice (encoding/json) rather than a third-party codec.

// wireNode is VNode's tagged-union wire representation: one flat struct
// with every variant's fields, discriminated by Kind.
type wireNode struct {
	Kind string `json:"kind"`

	Op      string    `json:"op,omitempty"`
	Left    *wireNode `json:"left,omitempty"`
	Right   *wireNode `json:"right,omitempty"`
	Operand *wireNode `json:"operand,omitempty"`

	LitKind string      `json:"lit_kind,omitempty"`
	Value   interface{} `json:"value,omitempty"`

	Name string `json:"name,omitempty"`

	Root      *wireNode `json:"root,omitempty"`
	FieldName string    `json:"field_name,omitempty"`

	C *wireNode `json:"c,omitempty"`
	T *wireNode `json:"t,omitempty"`
	F *wireNode `json:"f,omitempty"`

	Access *wireNode   `json:"access,omitempty"`
	Args   []*wireNode `json:"args,omitempty"`
}

var litKindNames = map[VLitKind]string{
	VLitInt: "int", VLitChar: "char", VLitBool: "bool", VLitString: "string", VLitNull: "null",
}
var litKindValues = map[string]VLitKind{
	"int": VLitInt, "char": VLitChar, "bool": VLitBool, "string": VLitString, "null": VLitNull,
}

func nodeToWire(v VNode) *wireNode {
	if v == nil {
		return nil
	}
	switch n := v.(type) {
	case *VBinary:
		return &wireNode{Kind: "binary", Op: n.Op, Left: nodeToWire(n.Left), Right: nodeToWire(n.Right)}
	case *VUnary:
		return &wireNode{Kind: "unary", Op: n.Op, Operand: nodeToWire(n.Operand)}
	case *VLit:
		return &wireNode{Kind: "lit", LitKind: litKindNames[n.Kind], Value: n.Value}
	case *VLocal:
		return &wireNode{Kind: "local", Name: n.Name}
	case *VFieldAccess:
		return &wireNode{Kind: "field_access", Root: nodeToWire(n.Root), FieldName: n.FieldName}
	case *VCond:
		return &wireNode{Kind: "cond", C: nodeToWire(n.C), T: nodeToWire(n.T), F: nodeToWire(n.F)}
	case *VFieldAccessPredicate:
		return &wireNode{Kind: "field_access_predicate", Access: nodeToWire(n.Access)}
	case *VPredicateAccess:
		return &wireNode{Kind: "predicate_access", Name: n.Name, Args: nodesToWire(n.Args)}
	case *VPredicateAccessPredicate:
		return &wireNode{Kind: "predicate_access_predicate", Name: n.Name, Args: nodesToWire(n.Args)}
	default:
		panic(fmt.Sprintf("residual: unhandled VNode %T in wire encoding", v))
	}
}

func nodesToWire(vs []VNode) []*wireNode {
	if vs == nil {
		return nil
	}
	out := make([]*wireNode, len(vs))
	for i, v := range vs {
		out[i] = nodeToWire(v)
	}
	return out
}

func wireToNode(w *wireNode) (VNode, error) {
	if w == nil {
		return nil, nil
	}
	switch w.Kind {
	case "binary":
		left, err := wireToNode(w.Left)
		if err != nil {
			return nil, err
		}
		right, err := wireToNode(w.Right)
		if err != nil {
			return nil, err
		}
		return &VBinary{Op: w.Op, Left: left, Right: right}, nil
	case "unary":
		operand, err := wireToNode(w.Operand)
		if err != nil {
			return nil, err
		}
		return &VUnary{Op: w.Op, Operand: operand}, nil
	case "lit":
		kind, ok := litKindValues[w.LitKind]
		if !ok {
			return nil, fmt.Errorf("residual: unknown literal kind %q", w.LitKind)
		}
		return &VLit{Kind: kind, Value: w.Value}, nil
	case "local":
		return &VLocal{Name: w.Name}, nil
	case "field_access":
		root, err := wireToNode(w.Root)
		if err != nil {
			return nil, err
		}
		return &VFieldAccess{Root: root, FieldName: w.FieldName}, nil
	case "cond":
		c, err := wireToNode(w.C)
		if err != nil {
			return nil, err
		}
		th, err := wireToNode(w.T)
		if err != nil {
			return nil, err
		}
		el, err := wireToNode(w.F)
		if err != nil {
			return nil, err
		}
		return &VCond{C: c, T: th, F: el}, nil
	case "field_access_predicate":
		access, err := wireToNode(w.Access)
		if err != nil {
			return nil, err
		}
		fa, ok := access.(*VFieldAccess)
		if !ok {
			return nil, fmt.Errorf("residual: field_access_predicate.access must be a field_access")
		}
		return &VFieldAccessPredicate{Access: fa}, nil
	case "predicate_access":
		args, err := wiresToNodes(w.Args)
		if err != nil {
			return nil, err
		}
		return &VPredicateAccess{Name: w.Name, Args: args}, nil
	case "predicate_access_predicate":
		args, err := wiresToNodes(w.Args)
		if err != nil {
			return nil, err
		}
		return &VPredicateAccessPredicate{Name: w.Name, Args: args}, nil
	default:
		return nil, fmt.Errorf("residual: unknown VNode kind %q", w.Kind)
	}
}

func wiresToNodes(ws []*wireNode) ([]VNode, error) {
	if ws == nil {
		return nil, nil
	}
	out := make([]VNode, len(ws))
	for i, w := range ws {
		n, err := wireToNode(w)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

type wireBranchFrame struct {
	Cond   *wireNode `json:"cond"`
	AtNode NodeID    `json:"at_node"`
	Origin *NodeID   `json:"origin,omitempty"`
}

type wireCheckEntry struct {
	Formula     *wireNode         `json:"formula"`
	Context     NodeID            `json:"context"`
	Position    PositionTag       `json:"position"`
	Refinement  Refinement        `json:"refinement"`
	BranchStack []wireBranchFrame `json:"branch_stack,omitempty"`
}

// wireTable is Table's on-disk shape: JSON object keys must be strings, so
// node ids are encoded as decimal strings and parsed back on decode.
type wireTable map[string][]wireCheckEntry

// EncodeTable renders table as its JSON wire form.
func EncodeTable(table Table) ([]byte, error) {
	wt := make(wireTable, len(table))
	for id, entries := range table {
		wentries := make([]wireCheckEntry, len(entries))
		for i, e := range entries {
			wbranch := make([]wireBranchFrame, len(e.BranchStack))
			for j, f := range e.BranchStack {
				wbranch[j] = wireBranchFrame{Cond: nodeToWire(f.Cond), AtNode: f.AtNode, Origin: f.Origin}
			}
			wentries[i] = wireCheckEntry{
				Formula: nodeToWire(e.Formula), Context: e.Context,
				Position: e.Position, Refinement: e.Refinement, BranchStack: wbranch,
			}
		}
		wt[fmt.Sprintf("%d", id)] = wentries
	}
	return json.MarshalIndent(wt, "", "  ")
}

// DecodeTable parses data (as produced by EncodeTable) into a Table.
func DecodeTable(data []byte) (Table, error) {
	var wt wireTable
	if err := json.Unmarshal(data, &wt); err != nil {
		return nil, err
	}
	table := make(Table, len(wt))
	for key, wentries := range wt {
		var id int
		if _, err := fmt.Sscanf(key, "%d", &id); err != nil {
			return nil, fmt.Errorf("residual: invalid node id key %q: %w", key, err)
		}
		entries := make([]CheckEntry, len(wentries))
		for i, we := range wentries {
			formula, err := wireToNode(we.Formula)
			if err != nil {
				return nil, err
			}
			var branch []BranchFrame
			if len(we.BranchStack) > 0 {
				branch = make([]BranchFrame, len(we.BranchStack))
			}
			for j, wf := range we.BranchStack {
				cond, err := wireToNode(wf.Cond)
				if err != nil {
					return nil, err
				}
				branch[j] = BranchFrame{Cond: cond, AtNode: wf.AtNode, Origin: wf.Origin}
			}
			entries[i] = CheckEntry{
				Formula: formula, Context: we.Context,
				Position: we.Position, Refinement: we.Refinement, BranchStack: branch,
			}
		}
		table[NodeID(id)] = entries
	}
	return table, nil
}

type wireVOp struct {
	ID   NodeID `json:"id"`
	Kind VOpKind `json:"kind"`

	Then []*wireVOp `json:"then,omitempty"`
	Else []*wireVOp `json:"else,omitempty"`
	Body []*wireVOp `json:"body,omitempty"`

	InvariantNodes     []NodeID `json:"invariant_nodes,omitempty"`
	PreconditionNodes  []NodeID `json:"precondition_nodes,omitempty"`
	PostconditionNodes []NodeID `json:"postcondition_nodes,omitempty"`
	PredicateNodes     []NodeID `json:"predicate_nodes,omitempty"`
	AssertNodes        []NodeID `json:"assert_nodes,omitempty"`
}

func vopToWire(v *VOp) *wireVOp {
	if v == nil {
		return nil
	}
	w := &wireVOp{
		ID: v.ID, Kind: v.Kind,
		InvariantNodes: v.InvariantNodes, PreconditionNodes: v.PreconditionNodes,
		PostconditionNodes: v.PostconditionNodes, PredicateNodes: v.PredicateNodes, AssertNodes: v.AssertNodes,
	}
	for _, t := range v.Then {
		w.Then = append(w.Then, vopToWire(t))
	}
	for _, e := range v.Else {
		w.Else = append(w.Else, vopToWire(e))
	}
	for _, b := range v.Body {
		w.Body = append(w.Body, vopToWire(b))
	}
	return w
}

func wireToVOp(w *wireVOp) *VOp {
	if w == nil {
		return nil
	}
	v := &VOp{
		ID: w.ID, Kind: w.Kind,
		InvariantNodes: w.InvariantNodes, PreconditionNodes: w.PreconditionNodes,
		PostconditionNodes: w.PostconditionNodes, PredicateNodes: w.PredicateNodes, AssertNodes: w.AssertNodes,
	}
	for _, t := range w.Then {
		v.Then = append(v.Then, wireToVOp(t))
	}
	for _, e := range w.Else {
		v.Else = append(v.Else, wireToVOp(e))
	}
	for _, b := range w.Body {
		v.Body = append(v.Body, wireToVOp(b))
	}
	return v
}

type wireMethodTrace struct {
	PreNodes  []NodeID   `json:"pre_nodes,omitempty"`
	PostNodes []NodeID   `json:"post_nodes,omitempty"`
	Body      []*wireVOp `json:"body,omitempty"`
}

// EncodeProgramTrace renders trace as its JSON wire form.
func EncodeProgramTrace(trace ProgramTrace) ([]byte, error) {
	wt := make(map[string]wireMethodTrace, len(trace))
	for name, mt := range trace {
		wmt := wireMethodTrace{PreNodes: mt.PreNodes, PostNodes: mt.PostNodes}
		for _, op := range mt.Body {
			wmt.Body = append(wmt.Body, vopToWire(op))
		}
		wt[name] = wmt
	}
	return json.MarshalIndent(wt, "", "  ")
}

// DecodeProgramTrace parses data (as produced by EncodeProgramTrace) into a
// ProgramTrace.
func DecodeProgramTrace(data []byte) (ProgramTrace, error) {
	var wt map[string]wireMethodTrace
	if err := json.Unmarshal(data, &wt); err != nil {
		return nil, err
	}
	trace := make(ProgramTrace, len(wt))
	for name, wmt := range wt {
		mt := &MethodTrace{PreNodes: wmt.PreNodes, PostNodes: wmt.PostNodes}
		for _, wop := range wmt.Body {
			mt.Body = append(mt.Body, wireToVOp(wop))
		}
		trace[name] = mt
	}
	return trace, nil
}
