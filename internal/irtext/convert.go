package irtext

import (
	"fmt"

	"weaver/internal/ir"
)

// ToIR does not copy fixture source positions onto the ops it builds: every
// ir.Op's Position stays at its zero value. Fixtures are consumed only by
// this repo's own tests and tooling, which never inspect a woven op's
// source position.

// ToIR converts a parsed Program AST into an ir.Program. It never needs to
// fail on well-formed grammar input — every grammar alternative maps onto
// exactly one ir node — but returns an error on the one case the grammar
// cannot rule out statically: an OpNode or Expr with every alternative
// field nil (can only happen if the grammar itself is miscompiled).
func ToIR(p *Program) (*ir.Program, error) {
	out := &ir.Program{}
	for _, s := range p.Structs {
		out.Structs = append(out.Structs, toStructDef(s))
	}
	for _, m := range p.Methods {
		method, err := toMethod(m)
		if err != nil {
			return nil, err
		}
		out.Methods = append(out.Methods, method)
	}
	return out, nil
}

func toStructDef(s *StructDecl) *ir.StructDef {
	sd := &ir.StructDef{Name: s.Name}
	for _, f := range s.Fields {
		sd.Fields = append(sd.Fields, ir.FieldDef{Name: f.Name, Type: toType(f.Type)})
	}
	return sd
}

func toType(t *TypeRef) ir.Type {
	switch {
	case t.IntT != "":
		return &ir.IntType{Bits: 32}
	case t.BoolT != "":
		return &ir.BoolType{}
	case t.Ref != nil:
		return &ir.RefType{Elem: toType(t.Ref)}
	default:
		return &ir.StructType{Name: t.Struct}
	}
}

func toMethod(m *MethodDecl) (*ir.Method, error) {
	out := &ir.Method{
		Name:   m.Name,
		IsMain: m.Main != "",
	}
	for _, p := range m.Params {
		out.Params = append(out.Params, ir.Param{Name: p.Name, Type: toType(p.Type)})
	}
	if m.Result != nil {
		out.ResultType = toType(m.Result)
	}
	if m.Pre != nil {
		e, err := toExpr(m.Pre)
		if err != nil {
			return nil, err
		}
		out.Pre = e
	}
	if m.Post != nil {
		e, err := toExpr(m.Post)
		if err != nil {
			return nil, err
		}
		out.Post = e
	}
	body, err := toOps(m.Body)
	if err != nil {
		return nil, err
	}
	out.Body = body
	return out, nil
}

func toOps(nodes []*OpNode) ([]ir.Op, error) {
	out := make([]ir.Op, 0, len(nodes))
	for _, n := range nodes {
		op, err := toOp(n)
		if err != nil {
			return nil, err
		}
		out = append(out, op)
	}
	return out, nil
}

func toOp(n *OpNode) (ir.Op, error) {
	switch {
	case n.If != nil:
		cond, err := toExpr(n.If.Cond)
		if err != nil {
			return nil, err
		}
		then, err := toOps(n.If.Then)
		if err != nil {
			return nil, err
		}
		els, err := toOps(n.If.Else)
		if err != nil {
			return nil, err
		}
		return &ir.If{Cond: cond, Then: then, Else: els}, nil

	case n.While != nil:
		cond, err := toExpr(n.While.Cond)
		if err != nil {
			return nil, err
		}
		var inv ir.Expr
		if n.While.Invariant != nil {
			inv, err = toExpr(n.While.Invariant)
			if err != nil {
				return nil, err
			}
		}
		body, err := toOps(n.While.Body)
		if err != nil {
			return nil, err
		}
		return &ir.While{Cond: cond, Invariant: inv, Body: body}, nil

	case n.Invoke != nil:
		args, err := toExprs(n.Invoke.Args)
		if err != nil {
			return nil, err
		}
		return &ir.Invoke{Results: n.Invoke.Results, Method: n.Invoke.Method, Args: args}, nil

	case n.AllocValue != nil:
		return &ir.AllocValue{Result: n.AllocValue.Result, Type: toType(n.AllocValue.Type)}, nil

	case n.AllocStruct != nil:
		return &ir.AllocStruct{Result: n.AllocStruct.Result, Struct: n.AllocStruct.Struct}, nil

	case n.Assign != nil:
		v, err := toExpr(n.Assign.Value)
		if err != nil {
			return nil, err
		}
		return &ir.Assign{Result: n.Assign.Result, Value: v}, nil

	case n.AssignMember != nil:
		root, err := toExpr(n.AssignMember.Root)
		if err != nil {
			return nil, err
		}
		v, err := toExpr(n.AssignMember.Value)
		if err != nil {
			return nil, err
		}
		return &ir.AssignMember{Root: root, Struct: n.AssignMember.Struct, Field: n.AssignMember.Field, Value: v}, nil

	case n.Assert != nil:
		e, err := toExpr(n.Assert.Expr)
		if err != nil {
			return nil, err
		}
		kind := ir.AssertSpecification
		if n.Assert.Kind == "imperative" {
			kind = ir.AssertImperative
		}
		return &ir.Assert{Kind: kind, Expr: e}, nil

	case n.Fold != nil:
		args, err := toExprs(n.Fold.Args)
		if err != nil {
			return nil, err
		}
		return &ir.Fold{Predicate: &ir.PredicateInstance{Name: n.Fold.Name, Args: args}}, nil

	case n.Unfold != nil:
		args, err := toExprs(n.Unfold.Args)
		if err != nil {
			return nil, err
		}
		return &ir.Unfold{Predicate: &ir.PredicateInstance{Name: n.Unfold.Name, Args: args}}, nil

	case n.Error != nil:
		return &ir.Error{}, nil

	case n.Return != nil:
		var v ir.Expr
		if n.Return.Value != nil {
			var err error
			v, err = toExpr(n.Return.Value)
			if err != nil {
				return nil, err
			}
		}
		return &ir.Return{Value: v}, nil

	default:
		return nil, fmt.Errorf("irtext: empty OpNode at %v", n.Pos)
	}
}

func toExprs(es []*Expr) ([]ir.Expr, error) {
	out := make([]ir.Expr, 0, len(es))
	for _, e := range es {
		x, err := toExpr(e)
		if err != nil {
			return nil, err
		}
		out = append(out, x)
	}
	return out, nil
}

func toExpr(e *Expr) (ir.Expr, error) {
	switch {
	case e.Int != nil:
		return &ir.Literal{Kind: ir.LitInt, Value: *e.Int}, nil
	case e.Bool != "":
		return &ir.Literal{Kind: ir.LitBool, Value: e.Bool == "true"}, nil
	case e.Null != "":
		return &ir.Literal{Kind: ir.LitNull, Value: nil}, nil
	case e.Result != "":
		return &ir.Result{}, nil
	case e.RVar != nil:
		return &ir.ResultVar{Name: e.RVar.Name}, nil
	case e.Op != nil:
		return toOpExpr(e.Op)
	case e.Var != "":
		return &ir.Var{Name: e.Var}, nil
	default:
		return nil, fmt.Errorf("irtext: empty Expr at %v", e.Pos)
	}
}

func toOpExpr(o *OpExpr) (ir.Expr, error) {
	switch {
	case o.Binary != nil:
		left, err := toExpr(o.Binary.Left)
		if err != nil {
			return nil, err
		}
		right, err := toExpr(o.Binary.Right)
		if err != nil {
			return nil, err
		}
		return &ir.Binary{Op: o.Binary.Op, Left: left, Right: right}, nil

	case o.Unary != nil:
		operand, err := toExpr(o.Unary.Operand)
		if err != nil {
			return nil, err
		}
		return &ir.Unary{Op: o.Unary.Op, Operand: operand}, nil

	case o.Field != nil:
		root, err := toExpr(o.Field.Root)
		if err != nil {
			return nil, err
		}
		return &ir.Field{Root: root, Struct: o.Field.Struct, Field: o.Field.Field}, nil

	case o.Deref != nil:
		operand, err := toExpr(o.Deref.Operand)
		if err != nil {
			return nil, err
		}
		return &ir.Deref{Operand: operand}, nil

	case o.Cond != nil:
		c, err := toExpr(o.Cond.C)
		if err != nil {
			return nil, err
		}
		t, err := toExpr(o.Cond.T)
		if err != nil {
			return nil, err
		}
		f, err := toExpr(o.Cond.F)
		if err != nil {
			return nil, err
		}
		return &ir.Conditional{Cond: c, Then: t, Else: f}, nil

	case o.Acc != nil:
		root, err := toExpr(o.Acc.Root)
		if err != nil {
			return nil, err
		}
		return &ir.Accessibility{Root: root, Struct: o.Acc.Struct, Field: o.Acc.Field}, nil

	case o.Pred != nil:
		args, err := toExprs(o.Pred.Args)
		if err != nil {
			return nil, err
		}
		return &ir.PredicateInstance{Name: o.Pred.Name, Args: args}, nil

	case o.Imprecise != nil:
		var inner ir.Expr
		if o.Imprecise.Inner != nil {
			var err error
			inner, err = toExpr(o.Imprecise.Inner)
			if err != nil {
				return nil, err
			}
		}
		return &ir.Imprecise{Inner: inner}, nil

	default:
		return nil, fmt.Errorf("irtext: empty OpExpr at %v", o.Pos)
	}
}
