package core

// Walk traverses an AST depth-first and calls fn for each node.
// If fn returns false, the children of that node are skipped.
// Implicit conversions are visited like any other expression.
func Walk(node Node, fn func(node Node) bool) {
	if node == nil || isNilNode(node) {
		return
	}
	if !fn(node) {
		return
	}
	walkNode(node, fn)
}

func walkExprs(exprs []Expr, fn func(Node) bool) {
	for _, e := range exprs {
		Walk(e, fn)
	}
}

func walkOrdering(items []*OrderByItem, limit *Limit, fn func(Node) bool) {
	for _, item := range items {
		Walk(item, fn)
	}
	if limit != nil {
		Walk(limit, fn)
	}
}

//nolint:gocyclo // one case per node type
func walkNode(node Node, fn func(Node) bool) {
	switch n := node.(type) {
	// Queries
	case *Select:
		for _, item := range n.Items {
			Walk(item, fn)
		}
		if n.Into != nil {
			Walk(n.Into, fn)
		}
		for _, from := range n.From {
			Walk(from, fn)
		}
		Walk(n.Where, fn)
		walkExprs(n.GroupBy, fn)
		Walk(n.Having, fn)
		walkOrdering(n.OrderBy, n.Limit, fn)
	case *SelectItem:
		Walk(n.Expr, fn)
	case *SetQuery:
		Walk(n.Left, fn)
		Walk(n.Right, fn)
		walkOrdering(n.OrderBy, n.Limit, fn)
	case *OrderByItem:
		Walk(n.Expr, fn)
	case *Limit:
		Walk(n.Count, fn)
		Walk(n.Offset, fn)

	// FROM
	case *TableName:
	case *DerivedTable:
		Walk(n.Query, fn)
	case *ProcTable:
		if n.Exec != nil {
			Walk(n.Exec, fn)
		}
	case *JoinExpr:
		Walk(n.Left, fn)
		Walk(n.Right, fn)
		Walk(n.On, fn)

	// Commands
	case *Insert:
		if n.Table != nil {
			Walk(n.Table, fn)
		}
		for _, c := range n.Columns {
			Walk(c, fn)
		}
		walkExprs(n.Values, fn)
		Walk(n.Query, fn)
	case *Update:
		if n.Table != nil {
			Walk(n.Table, fn)
		}
		for _, s := range n.Set {
			Walk(s.Column, fn)
			Walk(s.Value, fn)
		}
		Walk(n.Where, fn)
	case *Delete:
		if n.Table != nil {
			Walk(n.Table, fn)
		}
		Walk(n.Where, fn)
	case *Exec:
		for _, a := range n.Args {
			Walk(a.Value, fn)
		}
	case *CreateTemp:
		if n.Table != nil {
			Walk(n.Table, fn)
		}
	case *DropTemp:
		if n.Table != nil {
			Walk(n.Table, fn)
		}

	// Procedure language
	case *Block:
		for _, s := range n.Stmts {
			Walk(s, fn)
		}
	case *CreateProcedure:
		if n.Body != nil {
			Walk(n.Body, fn)
		}
	case *Declare:
		if n.Name != nil {
			Walk(n.Name, fn)
		}
		Walk(n.Init, fn)
	case *Assign:
		if n.Target != nil {
			Walk(n.Target, fn)
		}
		Walk(n.Value, fn)
	case *If:
		Walk(n.Cond, fn)
		if n.Then != nil {
			Walk(n.Then, fn)
		}
		Walk(n.Else, fn)
	case *Loop:
		Walk(n.Query, fn)
		if n.Body != nil {
			Walk(n.Body, fn)
		}
	case *While:
		Walk(n.Cond, fn)
		if n.Body != nil {
			Walk(n.Body, fn)
		}
	case *Break, *Continue:
	case *Raise:
		Walk(n.Expr, fn)
	case *ExecString:
		Walk(n.Expr, fn)
		for _, a := range n.Using {
			Walk(a.Value, fn)
		}

	// Expressions
	case *ColumnRef, *Literal:
	case *BinaryExpr:
		Walk(n.Left, fn)
		Walk(n.Right, fn)
	case *UnaryExpr:
		Walk(n.Expr, fn)
	case *FuncCall:
		walkExprs(n.Args, fn)
	case *CaseExpr:
		Walk(n.Operand, fn)
		for _, w := range n.Whens {
			Walk(w.Cond, fn)
			Walk(w.Result, fn)
		}
		Walk(n.Else, fn)
	case *CastExpr:
		Walk(n.Expr, fn)
	case *InExpr:
		Walk(n.Expr, fn)
		walkExprs(n.Values, fn)
		Walk(n.Query, fn)
	case *BetweenExpr:
		Walk(n.Expr, fn)
		Walk(n.Low, fn)
		Walk(n.High, fn)
	case *IsNullExpr:
		Walk(n.Expr, fn)
	case *LikeExpr:
		Walk(n.Expr, fn)
		Walk(n.Pattern, fn)
	case *ParenExpr:
		Walk(n.Expr, fn)
	case *SubqueryExpr:
		Walk(n.Query, fn)
	case *ExistsExpr:
		Walk(n.Query, fn)
	}
}

// isNilNode reports typed nil pointers stored in a Node interface.
func isNilNode(node Node) bool {
	switch n := node.(type) {
	case *Select:
		return n == nil
	case *SetQuery:
		return n == nil
	case *Exec:
		return n == nil
	case *Block:
		return n == nil
	case *TableName:
		return n == nil
	case *ColumnRef:
		return n == nil
	case *Limit:
		return n == nil
	}
	return false
}

// ColumnRefs returns every column reference under node in source order.
func ColumnRefs(node Node) []*ColumnRef {
	var refs []*ColumnRef
	Walk(node, func(n Node) bool {
		switch c := n.(type) {
		case *ColumnRef:
			refs = append(refs, c)
		case *SelectItem:
			refs = append(refs, c.Expanded...)
		}
		return true
	})
	return refs
}
