package expr

// FreeIdentifiers returns the set of distinct feature names referenced
// anywhere within e, used by the compiler to determine which features a
// guard depends on.
func FreeIdentifiers(e Expr) map[string]struct{} {
	out := make(map[string]struct{})
	collectIdents(e, out)
	return out
}

func collectIdents(e Expr, out map[string]struct{}) {
	switch n := e.(type) {
	case *NumberLit, *BoolLit:
		// no identifiers
	case *Ident:
		out[n.Name] = struct{}{}
	case *Unary:
		collectIdents(n.X, out)
	case *Binary:
		collectIdents(n.X, out)
		collectIdents(n.Y, out)
	}
}
