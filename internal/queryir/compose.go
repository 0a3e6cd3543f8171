package queryir

// C is shorthand for a column reference.
func C(table, name string) Col {
	return Col{Table: table, Name: name}
}

// Int64 returns a pointer for Select.Limit and Select.Offset.
func Int64(n int64) *int64 {
	return &n
}

// AllOf conjoins predicates, dropping nil and True operands.
// No operands yields True; a single operand is returned as is.
func AllOf(preds ...Predicate) Predicate {
	kept := make([]Predicate, 0, len(preds))
	for _, p := range preds {
		if p == nil {
			continue
		}
		if _, ok := p.(True); ok {
			continue
		}
		kept = append(kept, p)
	}
	switch len(kept) {
	case 0:
		return True{}
	case 1:
		return kept[0]
	default:
		return And{Predicates: kept}
	}
}

// AnyOf disjoins predicates, dropping nil operands.
// No operands yields nil (no constraint); a single operand is returned as is,
// so a lone branch is never wrapped as "false OR x".
func AnyOf(preds ...Predicate) Predicate {
	kept := make([]Predicate, 0, len(preds))
	for _, p := range preds {
		if p != nil {
			kept = append(kept, p)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	default:
		return Or{Predicates: kept}
	}
}
