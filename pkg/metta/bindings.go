package metta

// Bindings maps variable names to the atoms they are bound to.
type Bindings map[string]Atom

// walk follows variable chains until an unbound variable or a non-variable.
func (b Bindings) walk(a Atom) Atom {
	for {
		v, ok := a.(Variable)
		if !ok {
			return a
		}
		next, bound := b[v.Name]
		if !bound {
			return a
		}
		a = next
	}
}

func (b Bindings) occurs(name string, a Atom) bool {
	switch x := b.walk(a).(type) {
	case Variable:
		return x.Name == name
	case Expression:
		for _, c := range x.Children {
			if b.occurs(name, c) {
				return true
			}
		}
	}
	return false
}

// Unify extends b so that x and y become equal, reporting success.
// On failure b may contain partial bindings and should be discarded.
func Unify(x, y Atom, b Bindings) bool {
	x, y = b.walk(x), b.walk(y)

	if vx, ok := x.(Variable); ok {
		if vy, ok := y.(Variable); ok && vx.Name == vy.Name {
			return true
		}
		if b.occurs(vx.Name, y) {
			return false
		}
		b[vx.Name] = y
		return true
	}
	if vy, ok := y.(Variable); ok {
		if b.occurs(vy.Name, x) {
			return false
		}
		b[vy.Name] = x
		return true
	}

	ex, okx := x.(Expression)
	ey, oky := y.(Expression)
	if okx || oky {
		if !okx || !oky || len(ex.Children) != len(ey.Children) {
			return false
		}
		for i := range ex.Children {
			if !Unify(ex.Children[i], ey.Children[i], b) {
				return false
			}
		}
		return true
	}
	return Equal(x, y)
}

// Apply substitutes every bound variable in a.
func (b Bindings) Apply(a Atom) Atom {
	switch x := b.walk(a).(type) {
	case Expression:
		children := make([]Atom, len(x.Children))
		for i, c := range x.Children {
			children[i] = b.Apply(c)
		}
		return Expression{Children: children}
	default:
		return x
	}
}

// Clone returns an independent copy.
func (b Bindings) Clone() Bindings {
	c := make(Bindings, len(b))
	for k, v := range b {
		c[k] = v
	}
	return c
}

// renameVars gives every variable in a a fresh suffix so that rules stored in
// a space never capture variables of the query.
func renameVars(a Atom, suffix string) Atom {
	switch x := a.(type) {
	case Variable:
		return Variable{Name: x.Name + suffix}
	case Expression:
		children := make([]Atom, len(x.Children))
		for i, c := range x.Children {
			children[i] = renameVars(c, suffix)
		}
		return Expression{Children: children}
	}
	return a
}
