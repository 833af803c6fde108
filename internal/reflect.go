package internal

// InheritsFrom returns true if base is the root type, or if base appears in
// t's base chain starting with t itself.
func InheritsFrom(t, base *Type) bool {
	if base == ObjectType {
		return true
	}
	for c := t; c != nil; c = c.base {
		if c == base {
			return true
		}
	}
	return false
}

// Cast returns o viewed as an instance of t. The cast succeeds if o's type is
// t or inherits from t; otherwise the result is nil and false.
func Cast(o *Object, t *Type) (*Object, bool) {
	if o == nil {
		return nil, false
	}
	if o.typ == t || InheritsFrom(o.typ, t) {
		return o, true
	}
	return nil, false
}

// Member finds a member of the type's instance data by name.
func (t *Type) Member(name string) (Member, bool) {
	for _, m := range t.members {
		if m.Name == name {
			return m, true
		}
	}
	return Member{}, false
}

// Interface finds an interface by name that the type or one of its bases
// claims.
func (t *Type) Interface(name string) (*Interface, bool) {
	for c := t; c != nil; c = c.base {
		for _, iface := range c.ifaces {
			if iface.Name == name {
				return iface, true
			}
		}
	}
	return nil, false
}

// Implements returns true if the type or one of its bases claims iface.
func (t *Type) Implements(iface *Interface) bool {
	for c := t; c != nil; c = c.base {
		for _, i := range c.ifaces {
			if i == iface {
				return true
			}
		}
	}
	return false
}

// EnumValue finds an enum constant by name on the type or its bases.
func (t *Type) EnumValue(name string) (int64, bool) {
	for c := t; c != nil; c = c.base {
		for _, e := range c.enum {
			if e.Name == name {
				return e.Value, true
			}
		}
	}
	return 0, false
}

// EnumName finds the name of the first enum constant with the given value on
// the type or its bases.
func (t *Type) EnumName(value int64) (string, bool) {
	for c := t; c != nil; c = c.base {
		for _, e := range c.enum {
			if e.Value == value {
				return e.Name, true
			}
		}
	}
	return "", false
}
