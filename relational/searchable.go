package relational

// Searchable is a Relational that can start queries from itself. Embed it
// instead of Relational to give a host Find, Has and Assert methods.
type Searchable struct {
	Relational
}

// Find starts a query from the host. The host must have been applied.
func (s *Searchable) Find() *FindQuery {
	return Find(s.host())
}

// Has starts a presence query from the host.
func (s *Searchable) Has() *HasQuery {
	return Has(s.host())
}

// Assert starts an asserting query from the host.
func (s *Searchable) Assert(message ...string) *AssertQuery {
	return Assert(s.host(), message...)
}

func (s *Searchable) host() Node {
	if s.self == nil {
		panic(newStructureError("", "query started from a node that has not been applied"))
	}
	return s.self
}
