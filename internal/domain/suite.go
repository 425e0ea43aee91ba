package domain

// SuiteQuery is a single named SQL statement inside a suite.
type SuiteQuery struct {
	Name string
	SQL  string
}

// Suite is a named, ordered collection of benchmark queries (e.g. the TPC-H
// query set at a given scale factor).
type Suite struct {
	Name        string
	Description string
	Queries     []SuiteQuery
}

// Query returns the named query, or nil when the suite does not contain it.
func (s *Suite) Query(name string) *SuiteQuery {
	for i := range s.Queries {
		if s.Queries[i].Name == name {
			return &s.Queries[i]
		}
	}
	return nil
}
