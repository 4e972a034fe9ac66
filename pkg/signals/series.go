package signals

import "github.com/ccollicutt/canplot/pkg/can"

// Series is the accumulated (index, value) points of one tracked signal.
// Indices and Values always have the same length.
type Series struct {
	Name    string      `json:"name"`
	Indices []int       `json:"indices"`
	Values  []can.Value `json:"values"`
}

// Len returns the number of points.
func (s *Series) Len() int {
	return len(s.Indices)
}

// Aggregator owns the series of every routed signal name.
type Aggregator struct {
	router *Router
	byName map[string]*Series
	order  []*Series
}

// NewAggregator creates an empty aggregator that keeps names accepted by router.
func NewAggregator(router *Router) *Aggregator {
	return &Aggregator{
		router: router,
		byName: make(map[string]*Series),
	}
}

// Add appends a point to the named series, creating it on first sight.
// Names rejected by the router are dropped; Add reports whether the point
// was kept.
func (a *Aggregator) Add(name string, index int, v can.Value) bool {
	if !a.router.Match(name) {
		return false
	}

	s, ok := a.byName[name]
	if !ok {
		s = &Series{Name: name}
		a.byName[name] = s
		a.order = append(a.order, s)
	}
	s.Indices = append(s.Indices, index)
	s.Values = append(s.Values, v)
	return true
}

// Lookup returns the named series.
func (a *Aggregator) Lookup(name string) (*Series, bool) {
	s, ok := a.byName[name]
	return s, ok
}

// Series returns all series in order of creation.
func (a *Aggregator) Series() []*Series {
	out := make([]*Series, len(a.order))
	copy(out, a.order)
	return out
}

// Len returns the number of series.
func (a *Aggregator) Len() int {
	return len(a.order)
}
