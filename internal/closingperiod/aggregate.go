package closingperiod

import (
	"sort"

	"github.com/shopspring/decimal"
)

// counter keeps labels in first-seen order.
type counter struct {
	index  map[string]int
	labels []string
	counts []int
}

func newCounter() *counter {
	return &counter{index: map[string]int{}}
}

func (c *counter) add(label string) {
	i, ok := c.index[label]
	if !ok {
		i = len(c.labels)
		c.index[label] = i
		c.labels = append(c.labels, label)
		c.counts = append(c.counts, 0)
	}
	c.counts[i]++
}

func (c *counter) series() CountSeries {
	return CountSeries{
		Labels: append([]string{}, c.labels...),
		Data:   append([]int{}, c.counts...),
	}
}

// summer keeps labels in first-seen order.
type summer struct {
	index  map[string]int
	labels []string
	sums   []decimal.Decimal
}

func newSummer() *summer {
	return &summer{index: map[string]int{}}
}

func (s *summer) add(label string, value decimal.Decimal) {
	i, ok := s.index[label]
	if !ok {
		i = len(s.labels)
		s.index[label] = i
		s.labels = append(s.labels, label)
		s.sums = append(s.sums, decimal.Zero)
	}
	s.sums[i] = s.sums[i].Add(value)
}

func (s *summer) series() ValueSeries {
	return ValueSeries{
		Labels: append([]string{}, s.labels...),
		Data:   append([]decimal.Decimal{}, s.sums...),
	}
}

// top returns the n largest sums, descending. Equal sums keep first-seen order.
func (s *summer) top(n int) ValueSeries {
	order := make([]int, len(s.labels))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return s.sums[order[a]].GreaterThan(s.sums[order[b]])
	})
	if len(order) > n {
		order = order[:n]
	}

	out := ValueSeries{
		Labels: make([]string, 0, len(order)),
		Data:   make([]decimal.Decimal, 0, len(order)),
	}
	for _, i := range order {
		out.Labels = append(out.Labels, s.labels[i])
		out.Data = append(out.Data, s.sums[i])
	}
	return out
}
