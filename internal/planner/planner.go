package planner

import (
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/cimillas/seatplan/internal/domain"
)

const DefaultShuffleAttempts = 50

type category int

const (
	categoryMixed category = iota
	categoryFemale
	categoryMale
)

func (c category) String() string {
	switch c {
	case categoryFemale:
		return "female"
	case categoryMale:
		return "male"
	default:
		return "mixed"
	}
}

// orderings are every permutation of the three buckets, tried in this order.
var orderings = [6][3]category{
	{categoryMixed, categoryFemale, categoryMale},
	{categoryMixed, categoryMale, categoryFemale},
	{categoryFemale, categoryMixed, categoryMale},
	{categoryFemale, categoryMale, categoryMixed},
	{categoryMale, categoryMixed, categoryFemale},
	{categoryMale, categoryFemale, categoryMixed},
}

// Planner searches for a seating plan. It is safe for concurrent use.
type Planner struct {
	layout          domain.Layout
	band            domain.RatioBand
	shuffleAttempts int
	strictCapacity  bool

	mu  sync.Mutex
	rng *rand.Rand
}

type Option func(*Planner)

// WithRatioBand overrides the default female ratio band.
func WithRatioBand(b domain.RatioBand) Option {
	return func(p *Planner) {
		p.band = b
	}
}

// WithShuffleAttempts sets how many random orderings are tried after the
// deterministic ones. Negative values are ignored.
func WithShuffleAttempts(n int) Option {
	return func(p *Planner) {
		if n >= 0 {
			p.shuffleAttempts = n
		}
	}
}

// WithSeed makes the random phase reproducible.
func WithSeed(seed uint64) Option {
	return func(p *Planner) {
		p.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// WithStrictCapacity rejects any packing that leaves a group unplaced.
func WithStrictCapacity() Option {
	return func(p *Planner) {
		p.strictCapacity = true
	}
}

func New(layout domain.Layout, opts ...Option) *Planner {
	p := &Planner{
		layout:          layout,
		band:            domain.DefaultRatioBand(),
		shuffleAttempts: DefaultShuffleAttempts,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.rng == nil {
		p.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return p
}

// Budget is the maximum number of packings Plan tries.
func (p *Planner) Budget() int {
	return len(orderings) + p.shuffleAttempts
}

func (p *Planner) Band() domain.RatioBand { return p.band }

// Plan packs the pool around already occupied slots. It returns the first
// packing that seats at least one person with a female ratio inside the band,
// or *domain.UnsatisfiableError once the budget is spent.
func (p *Planner) Plan(pool Pool, occupied []domain.Slot) (domain.Plan, error) {
	if pool.Size() == 0 {
		return domain.Plan{}, domain.ErrNoCandidates
	}
	free := newFreeSeats(p.layout, occupied)
	attempts := 0

	for _, order := range orderings {
		attempts++
		groups := pool.concat(order)
		if res, ok := p.try(free, groups); ok {
			return res.plan(orderName(order), attempts), nil
		}
	}

	combined := pool.concat(orderings[0])
	for i := 0; i < p.shuffleAttempts; i++ {
		attempts++
		p.shuffle(combined)
		if res, ok := p.try(free, combined); ok {
			return res.plan("shuffle", attempts), nil
		}
	}

	d := pool.Demographics()
	return domain.Plan{}, &domain.UnsatisfiableError{
		FemaleCount:      d.Female,
		MaleCount:        d.Male,
		Total:            d.Total(),
		FemalePercentage: d.FemaleRatio() * 100,
		TargetRange:      p.band,
		Attempts:         attempts,
	}
}

func (p *Planner) try(free freeSeats, groups []domain.CohesionGroup) (packResult, bool) {
	res := pack(p.layout, free, groups)
	if res.summary.Total() == 0 {
		return res, false
	}
	if p.strictCapacity && len(res.unplaced) > 0 {
		return res, false
	}
	return res, p.band.Contains(res.summary.FemaleRatio())
}

func (p *Planner) shuffle(groups []domain.CohesionGroup) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rng.Shuffle(len(groups), func(i, j int) {
		groups[i], groups[j] = groups[j], groups[i]
	})
}

func (r packResult) plan(ordering string, attempts int) domain.Plan {
	return domain.Plan{
		Placements: r.placements,
		Unplaced:   r.unplaced,
		Summary:    r.summary,
		Ordering:   ordering,
		Attempts:   attempts,
	}
}

func (p Pool) concat(order [3]category) []domain.CohesionGroup {
	out := make([]domain.CohesionGroup, 0, len(p.Female)+len(p.Male)+len(p.Mixed))
	for _, c := range order {
		switch c {
		case categoryFemale:
			out = append(out, p.Female...)
		case categoryMale:
			out = append(out, p.Male...)
		default:
			out = append(out, p.Mixed...)
		}
	}
	return out
}

func orderName(order [3]category) string {
	parts := make([]string, len(order))
	for i, c := range order {
		parts[i] = c.String()
	}
	return strings.Join(parts, "-")
}
