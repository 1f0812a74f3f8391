package planner

import "github.com/cimillas/seatplan/internal/domain"

// Pool is the candidate set split into cohesion groups by composition.
type Pool struct {
	Female []domain.CohesionGroup
	Male   []domain.CohesionGroup
	Mixed  []domain.CohesionGroup
}

// Size returns the number of people in the pool.
func (p Pool) Size() int {
	n := 0
	for _, groups := range [][]domain.CohesionGroup{p.Female, p.Male, p.Mixed} {
		for _, g := range groups {
			n += g.Size()
		}
	}
	return n
}

// Demographics counts the pool's female and male members.
func (p Pool) Demographics() domain.Demographics {
	var d domain.Demographics
	for _, groups := range [][]domain.CohesionGroup{p.Female, p.Male, p.Mixed} {
		for _, g := range groups {
			f, m := g.Counts()
			d.Female += f
			d.Male += m
		}
	}
	return d
}

// Classify groups people by GroupID (a missing GroupID yields a group of one)
// and buckets each group by composition. Groups appear in the order their
// first member appears in people; members keep their input order.
func Classify(people []domain.Person) Pool {
	order := make([]string, 0, len(people))
	members := make(map[string][]domain.Person, len(people))
	for _, p := range people {
		key := groupKey(p)
		if _, ok := members[key]; !ok {
			order = append(order, key)
		}
		members[key] = append(members[key], p)
	}

	var pool Pool
	for _, key := range order {
		g := domain.CohesionGroup{Key: key, Members: members[key]}
		female, male := g.Counts()
		switch {
		case male == 0 && female == g.Size():
			pool.Female = append(pool.Female, g)
		case female == 0 && male == g.Size():
			pool.Male = append(pool.Male, g)
		default:
			pool.Mixed = append(pool.Mixed, g)
		}
	}
	return pool
}

func groupKey(p domain.Person) string {
	if p.GroupID != "" {
		return "group:" + p.GroupID
	}
	return "person:" + p.ID
}
