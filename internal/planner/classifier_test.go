package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cimillas/seatplan/internal/domain"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	t.Run("empty input yields empty buckets", func(t *testing.T) {
		pool := Classify(nil)
		assert.Empty(t, pool.Female)
		assert.Empty(t, pool.Male)
		assert.Empty(t, pool.Mixed)
		assert.Equal(t, 0, pool.Size())
	})

	t.Run("buckets groups by composition", func(t *testing.T) {
		people := []domain.Person{
			female("p1", ""),
			male("p2", "g1"),
			female("p3", "g1"),
			male("p4", ""),
			female("p5", "g2"),
			female("p6", "g2"),
			male("p7", "g3"),
			male("p8", "g3"),
		}

		pool := Classify(people)

		require.Len(t, pool.Female, 2)
		require.Len(t, pool.Male, 2)
		require.Len(t, pool.Mixed, 1)

		assert.Equal(t, []string{"p1"}, memberIDs(pool.Female[0]))
		assert.Equal(t, []string{"p5", "p6"}, memberIDs(pool.Female[1]))
		assert.Equal(t, []string{"p4"}, memberIDs(pool.Male[0]))
		assert.Equal(t, []string{"p7", "p8"}, memberIDs(pool.Male[1]))
		assert.Equal(t, []string{"p2", "p3"}, memberIDs(pool.Mixed[0]))
		assert.Equal(t, len(people), pool.Size())
	})

	t.Run("every person lands in exactly one group", func(t *testing.T) {
		people := []domain.Person{
			female("a", "x"), male("b", ""), female("c", "x"), female("d", ""), male("e", "y"),
		}
		pool := Classify(people)

		seen := map[string]int{}
		for _, groups := range [][]domain.CohesionGroup{pool.Female, pool.Male, pool.Mixed} {
			for _, g := range groups {
				require.NotEmpty(t, g.Members)
				for _, p := range g.Members {
					seen[p.ID]++
				}
			}
		}
		for _, p := range people {
			assert.Equal(t, 1, seen[p.ID], "person %s", p.ID)
		}
	})

	t.Run("demographics count members", func(t *testing.T) {
		pool := Classify([]domain.Person{female("a", ""), female("b", "g"), male("c", "g")})
		d := pool.Demographics()
		assert.Equal(t, 2, d.Female)
		assert.Equal(t, 1, d.Male)
	})
}

func female(id, group string) domain.Person {
	return domain.Person{ID: id, Gender: domain.GenderFemale, GroupID: group, Status: domain.PersonStatusCandidate}
}

func male(id, group string) domain.Person {
	return domain.Person{ID: id, Gender: domain.GenderMale, GroupID: group, Status: domain.PersonStatusCandidate}
}

func memberIDs(g domain.CohesionGroup) []string {
	ids := make([]string, 0, len(g.Members))
	for _, p := range g.Members {
		ids = append(ids, p.ID)
	}
	return ids
}
