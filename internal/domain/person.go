package domain

type Gender string

const (
	GenderFemale Gender = "female"
	GenderMale   Gender = "male"
)

func (g Gender) Valid() bool {
	return g == GenderFemale || g == GenderMale
}

type PersonStatus string

const (
	PersonStatusCandidate PersonStatus = "candidate"
	PersonStatusSeated    PersonStatus = "seated"
)

func (s PersonStatus) Valid() bool {
	return s == PersonStatusCandidate || s == PersonStatusSeated
}

// Person is someone who can be seated. People are created by the import
// pipeline; the engine only reads them and flips Status.
type Person struct {
	ID     string
	Name   string
	Gender Gender
	// GroupID links people who attend together. Empty means the person
	// forms a group of one.
	GroupID string
	Status  PersonStatus
}

// CohesionGroup is a non-empty set of people that must share a block.
type CohesionGroup struct {
	Key     string
	Members []Person
}

func (g CohesionGroup) Size() int { return len(g.Members) }

// Counts returns the number of female and male members.
func (g CohesionGroup) Counts() (female, male int) {
	for _, p := range g.Members {
		switch p.Gender {
		case GenderFemale:
			female++
		case GenderMale:
			male++
		}
	}
	return female, male
}
