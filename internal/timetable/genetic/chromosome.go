package genetic

import (
	"github.com/LiezGoo/scheduling-system-sub000/internal/timetable/constraint"
)

// MaxFitness is the score of a timetable with zero recorded violations.
// Accumulated penalties subtract from it; fitness never goes below zero.
const MaxFitness = 1000

// Chromosome is one candidate timetable: an ordered gene list plus its
// fitness and per-instructor load aggregates.
type Chromosome struct {
	Genes   []constraint.Meeting
	Fitness int
	Loads   map[string]constraint.LoadSummary
}

// Clone returns a deep copy so elites survive mutation of the next
// generation untouched.
func (c *Chromosome) Clone() *Chromosome {
	genes := make([]constraint.Meeting, len(c.Genes))
	copy(genes, c.Genes)
	loads := make(map[string]constraint.LoadSummary, len(c.Loads))
	for id, load := range c.Loads {
		loads[id] = load
	}
	return &Chromosome{Genes: genes, Fitness: c.Fitness, Loads: loads}
}

// Population is a fixed-size chromosome set orderable by fitness, best
// first.
type Population []*Chromosome

func (p Population) Len() int           { return len(p) }
func (p Population) Swap(i, j int)      { p[i], p[j] = p[j], p[i] }
func (p Population) Less(i, j int) bool { return p[i].Fitness > p[j].Fitness }

// UnfilledRequirement records weekly hours construction could not place
// within its retry budget.
type UnfilledRequirement struct {
	SubjectID    string  `json:"subject_id"`
	MeetingType  string  `json:"meeting_type"`
	MissingHours float64 `json:"missing_hours"`
}

// ProgressFunc is invoked once per completed generation with a strictly
// increasing generation index and the best fitness seen so far.
type ProgressFunc func(generation, totalGenerations, bestFitness int)

// Result is the engine's final answer.
type Result struct {
	Best           *Chromosome
	Fitness        int
	Loads          map[string]constraint.LoadSummary
	GenerationsRun int
	Unfilled       []UnfilledRequirement
}
