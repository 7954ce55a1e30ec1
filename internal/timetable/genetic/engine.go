package genetic

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/LiezGoo/scheduling-system-sub000/internal/models"
	"github.com/LiezGoo/scheduling-system-sub000/internal/timetable/constraint"
)

// Config governs the evolutionary search. Rates are probabilities in
// [0,1]. Days and the day window are explicit so nothing about the
// working week is baked into the engine.
type Config struct {
	PopulationSize int
	Generations    int
	MutationRate   float64
	CrossoverRate  float64
	EliteSize      int
	TournamentSize int
	RetryBudget    int
	Section        string
	Days           []int
	DayStart       int
	DayEnd         int
}

func (c *Config) applyDefaults() {
	if c.PopulationSize <= 0 {
		c.PopulationSize = 50
	}
	if c.Generations <= 0 {
		c.Generations = 100
	}
	// Zero is a valid rate (no mutation, no crossover); only negative
	// values mean unset.
	if c.MutationRate < 0 {
		c.MutationRate = 0.15
	}
	if c.CrossoverRate < 0 {
		c.CrossoverRate = 0.80
	}
	if c.EliteSize <= 0 {
		c.EliteSize = 5
	}
	if c.TournamentSize <= 0 {
		c.TournamentSize = 5
	}
	if c.RetryBudget <= 0 {
		c.RetryBudget = 50
	}
	if len(c.Days) == 0 {
		c.Days = []int{1, 2, 3, 4, 5, 6}
	}
	if c.DayStart <= 0 {
		c.DayStart = constraint.DayStartMinute
	}
	if c.DayEnd <= 0 {
		c.DayEnd = constraint.DayEndMinute
	}
}

var (
	lectureDurations = []float64{1, 1.5, 2, 3}
	labDurations     = []float64{2, 3}
)

// Engine runs the evolutionary timetable search. It is single-threaded
// and owns no shared state beyond its injected random source.
type Engine struct {
	cfg            Config
	rng            *rand.Rand
	logger         *zap.Logger
	subjects       []models.Subject
	instructors    []models.Instructor
	instructorByID map[string]models.Instructor
	rooms          []models.Room
	labRooms       []models.Room
}

// New builds an engine over the given reference data. The random source
// is injected so runs can be replayed deterministically in tests; a nil
// rng falls back to a time-seeded one.
func New(cfg Config, subjects []models.Subject, instructors []models.Instructor, rooms []models.Room, rng *rand.Rand, logger *zap.Logger) *Engine {
	cfg.applyDefaults()
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	byID := make(map[string]models.Instructor, len(instructors))
	for _, inst := range instructors {
		byID[inst.ID] = inst
	}
	var labRooms []models.Room
	for _, room := range rooms {
		if room.Type == models.RoomTypeLaboratory {
			labRooms = append(labRooms, room)
		}
	}
	return &Engine{
		cfg:            cfg,
		rng:            rng,
		logger:         logger,
		subjects:       subjects,
		instructors:    instructors,
		instructorByID: byID,
		rooms:          rooms,
		labRooms:       labRooms,
	}
}

// Run executes the full generation loop and returns the best chromosome
// ever seen. The best-of-generation is not monotonic, so a separate
// best-ever tracker is kept across generations.
func (e *Engine) Run(ctx context.Context, onProgress ProgressFunc) (*Result, error) {
	if len(e.instructors) == 0 {
		return nil, fmt.Errorf("engine requires at least one instructor")
	}
	if len(e.rooms) == 0 {
		return nil, fmt.Errorf("engine requires at least one room")
	}

	population := make(Population, 0, e.cfg.PopulationSize)
	for i := 0; i < e.cfg.PopulationSize; i++ {
		ch := e.construct()
		e.Evaluate(ch)
		population = append(population, ch)
	}
	sort.Sort(population)
	best := population[0].Clone()

	generationsRun := 0
	for gen := 0; gen < e.cfg.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		next := make(Population, 0, e.cfg.PopulationSize)
		for i := 0; i < e.cfg.EliteSize && i < len(population); i++ {
			next = append(next, population[i].Clone())
		}
		for len(next) < e.cfg.PopulationSize {
			parent1 := e.tournament(population)
			parent2 := e.tournament(population)
			child := e.crossover(parent1, parent2)
			e.mutate(child)
			e.Evaluate(child)
			next = append(next, child)
		}
		sort.Sort(next)
		population = next

		if population[0].Fitness > best.Fitness {
			best = population[0].Clone()
		}
		generationsRun++
		if onProgress != nil {
			onProgress(generationsRun, e.cfg.Generations, best.Fitness)
		}
	}

	e.logger.Debug("evolution finished",
		zap.Int("generations", generationsRun),
		zap.Int("best_fitness", best.Fitness),
		zap.Int("genes", len(best.Genes)),
	)

	return &Result{
		Best:           best,
		Fitness:        best.Fitness,
		Loads:          best.Loads,
		GenerationsRun: generationsRun,
		Unfilled:       e.unfilled(best),
	}, nil
}

// Evaluate scores a chromosome and refreshes its fitness and load
// aggregates. Loads are always recomputed from scratch from the genes.
func (e *Engine) Evaluate(ch *Chromosome) int {
	penalty := 0
	for i, gene := range ch.Genes {
		penalty += constraint.GenePenalty(gene, ch.Genes[:i], e.instructorByID)
	}

	loads := constraint.SumLoads(ch.Genes)
	for id, load := range loads {
		inst, ok := e.instructorByID[id]
		if !ok {
			continue
		}
		penalty += constraint.ValidateFacultyLoad(inst, load.LectureHours, load.LabHours).Penalty
	}

	byDay := make(map[string]map[int][]constraint.Meeting)
	for _, gene := range ch.Genes {
		if byDay[gene.InstructorID] == nil {
			byDay[gene.InstructorID] = make(map[int][]constraint.Meeting)
		}
		byDay[gene.InstructorID][gene.Day] = append(byDay[gene.InstructorID][gene.Day], gene)
	}
	for id, days := range byDay {
		for day, meetings := range days {
			for _, violation := range constraint.BreakViolations(id, day, meetings) {
				penalty += violation.Penalty
			}
		}
	}

	fitness := MaxFitness - penalty
	if fitness < 0 {
		fitness = 0
	}
	ch.Fitness = fitness
	ch.Loads = loads
	return fitness
}

// construct builds one chromosome by randomized placement. Each subject's
// lecture and lab requirements are filled independently.
func (e *Engine) construct() *Chromosome {
	ch := &Chromosome{Loads: make(map[string]constraint.LoadSummary)}
	for _, subject := range e.subjects {
		e.fillRequirement(ch, subject, constraint.MeetingLecture, subject.LectureHours)
		e.fillRequirement(ch, subject, constraint.MeetingLab, subject.LabHours)
	}
	return ch
}

// fillRequirement places meetings for one subject requirement until the
// hours are covered or the retry budget runs out. Exhausting the budget
// leaves the remainder unfilled; the shortfall surfaces in the result.
func (e *Engine) fillRequirement(ch *Chromosome, subject models.Subject, meetingType string, required float64) {
	remaining := required
	attempts := 0
	for remaining > 0 && attempts < e.cfg.RetryBudget {
		duration := e.pickDuration(meetingType, remaining)
		if duration <= 0 {
			break
		}
		inst := e.instructors[e.rng.Intn(len(e.instructors))]
		day := e.cfg.Days[e.rng.Intn(len(e.cfg.Days))]
		room, ok := e.pickRoom(meetingType)
		if !ok {
			break
		}
		start, end, ok := e.randomSlot(inst, duration)
		if !ok {
			attempts++
			continue
		}

		if constraint.RoomConflict(room.ID, day, start, end, ch.Genes) ||
			constraint.InstructorConflict(inst.ID, day, start, end, ch.Genes) ||
			constraint.SectionConflict(e.cfg.Section, day, start, end, ch.Genes) {
			attempts++
			continue
		}

		load := ch.Loads[inst.ID]
		lecture, lab := load.LectureHours, load.LabHours
		if meetingType == constraint.MeetingLab {
			lab += duration
		} else {
			lecture += duration
		}
		if check := constraint.ValidateFacultyLoad(inst, lecture, lab); !check.Valid {
			attempts++
			continue
		}

		ch.Genes = append(ch.Genes, constraint.Meeting{
			SubjectID:    subject.ID,
			InstructorID: inst.ID,
			RoomID:       room.ID,
			Day:          day,
			Start:        start,
			End:          end,
			Section:      e.cfg.Section,
			Type:         meetingType,
			Hours:        duration,
		})
		ch.Loads[inst.ID] = constraint.LoadSummary{LectureHours: lecture, LabHours: lab}
		remaining -= duration
	}
}

func (e *Engine) pickDuration(meetingType string, remaining float64) float64 {
	options := lectureDurations
	if meetingType == constraint.MeetingLab {
		options = labDurations
	}
	var candidates []float64
	for _, d := range options {
		if d <= remaining {
			candidates = append(candidates, d)
		}
	}
	if len(candidates) == 0 {
		return 0
	}
	return candidates[e.rng.Intn(len(candidates))]
}

func (e *Engine) pickRoom(meetingType string) (models.Room, bool) {
	pool := e.rooms
	if meetingType == constraint.MeetingLab {
		pool = e.labRooms
	}
	if len(pool) == 0 {
		return models.Room{}, false
	}
	return pool[e.rng.Intn(len(pool))], true
}

func (e *Engine) window(inst models.Instructor) (int, int) {
	if inst.SchemeStart == nil || inst.SchemeEnd == nil {
		return e.cfg.DayStart, e.cfg.DayEnd
	}
	return constraint.SchemeWindow(inst)
}

// randomSlot slices the instructor's working window into duration-sized
// increments and picks one uniformly.
func (e *Engine) randomSlot(inst models.Instructor, durationHours float64) (int, int, bool) {
	durMin := int(durationHours * 60)
	if durMin <= 0 {
		return 0, 0, false
	}
	winStart, winEnd := e.window(inst)
	slots := (winEnd - winStart) / durMin
	if slots <= 0 {
		return 0, 0, false
	}
	start := winStart + e.rng.Intn(slots)*durMin
	return start, start + durMin, true
}

func (e *Engine) tournament(population Population) *Chromosome {
	best := population[e.rng.Intn(len(population))]
	for i := 1; i < e.cfg.TournamentSize; i++ {
		candidate := population[e.rng.Intn(len(population))]
		if candidate.Fitness > best.Fitness {
			best = candidate
		}
	}
	return best
}

// crossover combines two parents at a single cut point inside the shorter
// parent's gene count. When crossover does not fire the offspring is a
// copy of the first parent.
func (e *Engine) crossover(parent1, parent2 *Chromosome) *Chromosome {
	minLen := len(parent1.Genes)
	if len(parent2.Genes) < minLen {
		minLen = len(parent2.Genes)
	}
	if minLen == 0 || e.rng.Float64() >= e.cfg.CrossoverRate {
		return parent1.Clone()
	}
	cut := e.rng.Intn(minLen)
	genes := make([]constraint.Meeting, 0, cut+len(parent2.Genes)-cut)
	genes = append(genes, parent1.Genes[:cut]...)
	genes = append(genes, parent2.Genes[cut:]...)
	return &Chromosome{Genes: genes}
}

// mutate perturbs each gene independently with the configured rate,
// applying one of four equally likely edits.
func (e *Engine) mutate(ch *Chromosome) {
	for i := range ch.Genes {
		if e.rng.Float64() >= e.cfg.MutationRate {
			continue
		}
		gene := &ch.Genes[i]
		switch e.rng.Intn(4) {
		case 0:
			gene.InstructorID = e.instructors[e.rng.Intn(len(e.instructors))].ID
		case 1:
			if room, ok := e.pickRoom(gene.Type); ok {
				gene.RoomID = room.ID
			}
		case 2:
			gene.Day = e.cfg.Days[e.rng.Intn(len(e.cfg.Days))]
		case 3:
			inst, ok := e.instructorByID[gene.InstructorID]
			if !ok {
				continue
			}
			if start, end, ok := e.randomSlot(inst, gene.Hours); ok {
				gene.Start = start
				gene.End = end
			}
		}
	}
}

// unfilled compares the best chromosome's scheduled hours against each
// subject requirement and reports shortfalls.
func (e *Engine) unfilled(best *Chromosome) []UnfilledRequirement {
	scheduled := make(map[string]float64)
	for _, gene := range best.Genes {
		scheduled[gene.SubjectID+"/"+gene.Type] += gene.Hours
	}
	var unfilled []UnfilledRequirement
	for _, subject := range e.subjects {
		for _, req := range []struct {
			meetingType string
			hours       float64
		}{
			{constraint.MeetingLecture, subject.LectureHours},
			{constraint.MeetingLab, subject.LabHours},
		} {
			missing := req.hours - scheduled[subject.ID+"/"+req.meetingType]
			if missing > 1e-9 {
				unfilled = append(unfilled, UnfilledRequirement{
					SubjectID:    subject.ID,
					MeetingType:  req.meetingType,
					MissingHours: missing,
				})
			}
		}
	}
	return unfilled
}
