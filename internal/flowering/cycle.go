package flowering

import "time"

// Status is the stage a flowering cycle has reached
type Status string

const (
	StatusDeveloping  Status = "developing"
	StatusFemalePhase Status = "female_phase"
	StatusMalePhase   Status = "male_phase"
	StatusPollinated  Status = "pollinated"
	StatusSeeding     Status = "seeding"
	StatusClosed      Status = "closed"
)

// PhaseMarks are the recorded markers a status is derived from
type PhaseMarks struct {
	SpatheClose     *time.Time
	MaleEnd         *time.Time
	MaleStart       *time.Time
	FemaleStart     *time.Time
	PollenCollected bool
}

// DeriveStatus maps recorded markers onto a status. The most advanced marker
// wins: a closed spathe outranks everything, then the end and start of the
// male phase, then the female phase, then collected pollen.
func DeriveStatus(m PhaseMarks) Status {
	switch {
	case m.SpatheClose != nil:
		return StatusClosed
	case m.MaleEnd != nil:
		return StatusSeeding
	case m.MaleStart != nil:
		return StatusMalePhase
	case m.FemaleStart != nil:
		return StatusFemalePhase
	case m.PollenCollected:
		return StatusPollinated
	}
	return StatusDeveloping
}

// Record is a flowering cycle as it is logged, one optional date per marker
type Record struct {
	ID              string     `json:"id" yaml:"id"`
	SpatheEmergence *time.Time `json:"spatheEmergence" yaml:"spathe_emergence"`
	SpatheClose     *time.Time `json:"spatheClose" yaml:"spathe_close"`
	FemaleStart     *time.Time `json:"femaleStart" yaml:"female_start"`
	FemaleEnd       *time.Time `json:"femaleEnd" yaml:"female_end"`
	MaleStart       *time.Time `json:"maleStart" yaml:"male_start"`
	MaleEnd         *time.Time `json:"maleEnd" yaml:"male_end"`
	PollenCollected bool       `json:"pollenCollected" yaml:"pollen_collected"`
	PollinationDate *time.Time `json:"pollinationDate" yaml:"pollination_date"`
	Notes           string     `json:"notes" yaml:"notes"`
}

// Marks extracts the markers DeriveStatus looks at
func (r Record) Marks() PhaseMarks {
	return PhaseMarks{
		SpatheClose:     r.SpatheClose,
		MaleEnd:         r.MaleEnd,
		MaleStart:       r.MaleStart,
		FemaleStart:     r.FemaleStart,
		PollenCollected: r.PollenCollected,
	}
}

// Cycle is one flowering cycle as the predictor sees it
type Cycle struct {
	ID               string     `json:"id"`
	StartDate        time.Time  `json:"startDate"`
	EndDate          *time.Time `json:"endDate"`
	Status           Status     `json:"status"`
	FemalePhaseStart *time.Time `json:"femalePhaseStart"`
	FemalePhaseEnd   *time.Time `json:"femalePhaseEnd"`
	MalePhaseStart   *time.Time `json:"malePhaseStart"`
	MalePhaseEnd     *time.Time `json:"malePhaseEnd"`
	PollinationDate  *time.Time `json:"pollinationDate"`
	Notes            string     `json:"notes,omitempty"`
}

// Completed reports whether the cycle has finished. Only the closed status
// counts; an end date on a cycle still in an earlier phase is ignored.
func (c Cycle) Completed() bool {
	return c.Status == StatusClosed
}

// CycleFromRecord converts a logged record into a Cycle. The cycle starts at
// spathe emergence, or at the earliest marker when emergence was not logged,
// or at now when nothing was. A closed spathe ends the cycle.
func CycleFromRecord(r Record, now time.Time) Cycle {
	start := now
	switch {
	case r.SpatheEmergence != nil:
		start = *r.SpatheEmergence
	default:
		found := false
		for _, t := range []*time.Time{r.FemaleStart, r.FemaleEnd, r.MaleStart, r.MaleEnd, r.SpatheClose} {
			if t != nil && (!found || t.Before(start)) {
				start = *t
				found = true
			}
		}
	}

	return Cycle{
		ID:               r.ID,
		StartDate:        start,
		EndDate:          r.SpatheClose,
		Status:           DeriveStatus(r.Marks()),
		FemalePhaseStart: r.FemaleStart,
		FemalePhaseEnd:   r.FemaleEnd,
		MalePhaseStart:   r.MaleStart,
		MalePhaseEnd:     r.MaleEnd,
		PollinationDate:  r.PollinationDate,
		Notes:            r.Notes,
	}
}

// CyclesFromRecords converts every record with CycleFromRecord
func CyclesFromRecords(records []Record, now time.Time) []Cycle {
	cycles := make([]Cycle, len(records))
	for i, r := range records {
		cycles[i] = CycleFromRecord(r, now)
	}
	return cycles
}
