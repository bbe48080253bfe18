package flowering

import (
	"math"
	"sort"
	"time"

	"github.com/chrissnell/careforecast/pkg/timeseries"
)

// Plant is one plant's flowering history, used to plan cross-pollination
type Plant struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Cycles []Cycle `json:"cycles"`
}

// Partner is a pair of plants whose projected female phases overlap
type Partner struct {
	PlantAID     string    `json:"plantAId"`
	PlantAName   string    `json:"plantAName"`
	PlantBID     string    `json:"plantBId"`
	PlantBName   string    `json:"plantBName"`
	OverlapStart time.Time `json:"overlapStart"`
	OverlapEnd   time.Time `json:"overlapEnd"`
	OverlapDays  int       `json:"overlapDays"`
}

// FindPollinationPartners pairs up plants whose next female phases are
// projected to overlap. Pairs are ordered by overlap length, longest first;
// plants without a projected female phase are left out.
func (p *Predictor) FindPollinationPartners(plants []Plant, now time.Time) []Partner {
	type projected struct {
		plant  Plant
		female PhaseWindow
	}

	var candidates []projected
	for _, pl := range plants {
		pred := p.Predict(pl.Cycles, now)
		if f := pred.PredictedPhases.FemalePhase; f != nil {
			candidates = append(candidates, projected{plant: pl, female: *f})
		}
	}

	partners := []Partner{}
	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			a, b := candidates[i], candidates[j]
			start := a.female.Start
			if b.female.Start.After(start) {
				start = b.female.Start
			}
			end := a.female.End
			if b.female.End.Before(end) {
				end = b.female.End
			}
			if !start.Before(end) {
				continue
			}

			partners = append(partners, Partner{
				PlantAID:     a.plant.ID,
				PlantAName:   a.plant.Name,
				PlantBID:     b.plant.ID,
				PlantBName:   b.plant.Name,
				OverlapStart: start,
				OverlapEnd:   end,
				OverlapDays:  int(math.Round(timeseries.DaysBetween(start, end))),
			})
		}
	}

	sort.SliceStable(partners, func(i, j int) bool {
		return partners[i].OverlapDays > partners[j].OverlapDays
	})

	p.logger.Debugw("pollination partners", "plants", len(plants), "projected", len(candidates), "pairs", len(partners))
	return partners
}
