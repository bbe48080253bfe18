package forecast

import (
	"time"

	"github.com/chrissnell/careforecast/internal/flowering"
)

// Collection is the forecast for a group of plants grown together
type Collection struct {
	Plants   []Bundle            `json:"plants"`
	Partners []flowering.Partner `json:"pollinationPartners"`
	Status   Status              `json:"partnersStatus"`
}

// PredictCollection forecasts every snapshot and pairs up plants whose next
// female phases overlap. Plants are predicted one after another, each with
// its domains running concurrently. A failure while matching partners leaves
// the per-plant bundles intact.
func (o *Orchestrator) PredictCollection(snapshots []Snapshot, now time.Time) Collection {
	c := Collection{
		Plants:   make([]Bundle, 0, len(snapshots)),
		Partners: []flowering.Partner{},
	}

	plants := make([]flowering.Plant, 0, len(snapshots))
	for _, s := range snapshots {
		c.Plants = append(c.Plants, o.Predict(s, now))

		name := s.PlantName
		if name == "" {
			name = s.PlantID
		}
		plants = append(plants, flowering.Plant{ID: s.PlantID, Name: name, Cycles: s.Cycles})
	}

	res := run(o, DomainFlowering, func() []flowering.Partner {
		return o.flowering.FindPollinationPartners(plants, now)
	})
	c.Status = res.Status()
	if res.OK() && *res.Value != nil {
		c.Partners = *res.Value
	}

	o.logger.Debugw("collection forecast", "plants", len(c.Plants), "partners", len(c.Partners), "status", c.Status)
	return c
}
