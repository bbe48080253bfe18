package snapshot

import "github.com/chrissnell/careforecast/internal/care"

// document is the on-disk shape of a plant snapshot. Dates are kept as strings
// so one bad value can be skipped instead of failing the whole document.
type document struct {
	PlantID      string          `json:"plantId" yaml:"plant_id"`
	PlantName    string          `json:"plantName" yaml:"plant_name"`
	HealthStatus string          `json:"healthStatus" yaml:"health_status"`
	LastRepot    string          `json:"lastRepot" yaml:"last_repot"`
	Events       []eventDoc      `json:"events" yaml:"events"`
	Readings     []readingDoc    `json:"readings" yaml:"readings"`
	Environment  *environmentDoc `json:"environment" yaml:"environment"`
	Location     *locationDoc    `json:"location" yaml:"location"`
	Weather      *care.Weather   `json:"weather" yaml:"weather"`
	Rain         *rainDoc        `json:"precipitation" yaml:"precipitation"`
	Flowering    []cycleDoc      `json:"flowering" yaml:"flowering"`
}

type eventDoc struct {
	Date   string   `json:"date" yaml:"date"`
	Action string   `json:"action" yaml:"action"`
	ECIn   *float64 `json:"ecIn" yaml:"ec_in"`
	ECOut  *float64 `json:"ecOut" yaml:"ec_out"`
	PHIn   *float64 `json:"phIn" yaml:"ph_in"`
	PHOut  *float64 `json:"phOut" yaml:"ph_out"`
}

type readingDoc struct {
	Date  string   `json:"date" yaml:"date"`
	ECIn  *float64 `json:"ecIn" yaml:"ec_in"`
	ECOut *float64 `json:"ecOut" yaml:"ec_out"`
	PHIn  *float64 `json:"phIn" yaml:"ph_in"`
	PHOut *float64 `json:"phOut" yaml:"ph_out"`
}

type environmentDoc struct {
	Temperature     *float64 `json:"temperature" yaml:"temperature"`
	TemperatureUnit string   `json:"temperatureUnit" yaml:"temperature_unit"`
	Humidity        *float64 `json:"humidity" yaml:"humidity"`
	VPD             *float64 `json:"vpd" yaml:"vpd"`
	DLI             *float64 `json:"dli" yaml:"dli"`
	CO2             *float64 `json:"co2" yaml:"co2"`
}

type locationDoc struct {
	Outdoor   bool     `json:"outdoor" yaml:"outdoor"`
	Latitude  *float64 `json:"latitude" yaml:"latitude"`
	Longitude *float64 `json:"longitude" yaml:"longitude"`
}

type rainDoc struct {
	Last24hMM float64 `json:"last24hMm" yaml:"last_24h_mm"`
	Last48hMM float64 `json:"last48hMm" yaml:"last_48h_mm"`
}

type cycleDoc struct {
	ID              string `json:"id" yaml:"id"`
	SpatheEmergence string `json:"spatheEmergence" yaml:"spathe_emergence"`
	SpatheClose     string `json:"spatheClose" yaml:"spathe_close"`
	FemaleStart     string `json:"femaleStart" yaml:"female_start"`
	FemaleEnd       string `json:"femaleEnd" yaml:"female_end"`
	MaleStart       string `json:"maleStart" yaml:"male_start"`
	MaleEnd         string `json:"maleEnd" yaml:"male_end"`
	PollenCollected bool   `json:"pollenCollected" yaml:"pollen_collected"`
	PollinationDate string `json:"pollinationDate" yaml:"pollination_date"`
	Notes           string `json:"notes" yaml:"notes"`
}
