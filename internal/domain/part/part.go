// Package part models a marketplace listing as the search pipeline sees it.
package part

// Category of a listed part.
type Category string

// Known categories. Unknown values are passed through untouched.
const (
	CategoryBattery     Category = "battery"
	CategoryMotor       Category = "motor"
	CategoryInverter    Category = "inverter"
	CategoryCharger     Category = "charger"
	CategoryElectronics Category = "electronics"
	CategoryBodyChassis Category = "body-chassis-frame"
	CategoryBodyPanel   Category = "body-panel"
	CategoryBodyDoor    Category = "body-door"
	CategoryBodyWindow  Category = "body-window"
	CategoryInterior    Category = "interior"
	CategoryOther       Category = "other"
)

// Part is a catalog record. JSON names match the stored records.
type Part struct {
	ID             string          `json:"partId"`
	Name           string          `json:"name"`
	Category       Category        `json:"category"`
	Manufacturer   string          `json:"manufacturer"`
	Model          string          `json:"model"`
	Year           int             `json:"year,omitempty"`
	Condition      string          `json:"condition,omitempty"`
	Price          float64         `json:"price"`
	Quantity       int             `json:"quantity"`
	SellerID       string          `json:"sellerId,omitempty"`
	Description    string          `json:"description,omitempty"`
	Images         []string        `json:"images,omitempty"`
	CreatedAt      string          `json:"createdAt,omitempty"`
	UpdatedAt      string          `json:"updatedAt,omitempty"`
	Specifications *Specifications `json:"specifications,omitempty"`
	BatteryHealth  *BatteryHealth  `json:"batteryHealth,omitempty"`
}

// Specifications groups the optional technical attributes.
type Specifications struct {
	Material   *MaterialComposition `json:"materialComposition,omitempty"`
	Electrical *ElectricalProps     `json:"electricalProps,omitempty"`
	Dimensions *Dimensions          `json:"dimensions,omitempty"`
	WeightKg   float64              `json:"weight,omitempty"`
}

// MaterialComposition describes what the part is made of.
// Zero mechanical properties mean "not measured".
type MaterialComposition struct {
	Primary            string             `json:"primary"`
	Secondary          []string           `json:"secondary,omitempty"`
	Percentage         map[string]float64 `json:"percentage,omitempty"`
	TensileStrengthMPa float64            `json:"tensileStrengthMPa,omitempty"`
	YieldStrengthMPa   float64            `json:"yieldStrengthMPa,omitempty"`
	ElasticModulusGPa  float64            `json:"elasticModulusGPa,omitempty"`
	ElongationPercent  float64            `json:"elongationPercent,omitempty"`
	AlloyNumber        string             `json:"alloyNumber,omitempty"` // e.g. "6061"
	Recyclability      float64            `json:"recyclability,omitempty"`
}

// ElectricalProps in SI-ish units: V, Ah, W, Ω.
type ElectricalProps struct {
	Voltage    float64 `json:"voltage,omitempty"`
	Capacity   float64 `json:"capacity,omitempty"`
	Power      float64 `json:"power,omitempty"`
	Current    float64 `json:"current,omitempty"`
	Resistance float64 `json:"resistance,omitempty"`
}

// Dimensions of the part.
type Dimensions struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Unit   string  `json:"unit"`
}

// Recommended second-life uses of a battery.
const (
	UseReuse   = "reuse"
	UseRecycle = "recycle"
	UseDispose = "dispose"
)

// CathodeOther marks an unknown cathode chemistry.
const CathodeOther = "Other"

// BatteryHealth is present on battery listings only.
type BatteryHealth struct {
	SOH                   float64  `json:"soh"`
	SOC                   float64  `json:"soc,omitempty"`
	CycleCount            int      `json:"cycleCount,omitempty"`
	EstimatedMileageKm    int      `json:"estimatedMileageKm,omitempty"`
	CathodeType           string   `json:"cathodeType"`
	RecommendedUse        string   `json:"recommendedUse,omitempty"`
	SuitableApplications  []string `json:"suitableApplications,omitempty"`
	VendorRecommendations []string `json:"vendorRecommendations,omitempty"`
}

// Projection is the trimmed view returned to buyers with every search result.
type Projection struct {
	Name         string   `json:"name"`
	Category     Category `json:"category"`
	Manufacturer string   `json:"manufacturer"`
	Model        string   `json:"model"`
	Price        float64  `json:"price"`
	Quantity     int      `json:"quantity"`
	Images       []string `json:"images"`
}

// Project returns the buyer-facing projection.
func (p *Part) Project() Projection {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return Projection{
		Name:         p.Name,
		Category:     p.Category,
		Manufacturer: p.Manufacturer,
		Model:        p.Model,
		Price:        p.Price,
		Quantity:     p.Quantity,
		Images:       images,
	}
}
