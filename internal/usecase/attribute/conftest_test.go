package attribute

import (
	"context"
	"time"

	"github.com/eecar/partsearch/internal/domain/part"
)

type fakeCatalog struct {
	parts []part.Part
	err   error
	calls int
	block bool
}

func (c *fakeCatalog) List(ctx context.Context) ([]part.Part, error) {
	c.calls++
	if c.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return c.parts, c.err
}

func fixedClock() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }

func inventory() []part.Part {
	return []part.Part{
		{
			ID: "frame-6061", Name: "아이오닉5 서브프레임", Category: part.CategoryBodyChassis, Manufacturer: "현대",
			Specifications: &part.Specifications{Material: &part.MaterialComposition{
				Primary: "알루미늄", AlloyNumber: "6061", TensileStrengthMPa: 310, YieldStrengthMPa: 276,
				ElasticModulusGPa: 68.9, Recyclability: 95,
				Percentage: map[string]float64{"Al": 97.9, "Mg": 1.0},
			}},
		},
		{
			ID: "frame-7075", Name: "모델3 크로스멤버", Category: part.CategoryBodyChassis, Manufacturer: "테슬라",
			Specifications: &part.Specifications{Material: &part.MaterialComposition{
				Primary: "알루미늄", AlloyNumber: "7075", TensileStrengthMPa: 572, YieldStrengthMPa: 503,
				ElasticModulusGPa: 71.7, Recyclability: 90,
				Percentage: map[string]float64{"Al": 90, "Zn": 5.6},
			}},
		},
		{
			ID: "door-steel", Name: "EV6 도어", Category: part.CategoryBodyDoor, Manufacturer: "기아",
			Specifications: &part.Specifications{Material: &part.MaterialComposition{
				Primary: "강철", TensileStrengthMPa: 340, Recyclability: 85,
			}},
		},
		{
			ID: "motor-1", Name: "EV6 구동 모터", Category: part.CategoryMotor, Manufacturer: "기아",
		},
		{
			ID: "pack-ncm", Name: "아이오닉5 배터리 팩", Category: part.CategoryBattery, Manufacturer: "현대", Year: 2022,
			BatteryHealth: &part.BatteryHealth{
				SOH: 92, CathodeType: "NCM", RecommendedUse: part.UseReuse, EstimatedMileageKm: 60000,
				SuitableApplications: []string{"EV 재사용", "ESS"},
			},
		},
		{
			ID: "pack-lfp", Name: "모델3 배터리 팩", Category: part.CategoryBattery, Manufacturer: "테슬라", Year: 2021,
			BatteryHealth: &part.BatteryHealth{
				SOH: 78, CathodeType: "LFP", RecommendedUse: part.UseReuse,
				SuitableApplications: []string{"ESS", "지게차"},
			},
		},
		{
			ID: "module-old", Name: "코나 배터리 모듈", Category: part.CategoryBattery, Manufacturer: "현대", Year: 2018,
		},
	}
}
