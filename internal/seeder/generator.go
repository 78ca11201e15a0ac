package seeder

import (
	"fmt"
	"math/rand"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/strayaid-systems/strayaid/internal/models"
)

// conditions weighted towards the common street cases.
var conditionPool = []string{
	models.ConditionStray, models.ConditionStray, models.ConditionStray,
	models.ConditionAbandoned, models.ConditionAbandoned,
	models.ConditionInjured, models.ConditionInjured,
	models.ConditionSick,
	models.ConditionTrapped,
	models.ConditionPoisoned,
	models.ConditionPregnant,
}

var urgencyPool = []string{
	models.UrgencyLow, models.UrgencyMedium, models.UrgencyMedium,
	models.UrgencyHigh, models.UrgencyHigh, models.UrgencyCritical,
}

var descriptions = []string{
	"Dog limping near the market entrance, looks hurt",
	"Small puppy alone under a parked car for two days",
	"Stray dog with a wound on its hind leg",
	"Dog trapped behind construction fencing, can't get out",
	"Very thin dog, barely moving, might be sick",
	"Pregnant stray sheltering near the bus stop",
	"Dog hit by a scooter, lying by the roadside",
	"Abandoned dog tied to a gate, no owner around",
}

// GenerateReport creates one fake report around the given city center.
// Roughly a tenth of reports come in with only a street address.
func GenerateReport(centerLat, centerLon float64) *models.SubmitReportRequest {
	req := &models.SubmitReportRequest{
		Description:    descriptions[rand.Intn(len(descriptions))],
		Condition:      conditionPool[rand.Intn(len(conditionPool))],
		Urgency:        urgencyPool[rand.Intn(len(urgencyPool))],
		ContactNumber:  gofakeit.Phone(),
		AdditionalInfo: gofakeit.Sentence(8),
	}

	if rand.Float64() < 0.9 {
		lat := centerLat + (rand.Float64()-0.5)*0.2
		lon := centerLon + (rand.Float64()-0.5)*0.2
		req.Latitude = &lat
		req.Longitude = &lon
	} else {
		req.Address = gofakeit.Street() + ", " + gofakeit.City()
	}

	if rand.Float64() < 0.3 {
		req.Photos = []string{fmt.Sprintf("blob://%s", gofakeit.UUID())}
	}
	return req
}

// GenerateResponders creates a fake responder directory around a city center,
// for feeding a stub directory endpoint in development.
func GenerateResponders(n int, centerLat, centerLon float64) []*models.Responder {
	responders := make([]*models.Responder, 0, n)
	for i := 0; i < n; i++ {
		role := models.RoleNGO
		if rand.Float64() < 0.35 {
			role = models.RoleVeterinarian
		}

		areas := make([]models.ServiceArea, 1+rand.Intn(2))
		for j := range areas {
			areas[j] = models.ServiceArea{
				Latitude:  centerLat + (rand.Float64()-0.5)*0.3,
				Longitude: centerLon + (rand.Float64()-0.5)*0.3,
				RadiusKm:  3 + rand.Float64()*12,
			}
		}

		responders = append(responders, &models.Responder{
			ID:           gofakeit.UUID(),
			Name:         gofakeit.Company(),
			Role:         role,
			Available:    rand.Float64() < 0.8,
			ServiceAreas: areas,
		})
	}
	return responders
}
