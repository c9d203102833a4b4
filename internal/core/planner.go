package core

import (
	"context"
	"fmt"
	"strings"
)

// Fixed vocabulary for irrigation plan requests.
var (
	Crops = []string{
		"Rice", "Wheat", "Maize", "Sugarcane", "Cotton",
		"Soybean", "Potato", "Tomato", "Onion", "Mustard",
	}
	SoilTypes = []string{
		"Alluvial Soil", "Black Soil", "Red and Yellow Soil", "Laterite Soil",
		"Arid Soil", "Saline Soil", "Peaty and Marshy Soil", "Forest Soil",
	}
	WeatherConditions = []string{"Sunny", "Cloudy", "Rainy"}
)

type PlanRequest struct {
	Crop     string `json:"crop"`
	AgeDays  int    `json:"age_days"`
	Soil     string `json:"soil"`
	Weather  string `json:"weather"`
	Language string `json:"language"`
}

func (r *PlanRequest) Validate() error {
	if !contains(Crops, r.Crop) {
		return fmt.Errorf("unknown crop %q", r.Crop)
	}
	if !contains(SoilTypes, r.Soil) {
		return fmt.Errorf("unknown soil type %q", r.Soil)
	}
	if !contains(WeatherConditions, r.Weather) {
		return fmt.Errorf("unknown weather condition %q", r.Weather)
	}
	if r.AgeDays < 1 {
		return fmt.Errorf("crop age must be at least 1 day")
	}
	if strings.TrimSpace(r.Language) == "" {
		r.Language = "English"
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// PlannerService generates irrigation plans through the gateway.
type PlannerService struct {
	gateway Gateway
	model   string
}

func NewPlannerService(gw Gateway, model string) *PlannerService {
	return &PlannerService{gateway: gw, model: model}
}

// StreamPlan validates the request, builds the plan prompt, and streams the
// generated plan fragments to onFragment.
func (s *PlannerService) StreamPlan(ctx context.Context, req PlanRequest, onFragment func(string)) error {
	if err := req.Validate(); err != nil {
		return err
	}
	return s.gateway.Stream(ctx, GenerateRequest{
		Prompt:  planPrompt(req),
		Options: GenerationOptions{Model: s.model},
	}, onFragment)
}

func planPrompt(req PlanRequest) string {
	return fmt.Sprintf(`You are an agricultural expert providing advice to Indian farmers. Your response must be in %s.

Create a detailed and practical irrigation plan for the following situation:
- Crop: %s
- Age of Crop: %d days
- Soil Type: %s
- Current Weather: %s

Your response should be easy to understand and formatted with the following sections using markdown-style bolding for titles:

**1. Irrigation Frequency:** How often should the farmer irrigate (e.g., every X days)?
**2. Water Amount:** How much water is needed per irrigation session (e.g., in inches, or liters per plant/area)? Be specific.
**3. Best Time to Irrigate:** What is the most effective time of day to water the crop?
**4. Key Considerations & Tips:** Provide 2-3 important tips specific to this crop, soil, and weather combination. For example, mention signs of over/under-watering or specific techniques.`,
		req.Language, req.Crop, req.AgeDays, req.Soil, req.Weather)
}
