package models

const (
	NutrientEnergy       = "열량"
	NutrientProtein      = "단백질"
	NutrientSodium       = "나트륨"
	NutrientSugar        = "당류"
	NutrientFat          = "지방"
	NutrientSaturatedFat = "포화지방"
)

type NutrientReading struct {
	Name       string   `json:"name" validate:"required,max=64"`
	Value      float64  `json:"value"`
	Unit       string   `json:"unit" validate:"max=16"`
	Percentage *float64 `json:"percentage,omitempty"`
}

// DailyRecords maps a YYYY-MM-DD key to the readings recorded on that day.
type DailyRecords map[string][]NutrientReading

type TrackedNutrient struct {
	Name string
	Code string
	Unit string
	Goal float64
}

var trackedNutrients = []TrackedNutrient{
	{Name: NutrientEnergy, Code: "energy", Unit: "kcal", Goal: 2000},
	{Name: NutrientProtein, Code: "protein", Unit: "g", Goal: 55},
	{Name: NutrientSodium, Code: "sodium", Unit: "mg", Goal: 2000},
	{Name: NutrientSugar, Code: "sugar", Unit: "g", Goal: 100},
	{Name: NutrientFat, Code: "fat", Unit: "g", Goal: 54},
	{Name: NutrientSaturatedFat, Code: "saturated_fat", Unit: "g", Goal: 15},
}

func TrackedNutrients() []TrackedNutrient {
	result := make([]TrackedNutrient, len(trackedNutrients))
	copy(result, trackedNutrients)
	return result
}

// TrackedNutrientNames returns the charted nutrient names in display order.
func TrackedNutrientNames() []string {
	names := make([]string, 0, len(trackedNutrients))
	for _, nutrient := range trackedNutrients {
		names = append(names, nutrient.Name)
	}
	return names
}

func LookupTrackedNutrient(nameOrCode string) (TrackedNutrient, bool) {
	for _, nutrient := range trackedNutrients {
		if nutrient.Name == nameOrCode || nutrient.Code == nameOrCode {
			return nutrient, true
		}
	}
	return TrackedNutrient{}, false
}

// DefaultGoals returns the fixed daily targets keyed by nutrient name.
func DefaultGoals() map[string]float64 {
	goals := make(map[string]float64, len(trackedNutrients))
	for _, nutrient := range trackedNutrients {
		goals[nutrient.Name] = nutrient.Goal
	}
	return goals
}

func DefaultUnit(name string) string {
	if nutrient, ok := LookupTrackedNutrient(name); ok {
		return nutrient.Unit
	}
	return ""
}
