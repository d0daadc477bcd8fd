package sanitizer

import (
	"strings"
	"unicode"

	"fleetsched/pkg/model"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

// TrimAndNormalize trims s and collapses every run of whitespace into one space.
func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		result.WriteRune(r)
		lastWasSpace = false
	}

	return result.String()
}

func removeSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// NormalizeObjectID lowercases a hex identifier and strips stray whitespace.
func NormalizeObjectID(id string) string {
	return Pipeline{removeSpaces, strings.ToLower}.Apply(id)
}

// NormalizeVehicleID uppercases a fleet vehicle identifier, "van 12" becomes "VAN 12".
func NormalizeVehicleID(id string) string {
	return Pipeline{TrimAndNormalize, strings.ToUpper}.Apply(id)
}

func CreateDeliveryRequest(req *model.CreateDeliveryRequest) {
	req.Customer = TrimAndNormalize(req.Customer)
	req.PickupAddress = TrimAndNormalize(req.PickupAddress)
	req.DeliveryAddress = TrimAndNormalize(req.DeliveryAddress)
}

func AssignRequest(req *model.AssignRequest) {
	req.DriverID = NormalizeObjectID(req.DriverID)
	req.VehicleID = NormalizeVehicleID(req.VehicleID)
}
