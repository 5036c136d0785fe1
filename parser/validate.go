package parser

import (
	"fmt"
	"strings"

	"github.com/switchlove/FragileCityScraper/models"
)

// ValidateCity checks a city-list row. It returns false only when an
// identifying field is missing, in which case the caller drops the record.
// Every other defect is queued as a warning and the record is kept; partial
// data beats data loss.
func ValidateCity(city *models.CityListing, diag *models.Diagnostics) bool {
	if city == nil {
		return false
	}
	if strings.TrimSpace(city.Name) == "" || city.URL == "" || city.Pollution == nil || city.Citizens == nil {
		diag.Warn(models.WarnInvalidCityData,
			"city row missing name, url, pollution, or citizens",
			city.Name)
		return false
	}
	if *city.Citizens < 0 {
		diag.Warn(models.WarnInvalidCityData,
			fmt.Sprintf("negative citizen count %d", *city.Citizens),
			city.Name)
	}
	return true
}

// ValidateWar requires both participant names and URLs; the missile count
// only warns when absent or negative.
func ValidateWar(war *models.War, diag *models.Diagnostics) bool {
	if war == nil {
		return false
	}
	if strings.TrimSpace(war.Attacker) == "" || war.AttackerURL == "" ||
		strings.TrimSpace(war.Defender) == "" || war.DefenderURL == "" {
		diag.Warn(models.WarnInvalidWarData,
			"war entry missing attacker or defender identity",
			war.Attacker+" vs "+war.Defender)
		return false
	}
	if war.Missiles == nil {
		diag.Warn(models.WarnInvalidWarData, "missile count not parseable", war.Attacker+" vs "+war.Defender)
	} else if *war.Missiles < 0 {
		diag.Warn(models.WarnInvalidWarData,
			fmt.Sprintf("negative missile count %d", *war.Missiles),
			war.Attacker+" vs "+war.Defender)
	}
	return true
}

// ValidateCityDetail requires only the city name. Missing sub-sections are
// reported as incomplete but never suppress the record: a thin snapshot is
// still a snapshot.
func ValidateCityDetail(detail *models.CityDetail, diag *models.Diagnostics) bool {
	if detail == nil {
		return false
	}
	if strings.TrimSpace(detail.Name) == "" {
		diag.Warn(models.WarnInvalidCityDetails, "city detail missing name", detail.URL)
		return false
	}
	if detail.Failed() {
		return true
	}
	if detail.Citizens == nil {
		diag.Warn(models.WarnInvalidCityDetails, "citizen count not found", detail.Name)
	}
	var missing []string
	if len(detail.Stats) == 0 {
		missing = append(missing, "stats")
	}
	if len(detail.JobLevels) == 0 {
		missing = append(missing, "job levels")
	}
	if len(detail.Resources) == 0 {
		missing = append(missing, "resources")
	}
	if len(detail.Buildings) == 0 {
		missing = append(missing, "buildings")
	}
	if len(missing) > 0 {
		diag.Warn(models.WarnIncompleteCityDetails,
			"empty sections: "+strings.Join(missing, ", "),
			detail.Name)
	}
	return true
}
