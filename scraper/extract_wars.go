package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/switchlove/FragileCityScraper/models"
	"github.com/switchlove/FragileCityScraper/parser"
)

// ExtractWars pulls the wars list embedded in the index document. Entries
// missing either participant are dropped after queuing a warning; a bad
// missile count only warns.
func ExtractWars(doc *goquery.Document, baseURL string, diag *models.Diagnostics) []models.War {
	var wars []models.War
	doc.Find(".war-entry").Each(func(_ int, entry *goquery.Selection) {
		war := &models.War{}

		attacker := entry.Find("a.attacker").First()
		war.Attacker = strings.TrimSpace(attacker.Text())
		if href, ok := attacker.Attr("href"); ok {
			war.AttackerURL = absoluteURL(baseURL, href)
		}

		defender := entry.Find("a.defender").First()
		war.Defender = strings.TrimSpace(defender.Text())
		if href, ok := defender.Attr("href"); ok {
			war.DefenderURL = absoluteURL(baseURL, href)
		}

		if missiles, ok := parser.ExtractInteger(entry.Find(".missiles").Text()); ok {
			war.Missiles = &missiles
		}

		if parser.ValidateWar(war, diag) {
			wars = append(wars, *war)
		}
	})
	return wars
}

// EnrichWars stamps the active-participant flags once the run's city set is
// known. The extractor never sets these; they are a cross-page join owned
// by the orchestrator.
func EnrichWars(wars []models.War, activeCities map[string]struct{}) {
	for i := range wars {
		_, attackerActive := activeCities[wars[i].Attacker]
		_, defenderActive := activeCities[wars[i].Defender]
		wars[i].AttackerActive = attackerActive
		wars[i].DefenderActive = defenderActive
		wars[i].BothActive = attackerActive && defenderActive
	}
}
