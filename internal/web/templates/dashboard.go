package templates

import "github.com/salvationministries/console/internal/core"

type cardGroup struct {
	Name  string
	Cards []core.DashboardCard
}

// groupCards splits cards into runs of the same resource group, keeping order.
func groupCards(cards []core.DashboardCard) []cardGroup {
	var groups []cardGroup
	for _, card := range cards {
		name := card.Def.Info.Group
		if n := len(groups); n > 0 && groups[n-1].Name == name {
			groups[n-1].Cards = append(groups[n-1].Cards, card)
			continue
		}
		groups = append(groups, cardGroup{Name: name, Cards: []core.DashboardCard{card}})
	}
	return groups
}
