// Package gamification turns a count of read books into a reading level and
// a set of badges.
package gamification

import "fmt"

// Tier is a level bucket. A count belongs to the last tier whose Threshold it
// reaches; Next is the threshold of the following tier.
type Tier struct {
	Threshold int
	Next      int
	Name      string
}

var Tiers = []Tier{
	{0, 1, "Commencez votre aventure"},
	{1, 3, "Débutant"},
	{3, 5, "Novice"},
	{5, 10, "Amateur"},
	{10, 20, "Passionné"},
	{20, 30, "Expert"},
	{30, 40, "Maître"},
	{40, 999, "Légende"},
}

const (
	FinalLevelName = "Légende Littéraire"
	firstBookMsg   = "📚 Ajoutez votre premier livre pour commencer !"
	finalLevelMsg  = "🎉 Félicitations ! Vous avez atteint le niveau Légende Littéraire !"
)

type Level struct {
	Name     string `json:"name"`
	Percent  int    `json:"percent"`
	Message  string `json:"message"`
	NextName string `json:"nextName,omitempty"`
	NextAt   int    `json:"nextAt,omitempty"`
}

// TierFor returns the index of the tier count falls in.
func TierFor(count int) int {
	current := 0
	for i, tier := range Tiers {
		if count >= tier.Threshold {
			current = i
		}
	}
	return current
}

// ComputeLevel returns the level, progress towards the next tier and the
// message shown under the progress bar.
func ComputeLevel(count int) Level {
	idx := TierFor(count)
	tier := Tiers[idx]

	var next *Tier
	if idx+1 < len(Tiers) {
		next = &Tiers[idx+1]
	}

	percent := 100
	if next != nil && tier.Next > tier.Threshold {
		percent = (count - tier.Threshold) * 100 / (tier.Next - tier.Threshold)
		percent = min(100, max(0, percent))
	}

	level := Level{Name: tier.Name, Percent: percent}
	switch {
	case count == 0:
		level.Message = firstBookMsg
		if next != nil {
			level.NextName, level.NextAt = next.Name, tier.Next
		}
	case next != nil:
		level.NextName, level.NextAt = next.Name, tier.Next
		level.Message = fmt.Sprintf("%d/%d livres lus pour passer au niveau '%s' !", count, tier.Next, next.Name)
	default:
		level.Name = FinalLevelName
		level.Message = finalLevelMsg
	}
	return level
}
