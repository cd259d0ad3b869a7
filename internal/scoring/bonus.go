package scoring

// Belote/rebelote values. Under all-trump every suit carries its own king+queen
// pair, each worth less than the single trump pair of a suited contract.
const (
	BeloteBonus         = 20
	AllTrumpBeloteBonus = 10

	maxAllTrumpBelotes = 4
)

// Announcement is a declared sequence or square.
type Announcement string

const (
	Tierce     Announcement = "tierce"
	Quarte     Announcement = "quarte"
	Quinte     Announcement = "quinte"
	Carre      Announcement = "carre"
	CarreNines Announcement = "carre_nines"
	CarreJacks Announcement = "carre_jacks"
)

var announcementValues = map[Announcement]int{
	Tierce:     20,
	Quarte:     50,
	Quinte:     100,
	Carre:      100,
	CarreNines: 150,
	CarreJacks: 200,
}

// Value returns the points an announcement is worth.
func (a Announcement) Value() (int, bool) {
	v, ok := announcementValues[a]
	return v, ok
}

// BeloteBonuses credits each declaring side. With a single trump suit only one
// side can hold the pair and it earns a flat bonus; under all-trump each side
// earns the all-trump constant per declared pair.
func BeloteBonuses(t Topology, suit Suit, declarations map[Side]int) (map[Side]int, error) {
	bonus := zeroBySide(t)
	declaring := 0
	total := 0
	for side, count := range declarations {
		if !t.HasSide(side) {
			return nil, invalid(InvUnknownSide, "belote declared for unknown side %q", side)
		}
		if count < 0 {
			return nil, invalid(InvBeloteCount, "negative belote count for side %s", side)
		}
		if count == 0 {
			continue
		}
		declaring++
		total += count
		if suit == AllTrump {
			bonus[side] = count * AllTrumpBeloteBonus
		} else {
			bonus[side] = BeloteBonus
		}
	}
	if suit == AllTrump {
		if total > maxAllTrumpBelotes {
			return nil, invalid(InvBeloteCount, "%d belotes declared, at most %d exist", total, maxAllTrumpBelotes)
		}
	} else if declaring > 1 {
		return nil, invalid(InvBeloteMultipleSides, "only one side can hold king and queen of trump")
	}
	return bonus, nil
}

// AnnouncementBonuses totals declared announcements per side.
func AnnouncementBonuses(t Topology, enabled bool, declared map[Side][]Announcement) (map[Side]int, error) {
	bonus := zeroBySide(t)
	for side, list := range declared {
		if len(list) == 0 {
			continue
		}
		if !enabled {
			return nil, invalid(InvAnnouncementsDisabled, "announcements are disabled for this match")
		}
		if !t.HasSide(side) {
			return nil, invalid(InvUnknownSide, "announcement for unknown side %q", side)
		}
		for _, a := range list {
			v, ok := a.Value()
			if !ok {
				return nil, invalid(InvUnknownAnnouncement, "unknown announcement %q", a)
			}
			bonus[side] += v
		}
	}
	return bonus, nil
}

// Bonuses computes belote and announcement bonuses per side.
func Bonuses(rules Rules, suit Suit, belote map[Side]int, announcements map[Side][]Announcement) (total, beloteOnly map[Side]int, err error) {
	beloteOnly, err = BeloteBonuses(rules.Topology, suit, belote)
	if err != nil {
		return nil, nil, err
	}
	ann, err := AnnouncementBonuses(rules.Topology, rules.AnnouncementsEnabled, announcements)
	if err != nil {
		return nil, nil, err
	}
	total = zeroBySide(rules.Topology)
	for _, side := range rules.Topology.Sides() {
		total[side] = beloteOnly[side] + ann[side]
	}
	return total, beloteOnly, nil
}

func zeroBySide(t Topology) map[Side]int {
	m := make(map[Side]int, len(t.Sides()))
	for _, side := range t.Sides() {
		m[side] = 0
	}
	return m
}
