package ioc

import (
	"sort"
	"strconv"

	"tile_iocgen/internal/device"
)

// assembleAggregate builds the one-file-per-controller payload. Members
// are already validated and consistent; record order is the input order.
func assembleAggregate(p Pipeline, key string, members []GroupMember) Payload {
	devices := make([]device.Record, 0, len(members))
	for _, m := range members {
		devices = append(devices, m.Record)
	}

	shared := make(map[string]string, len(SharedFields))
	for _, field := range SharedFields {
		shared[field] = members[0].Record.Field(field)
	}

	payload := Payload{
		Type:          p.Type,
		Template:      p.Template,
		Filename:      shared["ioc_name"] + ".cfg",
		ControllerKey: key,
		Devices:       devices,
		Shared:        shared,
	}
	if p.Type == TypeEk9000 {
		payload.Terminals = buildTerminals(members)
	}
	return payload
}

// assembleSingleton builds the one-file-per-record payload.
func assembleSingleton(p Pipeline, rec device.Record) Payload {
	return Payload{
		Type:     p.Type,
		Template: p.Template,
		Filename: rec.Field("ioc_name") + ".cfg",
		Devices:  []device.Record{rec},
	}
}

// buildTerminals derives the EK9000 bus-coupler slot map. Environmental
// monitors take the first three connections of the first card; explicit
// EL3174 channel records claim their own card/channel slots.
func buildTerminals(members []GroupMember) []Terminal {
	byCard := make(map[string]*Terminal)

	terminal := func(card string) *Terminal {
		t, ok := byCard[card]
		if !ok {
			t = &Terminal{Card: card, Type: "EL3174", Channels: "4", Slots: map[string]string{}}
			byCard[card] = t
		}
		return t
	}

	for _, m := range members {
		switch {
		case len(m.Subtype.FixedSlots) > 0:
			base := m.Record.Field("ioc_base")
			t := terminal("1")
			t.Slots["1"] = base + ":TEMP"
			t.Slots["2"] = base + ":PRESS"
			t.Slots["3"] = base + ":HUMID"
		default:
			t := terminal(m.Record.Field("ioc_card_num"))
			t.Slots[m.Record.Field("ioc_chan_num")] = m.Record.Field("ioc_alias")
		}
	}

	cards := make([]string, 0, len(byCard))
	for card := range byCard {
		cards = append(cards, card)
	}
	sort.Slice(cards, func(i, j int) bool {
		ci, errI := strconv.Atoi(cards[i])
		cj, errJ := strconv.Atoi(cards[j])
		if errI == nil && errJ == nil {
			return ci < cj
		}
		return cards[i] < cards[j]
	})

	out := make([]Terminal, 0, len(cards))
	for _, card := range cards {
		out = append(out, *byCard[card])
	}
	return out
}
