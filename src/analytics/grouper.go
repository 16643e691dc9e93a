package analytics

import (
	"sort"

	"strategydesk/src/model"
)

// GroupTrades partitions flat leg-level rows into per-trade groups. A
// multi-leg strategy produces one row per leg per trade and all legs of one
// trade share a trade number. Input order is not assumed; groups come back
// sorted by trade number ascending, while rows inside a group keep their
// input order — leg order is part of the engine's contract, not re-derived
// here. Rows without a usable trade number fall into trade 1.
func GroupTrades(records []model.TradeRecord) []model.TradeGroup {
	if len(records) == 0 {
		return []model.TradeGroup{}
	}

	byNumber := make(map[int][]model.TradeRecord)
	for _, rec := range records {
		number := rec.TradeNumber
		if number <= 0 {
			number = 1
		}
		byNumber[number] = append(byNumber[number], rec)
	}

	numbers := make([]int, 0, len(byNumber))
	for n := range byNumber {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	groups := make([]model.TradeGroup, 0, len(numbers))
	for _, n := range numbers {
		legs := byNumber[n]
		first := legs[0]

		group := model.TradeGroup{
			TradeNumber:     n,
			EntryDate:       first.EntryDate,
			ExitDate:        first.ExitDate,
			EntryUnderlying: first.EntryUnderlying,
			ExitUnderlying:  first.ExitUnderlying,
			Legs:            legs,
		}
		for _, leg := range legs {
			group.TotalPnl += leg.NetPnl
		}
		groups = append(groups, group)
	}

	return groups
}
