package dexscreener

import "strings"

// sampleProfiles bounds the per-cycle candidate set to max. In fair
// mode candidates are drawn round-robin across chain partitions so a
// single high-volume chain cannot monopolize the cycle's budget;
// otherwise the first max candidates are taken in arrival order.
func sampleProfiles(profiles []TokenProfile, chainOrder []string, max int, fair bool) []TokenProfile {
	if max < 1 {
		max = 1
	}
	if !fair {
		if len(profiles) > max {
			return profiles[:max]
		}
		return profiles
	}
	return sampleRoundRobin(profiles, chainOrder, max)
}

// sampleRoundRobin buckets candidates by chain preserving arrival order
// within each bucket, then repeatedly draws one candidate per non-empty
// bucket cycling the fixed chain order until max are drawn or all
// buckets are empty.
func sampleRoundRobin(profiles []TokenProfile, chainOrder []string, max int) []TokenProfile {
	buckets := make(map[string][]TokenProfile, len(chainOrder))
	for _, chain := range chainOrder {
		buckets[chain] = nil
	}
	for _, p := range profiles {
		chain := strings.ToLower(p.ChainID)
		if _, tracked := buckets[chain]; tracked {
			buckets[chain] = append(buckets[chain], p)
		}
	}

	order := make([]string, 0, len(chainOrder))
	for _, chain := range chainOrder {
		if len(buckets[chain]) > 0 {
			order = append(order, chain)
		}
	}

	selected := make([]TokenProfile, 0, max)
	for len(order) > 0 && len(selected) < max {
		next := order[:0:len(order)]
		for _, chain := range order {
			bucket := buckets[chain]
			if len(bucket) > 0 && len(selected) < max {
				selected = append(selected, bucket[0])
				bucket = bucket[1:]
				buckets[chain] = bucket
			}
			if len(bucket) > 0 {
				next = append(next, chain)
			}
		}
		order = next
	}
	return selected
}
