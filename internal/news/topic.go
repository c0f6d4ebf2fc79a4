package news

import "strings"

// Topic declares one supersede group. A title belongs to the topic when
// it contains a marker plus exactly one directional cue; the topic key
// may be refined by a named entity so that, say, Fed and ECB rate moves
// never compete with each other.
type Topic struct {
	Key       string
	Markers   []string
	UpWords   []string
	DownWords []string
	Entities  []Entity
}

// Entity refines a topic key by a named actor.
type Entity struct {
	Name    string
	Markers []string
}

// DefaultTopics covers the policy-like topics where a newer opposite
// action supersedes the older one (a rate hike followed by a cut, a
// tariff imposed then rolled back).
func DefaultTopics() []Topic {
	return []Topic{
		{
			Key:       "policy_rate",
			Markers:   []string{"利率", "rates", "rate", "加息", "降息", "升息"},
			UpWords:   []string{"加息", "升息", "上调", "提高", "raise", "hike", "tighten"},
			DownWords: []string{"降息", "下调", "降低", "cut", "lower", "ease"},
			Entities: []Entity{
				{Name: "fed", Markers: []string{"美联储", "fed", "fomc"}},
				{Name: "ecb", Markers: []string{"欧洲央行", "ecb"}},
				{Name: "pboc", Markers: []string{"人民银行", "央行", "pboc"}},
			},
		},
		{
			Key:       "tariff",
			Markers:   []string{"关税", "tariff"},
			UpWords:   []string{"加征", "上调", "提高", "raise", "impose", "increase"},
			DownWords: []string{"取消", "下调", "降低", "reduce", "cut", "suspend", "roll back"},
		},
	}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if w != "" && strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// classify maps a title to (topic key, direction). Direction is +1 for
// an "up" cue, -1 for "down"; titles with both cues or neither match no
// topic.
func classify(title string, topics []Topic) (string, int, bool) {
	t := strings.ToLower(strings.TrimSpace(title))
	if t == "" {
		return "", 0, false
	}

	for _, topic := range topics {
		if !containsAny(t, topic.Markers) {
			continue
		}
		up := containsAny(t, topic.UpWords)
		down := containsAny(t, topic.DownWords)
		if up == down {
			continue
		}
		direction := 1
		if down {
			direction = -1
		}
		key := topic.Key
		for _, e := range topic.Entities {
			if containsAny(t, e.Markers) {
				key = e.Name + ":" + topic.Key
				break
			}
		}
		return key, direction, true
	}
	return "", 0, false
}

// supersede zeroes the weight of older items whose direction opposes
// the newest item in the same topic. The newest item fully replaces the
// opposing older signal rather than blending with it. Pure fold: input
// entries are copied, never mutated in place.
func supersede(items []Weighted, topics []Topic) []Weighted {
	type latest struct {
		published int64
		direction int
	}
	newest := make(map[string]latest)

	for _, wi := range items {
		key, direction, ok := classify(wi.Item.Title, topics)
		if !ok {
			continue
		}
		pub := wi.Item.PublishedAt.Unix()
		if cur, seen := newest[key]; !seen || pub > cur.published {
			newest[key] = latest{published: pub, direction: direction}
		}
	}
	if len(newest) == 0 {
		return items
	}

	out := make([]Weighted, len(items))
	for i, wi := range items {
		out[i] = wi
		key, direction, ok := classify(wi.Item.Title, topics)
		if !ok {
			continue
		}
		cur := newest[key]
		if wi.Item.PublishedAt.Unix() < cur.published && direction != cur.direction {
			out[i].Weight = 0
			out[i].Superseded = true
		}
	}
	return out
}
