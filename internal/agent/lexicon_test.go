package agent

import (
	"testing"

	"github.com/futusense/futusense/internal/core"
)

func TestLexiconLabel(t *testing.T) {
	lex := DefaultLexicon()

	tests := []struct {
		title    string
		want     core.Polarity
		wantConf float64
	}{
		{"铜价走强 突破前高", core.PolarityBull, 0.75},
		{"需求承压 库存上升", core.PolarityBear, 0.75},
		{"copper futures rally after rate cut", core.PolarityBull, 0.75},
		{"市场观望情绪浓厚", core.PolarityNeutral, 0.55},
		{"回暖与风险并存", core.PolarityNeutral, 0.55},
	}

	for _, tt := range tests {
		got, conf := lex.Label(tt.title)
		if got != tt.want {
			t.Errorf("Label(%q) = %v, want %v", tt.title, got, tt.want)
		}
		if conf != tt.wantConf {
			t.Errorf("Label(%q) confidence = %v, want %v", tt.title, conf, tt.wantConf)
		}
	}
}

func TestLabelItemsKeepsUpstreamLabels(t *testing.T) {
	lex := DefaultLexicon()
	items := []core.NewsItem{
		{Title: "铜价走强", Sentiment: core.PolarityBear, Confidence: 0.9},
		{Title: "铜价走强"},
	}

	out := lex.LabelItems(items)

	if out[0].Sentiment != core.PolarityBear || out[0].Confidence != 0.9 {
		t.Errorf("pre-labeled item changed: %+v", out[0])
	}
	if out[1].Sentiment != core.PolarityBull {
		t.Errorf("unlabeled item = %v, want bull", out[1].Sentiment)
	}
	if items[1].Sentiment != "" {
		t.Error("input slice was mutated")
	}
}
