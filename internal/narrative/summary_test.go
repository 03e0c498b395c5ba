package narrative

import (
	"reflect"
	"testing"
)

func TestSplitRecommendations(t *testing.T) {
	text := `Here are some ideas:

1. **Schedule** a quarterly business review
   with the purchasing lead.
2) Offer a volume rebate on FERT-01.
- Audit returns from the EAST branch
* Bundle seed and chemicals`

	got := SplitRecommendations(text)
	want := []string{
		"Schedule a quarterly business review with the purchasing lead.",
		"Offer a volume rebate on FERT-01.",
		"Audit returns from the EAST branch",
		"Bundle seed and chemicals",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v\nwant %#v", got, want)
	}
}

func TestSplitRecommendationsWithoutMarkers(t *testing.T) {
	got := SplitRecommendations("Call the buyer\n\nReview pricing\n")
	want := []string{"Call the buyer", "Review pricing"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v want %#v", got, want)
	}
	if got := SplitRecommendations("   "); got == nil || len(got) != 0 {
		t.Fatalf("expected empty result, got %#v", got)
	}
}

func TestSummaryPrompt(t *testing.T) {
	s := Summary{CustomerID: "CUST0002", CYSales: 150000, PYSales: 100000, YoYDelta: 50000, YoYPct: 50}
	if s.Performance() != "growing" {
		t.Fatalf("expected growing")
	}
	want := "Customer: CUST0002\n" +
		"Current Year Sales: $150,000\n" +
		"Previous Year Sales: $100,000\n" +
		"YoY Change: $50,000 (+50.0%)\n" +
		"Performance: growing\n\n" +
		"Generate specific sales actions for this growing customer."
	if got := s.Prompt(); got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}
	if (Summary{}).Performance() != "declining" {
		t.Fatalf("flat customers read as declining")
	}
}
