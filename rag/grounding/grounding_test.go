package grounding

import (
	"testing"
	"time"

	"github.com/sweetpotato0/agri-advisor/rag/query"
	"github.com/sweetpotato0/agri-advisor/record"
)

func TestShouldGround(t *testing.T) {
	tests := []struct {
		name  string
		qc    query.Context
		draft string
		want  bool
	}{
		{"location", query.Context{Location: &record.Location{State: "Bihar"}, Topics: query.NewTopics(query.TopicGeneral)}, "", true},
		{"crop", query.Context{Crop: &query.Crop{Name: "rice"}, Topics: query.NewTopics(query.TopicGeneral)}, "", true},
		{"weather topic", query.Context{Topics: query.NewTopics(query.TopicWeather)}, "", true},
		{"price topic", query.Context{Topics: query.NewTopics(query.TopicPrice)}, "", true},
		{"scheme topic", query.Context{Topics: query.NewTopics(query.TopicScheme)}, "", true},
		{"temporal draft", query.Context{Topics: query.NewTopics(query.TopicIrrigation)}, "The LATEST guidance is ...", true},
		{"generic", query.Context{Topics: query.NewTopics(query.TopicIrrigation)}, "Drip irrigation saves water.", false},
		{"word inside another word", query.Context{Topics: query.NewTopics(query.TopicSoil)}, "Use concurrent cropping.", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldGround(tt.qc, tt.draft); got != tt.want {
				t.Errorf("ShouldGround = %v, want %v", got, tt.want)
			}
		})
	}
}

func market(requested string, crops ...string) record.Record {
	m := record.MarketPayload{RequestedCrop: requested}
	for _, c := range crops {
		m.Prices = append(m.Prices, record.CropPrice{Crop: c, ModalPrice: 1000})
	}
	if requested != "" && !m.HasCrop(requested) {
		m.MissingDataNote = "no data"
		m.RelatedCrops = crops
	}
	return record.Record{SourceID: "m", Category: record.CategoryMarket, Payload: m}
}

func TestPartitionMarket(t *testing.T) {
	qc := query.Context{Crop: &query.Crop{Name: "onion"}}
	recs := []record.Record{
		market("onion", "onion"),
		market("tomato", "tomato", "onion"),
		market("onion", "potato", "tomato"),
	}
	kept, rejected := Partition(recs, qc)
	if len(kept) != 1 || kept[0].Payload.(record.MarketPayload).RequestedCrop != "onion" {
		t.Fatalf("Expected only the onion record kept, got %+v", kept)
	}
	if len(rejected) != 2 || rejected[0].Reason != ReasonWrongCrop || rejected[1].Reason != ReasonMissingCrop {
		t.Fatalf("unexpected rejections %+v", rejected)
	}
	if missing := MissingPrice(rejected); len(missing) != 1 {
		t.Errorf("Expected one missing-price record, got %d", len(missing))
	}
}

func TestPartitionWithoutCropKeepsMarket(t *testing.T) {
	kept, rejected := Partition([]record.Record{market("", "wheat")}, query.Context{})
	if len(kept) != 1 || len(rejected) != 0 {
		t.Errorf("Expected market kept when no crop asked, got %d kept %d rejected", len(kept), len(rejected))
	}
}

func TestPartitionPrefersLocation(t *testing.T) {
	pune := record.Location{State: "Maharashtra", District: "Pune"}
	qc := query.Context{Location: &pune}
	recs := []record.Record{
		{SourceID: "national", Category: record.CategoryAdvisory, Payload: record.AdvisoryPayload{}},
		{SourceID: "nashik", Category: record.CategoryWeather, Location: record.Location{State: "Maharashtra", District: "Nashik"}, Payload: record.WeatherPayload{}},
		{SourceID: "pune", Category: record.CategoryWeather, Location: pune, Payload: record.WeatherPayload{}},
	}
	kept := FilterRelevant(recs, qc)
	if len(kept) != 3 {
		t.Fatalf("Expected non-matching records kept as fallback, got %d", len(kept))
	}
	if kept[0].SourceID != "pune" {
		t.Errorf("Expected local record first, got %s", kept[0].SourceID)
	}
}

func TestWantsPrice(t *testing.T) {
	tests := []struct {
		name string
		qc   query.Context
		want bool
	}{
		{"crop", query.Context{Crop: &query.Crop{Name: "onion"}, Topics: query.NewTopics(query.TopicWeather)}, true},
		{"market topic", query.Context{Topics: query.NewTopics(query.TopicMarket)}, true},
		{"price topic", query.Context{Topics: query.NewTopics(query.TopicPrice)}, true},
		{"weather only", query.Context{Location: &record.Location{District: "Pune"}, Topics: query.NewTopics(query.TopicWeather)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WantsPrice(tt.qc); got != tt.want {
				t.Errorf("WantsPrice = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPriceUnavailable(t *testing.T) {
	at := time.Date(2024, 11, 10, 7, 0, 0, 0, time.UTC)
	qc := query.Context{Location: &record.Location{State: "Maharashtra", District: "Nashik"}, Crop: &query.Crop{Name: "onion"}}

	r := PriceUnavailable(qc, at)
	if r.Category != record.CategoryMarket || !r.FetchedAt.Equal(at) || r.Location != *qc.Location {
		t.Fatalf("unexpected record %+v", r)
	}
	m, ok := r.Payload.(record.MarketPayload)
	if !ok || m.RequestedCrop != "onion" || m.MissingDataNote == "" || len(m.Prices) != 0 {
		t.Fatalf("unexpected payload %+v", r.Payload)
	}
	if !HasMarket([]record.Record{r}) || HasMarket(nil) {
		t.Error("HasMarket disagrees with the record category")
	}
}
