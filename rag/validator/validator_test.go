package validator

import (
	"context"
	"math"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/sweetpotato0/agri-advisor/answer"
	"github.com/sweetpotato0/agri-advisor/errors"
	"github.com/sweetpotato0/agri-advisor/llm"
	"github.com/sweetpotato0/agri-advisor/rag/query"
	"github.com/sweetpotato0/agri-advisor/record"
)

func onionContext() LangContext {
	return LangContext{
		Language:   "en",
		Query:      "What is the onion price in Nashik?",
		Translated: "What is the onion price in Nashik?",
		Context: query.Context{
			Location: &record.Location{State: "Maharashtra", District: "Nashik"},
			Crop:     &query.Crop{Name: "onion"},
			Topics:   query.NewTopics(query.TopicPrice),
		},
	}
}

func missingOnion() record.Record {
	return record.Record{
		SourceID:  "catalog-market",
		Category:  record.CategoryMarket,
		Freshness: record.FreshnessFresh,
		Payload: record.MarketPayload{
			RequestedCrop:   "onion",
			MissingDataNote: "Price data for onion is not currently available in Nashik",
			RelatedCrops:    []string{"tomato"},
			Prices:          []record.CropPrice{{Crop: "tomato", Market: "Nashik APMC", ModalPrice: 1200}},
		},
	}
}

const honestDraft = "## Advisory for onion in Nashik, Maharashtra\n" +
	"## Market prices\n- No current price data for onion in Nashik, Maharashtra.\n" +
	"- tomato (related crop) at Nashik APMC: ₹1,200/quintal\n\n## Support\n- Kisan Call Centre"

func TestCheckHonesty(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		missing []string
		wantErr bool
	}{
		{name: "nothing missing", text: "onion ₹900/quintal", wantErr: false},
		{name: "honest", text: honestDraft, missing: []string{"onion"}, wantErr: false},
		{name: "fabricated rupee price", text: "No current price data for onion.\nOnion is selling at ₹1,450 in Lasalgaon.", missing: []string{"onion"}, wantErr: true},
		{name: "fabricated per quintal", text: "No current price data for onion.\nonions 1800 per quintal", missing: []string{"onion"}, wantErr: true},
		{name: "absence dropped", text: "Onion prices are rising this week.", missing: []string{"onion"}, wantErr: true},
		{name: "related crop priced", text: "No current price data for onion.\nTomato at Rs 1200", missing: []string{"onion"}, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckHonesty(tt.text, tt.missing)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CheckHonesty() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateRemoteAccepted(t *testing.T) {
	gen := llm.Func(func(_ context.Context, p string) (string, error) {
		if !strings.Contains(p, "No current price data for onion") {
			t.Errorf("prompt lacks the no-price instruction:\n%s", p)
		}
		return honestDraft + "\n- Store onion in ventilated sheds.", nil
	})
	v := New(WithGenerator(gen))

	out := v.Validate(context.Background(), Draft{Text: honestDraft, Confidence: 0.7, Basis: answer.BasisMedium, Missing: []record.Record{missingOnion()}},
		[]record.Record{missingOnion()}, onionContext())

	if out.Path != PathRemote {
		t.Fatalf("Path = %s, want remote", out.Path)
	}
	if !strings.Contains(out.Text, "ventilated sheds") || out.Disclaimer != "" {
		t.Fatalf("unexpected output %+v", out)
	}
}

func TestValidateRemoteFabricationRejected(t *testing.T) {
	gen := llm.Func(func(context.Context, string) (string, error) {
		return "## Advisory\nOnion modal price is ₹1,600/quintal today.\n## Support\n- KVK", nil
	})
	v := New(WithGenerator(gen))

	out := v.Validate(context.Background(), Draft{Text: honestDraft, Confidence: 0.7, Basis: answer.BasisMedium, Missing: []record.Record{missingOnion()}},
		nil, onionContext())

	if out.Path != PathLocal {
		t.Fatalf("Path = %s, want local", out.Path)
	}
	if strings.Contains(out.Text, "1,600") || !strings.Contains(out.Text, "No current price data for onion") {
		t.Fatalf("fabricated text leaked:\n%s", out.Text)
	}
}

func TestValidateUnavailableFallsBackToLocal(t *testing.T) {
	var calls atomic.Int32
	gen := llm.Func(func(context.Context, string) (string, error) {
		calls.Add(1)
		return "", errors.ErrValidationUnavailable
	})
	v := New(WithGenerator(gen))

	lc := onionContext()
	out := v.Validate(context.Background(), Draft{Text: "Sell onion after grading.", Confidence: 0.6, Basis: answer.BasisLow}, nil, lc)

	if calls.Load() != 1 {
		t.Fatalf("generator called %d times", calls.Load())
	}
	if out.Path != PathLocal || !answer.IsStructured(out.Text) {
		t.Fatalf("expected wrapped local output, got %+v", out)
	}
	if !strings.Contains(out.Text, answer.HeadingRecommendations) || !strings.Contains(out.Text, answer.HeadingSupport) {
		t.Fatalf("template sections missing:\n%s", out.Text)
	}
}

func TestValidateGeneratorErrorRunsLocalChecks(t *testing.T) {
	gen := llm.Func(func(context.Context, string) (string, error) {
		return "", errors.New("dial tcp 10.0.0.7:443: connection refused")
	})
	v := New(WithGenerator(gen))

	out := v.Validate(context.Background(), Draft{Text: "Irrigate in the evening.", Confidence: 0.6, Basis: answer.BasisLow}, nil, onionContext())

	if out.Path != PathLocal {
		t.Fatalf("Path = %s, want local", out.Path)
	}
	if out.Disclaimer != answer.DisclaimerLowConfidence || math.Abs(out.Confidence-0.5) > 1e-9 {
		t.Fatalf("overlap check skipped: %+v", out)
	}
	if !answer.IsStructured(out.Text) {
		t.Fatalf("text not wrapped:\n%s", out.Text)
	}
}

func TestValidateLowOverlap(t *testing.T) {
	v := New()
	out := v.Validate(context.Background(), Draft{Text: "Irrigate in the evening.", Confidence: 0.6, Basis: answer.BasisLow}, nil, onionContext())

	if out.Disclaimer != answer.DisclaimerLowConfidence {
		t.Fatalf("Disclaimer = %q", out.Disclaimer)
	}
	if math.Abs(out.Confidence-0.5) > 1e-9 {
		t.Fatalf("Confidence = %v, want 0.5", out.Confidence)
	}
}

func TestValidateRecoversFromPanic(t *testing.T) {
	gen := llm.Func(func(context.Context, string) (string, error) { panic("boom") })
	v := New(WithGenerator(gen))

	out := v.Validate(context.Background(), Draft{Text: "draft", Confidence: 0.4, Basis: answer.BasisLow}, nil, onionContext())
	if out.Path != PathReduced || out.Text != "draft" || out.Disclaimer != answer.DisclaimerReducedValidation {
		t.Fatalf("unexpected output %+v", out)
	}
}

func TestRevalidateIsStable(t *testing.T) {
	v := New()
	lc := onionContext()
	resp := answer.Response{Text: honestDraft, Sources: []record.Record{missingOnion()}, Confidence: 0.7, FactualBasis: answer.BasisMedium}

	first, ok := v.Revalidate(context.Background(), resp, lc)
	if !ok {
		t.Fatalf("honest cached answer rejected")
	}
	second, ok := v.Revalidate(context.Background(), first, lc)
	if !ok || second.Text != first.Text || first.Text != honestDraft {
		t.Fatalf("revalidation changed text")
	}
}

func TestRevalidateKeepsStoredConfidence(t *testing.T) {
	v := New()
	lc := onionContext()
	out := v.Validate(context.Background(), Draft{Text: "Irrigate in the evening.", Confidence: 0.6, Basis: answer.BasisLow}, nil, lc)
	stored := answer.Response{Text: out.Text, Confidence: out.Confidence, FactualBasis: out.Basis}

	got, ok := v.Revalidate(context.Background(), stored, lc)
	if !ok {
		t.Fatalf("cached answer rejected")
	}
	if math.Abs(got.Confidence-0.5) > 1e-9 {
		t.Fatalf("Confidence = %v, want the stored 0.5", got.Confidence)
	}
	if len(got.Disclaimers) != 1 || got.Disclaimers[0] != answer.DisclaimerLowConfidence {
		t.Fatalf("Disclaimers = %v", got.Disclaimers)
	}
	again, _ := v.Revalidate(context.Background(), got, lc)
	if again.Confidence != got.Confidence || len(again.Disclaimers) != 1 {
		t.Fatalf("second read drifted: %+v", again)
	}
}

func TestRevalidateRejectsFabrication(t *testing.T) {
	resp := answer.Response{
		Text:    "## Advisory\nNo current price data for onion.\nOnion ₹2000/quintal\n## Support",
		Sources: []record.Record{missingOnion()},
	}
	if _, ok := New().Revalidate(context.Background(), resp, onionContext()); ok {
		t.Fatalf("fabricated cached answer must be rejected")
	}
}
