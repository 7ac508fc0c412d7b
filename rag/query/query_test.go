package query

import (
	"testing"

	"github.com/sweetpotato0/agri-advisor/errors"
)

func TestCheck(t *testing.T) {
	tests := []struct {
		text    string
		wantErr bool
	}{
		{text: "", wantErr: true},
		{text: "  ?? ", wantErr: true},
		{text: "hi", wantErr: true},
		{text: "12345", wantErr: true},
		{text: "rice", wantErr: false},
		{text: "धान", wantErr: false},
		{text: "pH 6", wantErr: false},
	}
	for _, tt := range tests {
		err := Check(tt.text)
		if (err != nil) != tt.wantErr {
			t.Errorf("Check(%q) error = %v, wantErr %v", tt.text, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, errors.ErrInvalidQuery) {
			t.Errorf("Check(%q) should wrap ErrInvalidQuery", tt.text)
		}
	}
}

func TestTopics(t *testing.T) {
	s := NewTopics(TopicPrice, TopicMarket)
	if !s.HasAny(TopicWeather, TopicPrice) || s.Has(TopicSoil) {
		t.Fatalf("membership wrong for %v", s)
	}
	if s.String() != "market,price" {
		t.Fatalf("String = %q", s.String())
	}
	if !NewTopics().IsGeneral() || !NewTopics(TopicGeneral).IsGeneral() || s.IsGeneral() {
		t.Fatalf("IsGeneral wrong")
	}
}
