package metadata

import (
	"context"
	"strings"
	"testing"

	"github.com/go-logr/logr"

	sstorage "github.com/jjo/promql-complete/pkg/storage"
)

func TestOffline(t *testing.T) {
	var p Provider = Offline{}
	names, err := p.LabelNames(context.Background(), "up")
	if err != nil || len(names) != 0 {
		t.Errorf("LabelNames = (%v, %v), want empty and nil", names, err)
	}
	values, err := p.LabelValues(context.Background(), "__name__", "")
	if err != nil || len(values) != 0 {
		t.Errorf("LabelValues = (%v, %v), want empty and nil", values, err)
	}
}

func TestNewProvider(t *testing.T) {
	log := logr.Discard()

	tests := []struct {
		name        string
		sel         Selector
		wantOffline bool
	}{
		{"offline", Selector{Source: SourceOffline}, true},
		{"unknown source", Selector{Source: "bogus"}, true},
		{"empty selector", Selector{}, true},
		{"remote without url", Selector{Source: SourceRemote}, true},
		{"remote", Selector{Source: SourceRemote, URL: "http://localhost:9090"}, false},
		{"langserver answers no lookups", Selector{Source: SourceLangserver, URL: "http://localhost:8080"}, true},
	}
	for _, tt := range tests {
		p := NewProvider(tt.sel, log)
		_, isOffline := p.(Offline)
		if isOffline != tt.wantOffline {
			t.Errorf("%s: provider = %T, want offline=%v", tt.name, p, tt.wantOffline)
		}
		if !tt.wantOffline {
			if _, ok := p.(*PromProvider); !ok {
				t.Errorf("%s: provider = %T, want *PromProvider", tt.name, p)
			}
		}
	}
}

func TestStorageProvider(t *testing.T) {
	store := sstorage.NewSimpleStorage()
	if err := store.LoadFromReader(strings.NewReader(sstorage.SampleMetrics)); err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	p := NewStorageProvider(store)

	names, err := p.LabelNames(context.Background(), "up")
	if err != nil {
		t.Fatalf("LabelNames: %v", err)
	}
	if len(names) != 2 || names[0] != "instance" || names[1] != "job" {
		t.Errorf("LabelNames(up) = %v, want [instance job]", names)
	}

	values, err := p.LabelValues(context.Background(), "__name__", "")
	if err != nil {
		t.Fatalf("LabelValues: %v", err)
	}
	found := false
	for _, v := range values {
		if v == "http_requests_total" {
			found = true
		}
	}
	if !found {
		t.Errorf("metric names %v missing http_requests_total", values)
	}
}

func TestStorageProviderNilStore(t *testing.T) {
	p := NewStorageProvider(nil)
	names, err := p.LabelNames(context.Background(), "")
	if err != nil || len(names) != 0 {
		t.Errorf("LabelNames = (%v, %v), want empty and nil", names, err)
	}
	values, err := p.LabelValues(context.Background(), "job", "")
	if err != nil || len(values) != 0 {
		t.Errorf("LabelValues = (%v, %v), want empty and nil", values, err)
	}
}
