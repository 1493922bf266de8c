package metrics

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/d1nch8g/ask/gpt"
)

type stubClient struct {
	reply string
	err   error
}

func (s stubClient) Ask(context.Context, string) (string, error) {
	return s.reply, s.err
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, OutcomeSuccess},
		{&gpt.Failure{Kind: gpt.KindTransport}, "transport"},
		{&gpt.Failure{Kind: gpt.KindProvider}, "provider"},
		{&gpt.Failure{Kind: gpt.KindMalformed}, "malformed"},
		{errors.New("other"), OutcomeUnknown},
	}

	for _, tt := range tests {
		if got := Outcome(tt.err); got != tt.want {
			t.Fatalf("Outcome(%v): expected %s, got %s", tt.err, tt.want, got)
		}
	}
}

func TestInstrumentCountsOutcomes(t *testing.T) {
	m := New(nil)

	ok := Instrument(stubClient{reply: "hello"}, m)
	failing := Instrument(stubClient{err: &gpt.Failure{Kind: gpt.KindProvider, Message: "invalid_api_key"}}, m)

	reply, err := ok.Ask(context.Background(), "hi")
	if err != nil || reply != "hello" {
		t.Fatalf("unexpected result %q, %v", reply, err)
	}
	for i := 0; i < 2; i++ {
		if _, err := failing.Ask(context.Background(), "hi"); err == nil {
			t.Fatal("expected error to pass through")
		}
	}

	if got := testutil.ToFloat64(m.requests.WithLabelValues("success")); got != 1 {
		t.Fatalf("expected 1 success, got %v", got)
	}
	if got := testutil.ToFloat64(m.requests.WithLabelValues("provider")); got != 2 {
		t.Fatalf("expected 2 provider failures, got %v", got)
	}
	if got := testutil.CollectAndCount(m.duration); got != 2 {
		t.Fatalf("expected 2 histogram series, got %d", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	m := New(nil)
	m.Observe(OutcomeSuccess, 0)

	path := filepath.Join(t.TempDir(), "ask.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("write textfile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	if !strings.Contains(string(data), `ask_requests_total{outcome="success"} 1`) {
		t.Fatalf("unexpected textfile content:\n%s", data)
	}
}
