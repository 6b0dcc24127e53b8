package backtest

import (
	"context"

	"crypto-volatility-lab/internal/domain"
)

// StubResponse is one canned fit outcome.
type StubResponse struct {
	Model *domain.FittedModel
	Err   error
}

// StubFitter is a canned-response fitter for testing. Responses are
// consumed in call order; the last one repeats once the queue is
// exhausted. It records the training lengths it was called with.
type StubFitter struct {
	responses []StubResponse
	calls     int

	TrainLens []int
}

// NewStubFitter creates a stub fitter with a response queue.
func NewStubFitter(responses ...StubResponse) *StubFitter {
	return &StubFitter{responses: responses}
}

// Fit returns the next canned response.
func (s *StubFitter) Fit(_ context.Context, rs *domain.ReturnSeries, _ domain.ModelSpec) (*domain.FittedModel, error) {
	s.TrainLens = append(s.TrainLens, rs.Len())
	i := s.calls
	if i >= len(s.responses) {
		i = len(s.responses) - 1
	}
	s.calls++
	resp := s.responses[i]
	return resp.Model, resp.Err
}

// Calls returns how many fits were requested.
func (s *StubFitter) Calls() int {
	return s.calls
}

var _ ModelFitter = (*StubFitter)(nil)
