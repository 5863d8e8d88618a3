package circuit

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type BreakerSuite struct {
	suite.Suite
	now time.Time
}

func TestBreakerSuite(t *testing.T) {
	suite.Run(t, new(BreakerSuite))
}

func (s *BreakerSuite) SetupTest() {
	s.now = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
}

func (s *BreakerSuite) newBreaker() *Breaker {
	return New("ipfs",
		WithFailureThreshold(2),
		WithSuccessThreshold(2),
		WithCooldown(time.Second),
		WithClock(func() time.Time { return s.now }),
	)
}

func (s *BreakerSuite) TestOpensAfterThreshold() {
	b := s.newBreaker()

	s.False(b.RecordFailure().Opened)
	s.True(b.RecordFailure().Opened)
	s.Equal(StateOpen, b.State())
	s.False(b.Allow())
}

func (s *BreakerSuite) TestSuccessResetsFailureCount() {
	b := s.newBreaker()

	b.RecordFailure()
	b.RecordSuccess()
	s.False(b.RecordFailure().Opened)
	s.Equal(StateClosed, b.State())
}

func (s *BreakerSuite) TestHalfOpenAfterCooldown() {
	b := s.newBreaker()
	b.RecordFailure()
	b.RecordFailure()

	s.now = s.now.Add(time.Second)
	s.Equal(StateHalfOpen, b.State())
	s.True(b.Allow())

	s.Run("failure in half-open re-opens", func() {
		s.True(b.RecordFailure().Opened)
		s.Equal(StateOpen, b.State())
	})

	s.Run("successes in half-open close", func() {
		s.now = s.now.Add(time.Second)
		s.False(b.RecordSuccess().Closed)
		s.True(b.RecordSuccess().Closed)
		s.Equal(StateClosed, b.State())
	})
}

func (s *BreakerSuite) TestDo() {
	boom := errors.New("boom")

	s.Run("rejects while open", func() {
		b := s.newBreaker()
		b.RecordFailure()
		b.RecordFailure()

		called := false
		err := b.Do(func() error { called = true; return nil }, nil)
		s.ErrorIs(err, ErrOpen)
		s.False(called)
	})

	s.Run("non-countable errors do not trip", func() {
		b := s.newBreaker()
		notCounted := func(error) bool { return false }
		for range 5 {
			s.ErrorIs(b.Do(func() error { return boom }, notCounted), boom)
		}
		s.Equal(StateClosed, b.State())
	})

	s.Run("countable errors trip", func() {
		b := s.newBreaker()
		_ = b.Do(func() error { return boom }, nil)
		_ = b.Do(func() error { return boom }, nil)
		s.Equal(StateOpen, b.State())
	})
}

func (s *BreakerSuite) TestStateString() {
	s.Equal("closed", StateClosed.String())
	s.Equal("open", StateOpen.String())
	s.Equal("half_open", StateHalfOpen.String())
}
