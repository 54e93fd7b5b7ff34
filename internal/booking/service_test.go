package booking

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"aerolease/internal/calendar"
	"aerolease/internal/events"
	"aerolease/internal/models"
)

type fakeStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: make(map[string]*Session)}
}

func (f *fakeStore) Get(_ context.Context, id string) (*Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s.Clone(), nil
}

func (f *fakeStore) Save(_ context.Context, s *Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[s.ID] = s.Clone()
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, id)
	return nil
}

type mockSink struct {
	mock.Mock
}

func (m *mockSink) Submit(ctx context.Context, req *Request) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func date(year int, month time.Month, day int) civil.Date {
	return civil.Date{Year: year, Month: month, Day: day}
}

var testNow = time.Date(2026, 6, 1, 10, 0, 0, 123000000, time.UTC)

type fixture struct {
	svc     *Service
	store   *fakeStore
	sink    *mockSink
	holder  *models.CatalogHolder
	bus     *events.EventBus
	payload chan []byte
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	msn925, err := models.NewAircraft("DHC6-400-MSN925", "Twin Otter MSN 925", 3, 365, []civil.Date{date(2026, 6, 12)})
	require.NoError(t, err)
	msn938, err := models.NewAircraft("DHC6-400-MSN938", "Twin Otter MSN 938", 3, 30, nil)
	require.NoError(t, err)
	catalog, err := models.NewCatalog(msn925, msn938)
	require.NoError(t, err)

	f := &fixture{
		store:   newFakeStore(),
		sink:    new(mockSink),
		holder:  models.NewCatalogHolder(catalog),
		bus:     events.NewEventBus(),
		payload: make(chan []byte, 1),
	}
	f.bus.Subscribe(events.TypeBookingSubmitted, func(e events.Event) error {
		f.payload <- e.Payload
		return nil
	})

	logger := zerolog.New(io.Discard)
	f.svc = NewService(f.holder, f.store, f.sink, calendar.DefaultRules(), &logger,
		WithClock(func() time.Time { return testNow }),
		WithLocation(time.UTC),
		WithEventBus(f.bus),
	)
	return f
}

// readyToSubmit opens a session with MSN925 and Jun 8-10 selected, on the contact step.
func (f *fixture) readyToSubmit(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	v, err := f.svc.Open(ctx)
	require.NoError(t, err)
	id := v.SessionID

	_, err = f.svc.SelectAircraft(ctx, id, "DHC6-400-MSN925", "wet")
	require.NoError(t, err)
	_, err = f.svc.GoToStep(ctx, id, StepDates)
	require.NoError(t, err)
	_, err = f.svc.Click(ctx, id, date(2026, 6, 10))
	require.NoError(t, err)
	_, err = f.svc.Click(ctx, id, date(2026, 6, 8))
	require.NoError(t, err)
	_, err = f.svc.GoToStep(ctx, id, StepContact)
	require.NoError(t, err)
	return id
}

func TestService_Open(t *testing.T) {
	f := newFixture(t)

	v, err := f.svc.Open(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, v.SessionID)
	assert.Equal(t, StepAircraft, v.Step)
	assert.Equal(t, "aircraft", v.StepName)
	assert.Equal(t, 33, v.Progress)
	assert.Equal(t, LeaseDry, v.LeaseType)
	assert.Equal(t, "June 2026", v.MonthLabel)
	assert.Len(t, v.Grid.Cells, calendar.GridCells)
	assert.True(t, v.Selection.IsEmpty())
	assert.Equal(t, "Not selected", v.Summary.Aircraft)
	assert.Equal(t, "Dry Lease", v.Summary.LeaseType)

	other, err := f.svc.Open(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, v.SessionID, other.SessionID)
}

func TestService_SelectAircraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v, err := f.svc.Open(ctx)
	require.NoError(t, err)

	_, err = f.svc.SelectAircraft(ctx, v.SessionID, "B-737", "")
	assert.ErrorIs(t, err, ErrUnknownAircraft)
	assert.Equal(t, CodeUnknownAircraft, Code(err))

	v, err = f.svc.SelectAircraft(ctx, v.SessionID, "DHC6-400-MSN925", "acmi")
	require.NoError(t, err)
	assert.Equal(t, "DHC6-400-MSN925", v.AircraftID)
	assert.Equal(t, "Twin Otter MSN 925", v.Summary.Aircraft)
	assert.Equal(t, "ACMI", v.Summary.LeaseType)
	assert.Equal(t, "DHC6-400-0123", v.Summary.RequestID)

	var booked []civil.Date
	for _, c := range v.Grid.Cells {
		if c.Booked {
			booked = append(booked, c.Date)
		}
	}
	assert.Equal(t, []civil.Date{date(2026, 6, 12)}, booked)
}

func TestService_UnknownSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = f.svc.Click(ctx, "missing", date(2026, 6, 10))
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = f.svc.Submit(ctx, "missing", validForm())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestService_ClickAndNavigate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v, err := f.svc.Open(ctx)
	require.NoError(t, err)
	id := v.SessionID

	_, err = f.svc.SelectAircraft(ctx, id, "DHC6-400-MSN925", "")
	require.NoError(t, err)

	_, err = f.svc.Click(ctx, id, date(2026, 6, 20))
	require.NoError(t, err)
	v, err = f.svc.Click(ctx, id, date(2026, 6, 21))
	assert.Equal(t, calendar.CodeLeaseTooShort, calendar.Code(err))
	require.NotNil(t, v, "rejected clicks still return the view")
	assert.True(t, v.Selection.IsEmpty())

	v, err = f.svc.Click(ctx, id, date(2026, 5, 31))
	assert.Equal(t, calendar.CodeOutOfWindow, calendar.Code(err))
	require.NotNil(t, v)

	_, err = f.svc.Click(ctx, id, date(2026, 6, 10))
	require.NoError(t, err)
	v, err = f.svc.Click(ctx, id, date(2026, 6, 12))
	var conflict *calendar.DateConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, date(2026, 6, 10), *v.Selection.Start)
	assert.Nil(t, v.Selection.End)

	v, err = f.svc.Click(ctx, id, date(2026, 6, 14))
	require.NoError(t, err)
	assert.Equal(t, "Jun 10, 2026 - Jun 14, 2026", v.Summary.Dates)
	assert.Equal(t, "5 days", v.Summary.Duration)

	v, err = f.svc.Navigate(ctx, id, 2)
	require.NoError(t, err)
	assert.Equal(t, "August 2026", v.MonthLabel)
	v, err = f.svc.Navigate(ctx, id, -14)
	require.NoError(t, err)
	assert.Equal(t, "June 2025", v.MonthLabel)
	assert.True(t, v.Selection.IsClosed(), "navigation keeps the selection")

	v, err = f.svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "June 2025", v.MonthLabel)
}

func TestService_GoToStep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v, err := f.svc.Open(ctx)
	require.NoError(t, err)
	id := v.SessionID

	_, err = f.svc.GoToStep(ctx, id, StepContact)
	var te *TransitionError
	require.ErrorAs(t, err, &te)

	v, err = f.svc.GoToStep(ctx, id, StepDates)
	require.NoError(t, err)
	assert.Equal(t, 66, v.Progress)

	v, err = f.svc.GoToStep(ctx, id, StepContact)
	require.NoError(t, err)
	assert.Equal(t, StepContact, v.Step)

	_, err = f.svc.GoToStep(ctx, id, StepSubmitted)
	require.ErrorAs(t, err, &te)

	v, err = f.svc.GoToStep(ctx, id, StepAircraft)
	require.NoError(t, err)
	assert.Equal(t, StepAircraft, v.Step)
}

func TestService_Submit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.readyToSubmit(t)

	form := validForm()
	form.LeaseType = ""
	form.Contact.FirstName = "  Ada "
	form.Contact.Notes = "Medevac standby"

	f.sink.On("Submit", mock.Anything, mock.MatchedBy(func(r *Request) bool {
		return r.Aircraft == "DHC6-400-MSN925" &&
			r.AircraftName == "Twin Otter MSN 925" &&
			r.LeaseType == LeaseWet &&
			r.FirstName == "Ada" &&
			r.AdditionalInfo == "Medevac standby" &&
			r.StartDate == date(2026, 6, 8) &&
			r.EndDate == date(2026, 6, 10)
	})).Return(nil).Once()

	receipt, err := f.svc.Submit(ctx, id, form)
	require.NoError(t, err)
	f.sink.AssertExpectations(t)

	assert.Equal(t, &Receipt{
		RequestID:    "9H-08000123",
		AircraftName: "Twin Otter MSN 925",
		StartDate:    date(2026, 6, 8),
		EndDate:      date(2026, 6, 10),
		Duration:     3,
		Dates:        "Jun 8, 2026 - Jun 10, 2026 (3 days)",
		Delivered:    true,
	}, receipt)

	var published map[string]any
	require.NoError(t, json.Unmarshal(<-f.payload, &published))
	assert.Equal(t, "9H-08000123", published["requestId"])
	assert.Equal(t, "2026-06-08", published["startDate"])
	assert.Equal(t, "wet", published["leaseType"])

	v, err := f.svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StepAircraft, v.Step, "session resets after submission")
	assert.Empty(t, v.AircraftID)
	assert.Equal(t, LeaseDry, v.LeaseType)
	assert.True(t, v.Selection.IsEmpty())
}

func TestService_SubmitMasksRelayFailure(t *testing.T) {
	f := newFixture(t)
	id := f.readyToSubmit(t)

	f.sink.On("Submit", mock.Anything, mock.Anything).Return(errors.New("relay: 502 Bad Gateway")).Once()

	receipt, err := f.svc.Submit(context.Background(), id, validForm())
	require.NoError(t, err)
	assert.False(t, receipt.Delivered)
	assert.Equal(t, "9H-08000123", receipt.RequestID)
	assert.NotEmpty(t, <-f.payload, "managers are still notified")
	f.sink.AssertExpectations(t)

	v, err := f.svc.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, StepAircraft, v.Step, "the wizard resets on the masked path too")
	assert.True(t, v.Selection.IsEmpty())
}

func TestService_ConcurrentUpdatesOnOneSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v, err := f.svc.Open(ctx)
	require.NoError(t, err)
	id := v.SessionID

	const n = 24
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Navigate(ctx, id, 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	v, err = f.svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "June 2028", v.MonthLabel, "no navigation is lost")
	assert.Equal(t, 0, f.svc.locks.len())
}

func TestSessionLocks(t *testing.T) {
	l := newSessionLocks()

	unlockA := l.lock("a")
	unlockB := l.lock("b")
	assert.Equal(t, 2, l.len())

	acquired := make(chan struct{})
	go func() {
		unlock := l.lock("a")
		close(acquired)
		unlock()
	}()

	select {
	case <-acquired:
		t.Fatal("second holder entered while the first was active")
	case <-time.After(20 * time.Millisecond):
	}

	unlockA()
	<-acquired
	unlockB()
	assert.Eventually(t, func() bool { return l.len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestService_SubmitValidation(t *testing.T) {
	ctx := context.Background()

	t.Run("wrong step", func(t *testing.T) {
		f := newFixture(t)
		v, err := f.svc.Open(ctx)
		require.NoError(t, err)

		_, err = f.svc.Submit(ctx, v.SessionID, validForm())
		var te *TransitionError
		require.ErrorAs(t, err, &te)
	})

	t.Run("no aircraft", func(t *testing.T) {
		f := newFixture(t)
		v, err := f.svc.Open(ctx)
		require.NoError(t, err)
		_, err = f.svc.GoToStep(ctx, v.SessionID, StepDates)
		require.NoError(t, err)
		_, err = f.svc.GoToStep(ctx, v.SessionID, StepContact)
		require.NoError(t, err)

		_, err = f.svc.Submit(ctx, v.SessionID, validForm())
		assert.ErrorIs(t, err, ErrNoAircraft)
		step, ok := StepOf(err)
		require.True(t, ok)
		assert.Equal(t, StepAircraft, step)

		v, err = f.svc.Get(ctx, v.SessionID)
		require.NoError(t, err)
		assert.Equal(t, StepAircraft, v.Step, "user is sent back to the failing step")
	})

	t.Run("unknown lease type", func(t *testing.T) {
		f := newFixture(t)
		id := f.readyToSubmit(t)
		form := validForm()
		form.LeaseType = "charter"

		_, err := f.svc.Submit(ctx, id, form)
		assert.Equal(t, CodeUnknownLeaseType, Code(err))
		step, _ := StepOf(err)
		assert.Equal(t, StepAircraft, step)
	})

	t.Run("booked date inside range", func(t *testing.T) {
		f := newFixture(t)
		v, err := f.svc.Open(ctx)
		require.NoError(t, err)
		id := v.SessionID
		_, err = f.svc.SelectAircraft(ctx, id, "DHC6-400-MSN925", "")
		require.NoError(t, err)
		_, err = f.svc.GoToStep(ctx, id, StepDates)
		require.NoError(t, err)
		_, err = f.svc.Click(ctx, id, date(2026, 6, 10))
		require.NoError(t, err)
		_, err = f.svc.Click(ctx, id, date(2026, 6, 14))
		require.NoError(t, err)
		_, err = f.svc.GoToStep(ctx, id, StepContact)
		require.NoError(t, err)

		_, err = f.svc.Submit(ctx, id, validForm())
		var conflict *calendar.DateConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, date(2026, 6, 12), conflict.Date)
		step, _ := StepOf(err)
		assert.Equal(t, StepDates, step)
		assert.Equal(t, "aircraft is not available on Jun 12, 2026", err.Error())
	})

	t.Run("lease too long after aircraft change", func(t *testing.T) {
		f := newFixture(t)
		v, err := f.svc.Open(ctx)
		require.NoError(t, err)
		id := v.SessionID
		_, err = f.svc.SelectAircraft(ctx, id, "DHC6-400-MSN938", "")
		require.NoError(t, err)
		_, err = f.svc.GoToStep(ctx, id, StepDates)
		require.NoError(t, err)
		_, err = f.svc.Click(ctx, id, date(2026, 7, 1))
		require.NoError(t, err)
		_, err = f.svc.Click(ctx, id, date(2026, 8, 15))
		require.NoError(t, err, "maximum lease is only checked on submission")
		_, err = f.svc.GoToStep(ctx, id, StepContact)
		require.NoError(t, err)

		_, err = f.svc.Submit(ctx, id, validForm())
		var tooLong *calendar.LeaseTooLongError
		require.ErrorAs(t, err, &tooLong)
		assert.Equal(t, 46, tooLong.Duration)
		assert.Equal(t, 30, tooLong.Max)
	})

	t.Run("contact errors", func(t *testing.T) {
		f := newFixture(t)
		id := f.readyToSubmit(t)
		form := validForm()
		form.TermsAccepted = false

		_, err := f.svc.Submit(ctx, id, form)
		assert.ErrorIs(t, err, ErrTermsNotAccepted)
		step, _ := StepOf(err)
		assert.Equal(t, StepContact, step)
		f.sink.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
	})
}

func TestService_CatalogReloadDropsAircraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v, err := f.svc.Open(ctx)
	require.NoError(t, err)
	_, err = f.svc.SelectAircraft(ctx, v.SessionID, "DHC6-400-MSN925", "")
	require.NoError(t, err)

	only938, err := models.NewAircraft("DHC6-400-MSN938", "Twin Otter MSN 938", 3, 30, nil)
	require.NoError(t, err)
	catalog, err := models.NewCatalog(only938)
	require.NoError(t, err)
	f.holder.Store(catalog)

	v, err = f.svc.Get(ctx, v.SessionID)
	require.NoError(t, err)
	assert.Empty(t, v.AircraftID)
	assert.Equal(t, "Not selected", v.Summary.Aircraft)
}

func TestService_Close(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v, err := f.svc.Open(ctx)
	require.NoError(t, err)

	require.NoError(t, f.svc.Close(ctx, v.SessionID))
	_, err = f.svc.Get(ctx, v.SessionID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
