package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"aerolease/internal/calendar"
	"aerolease/internal/events"
	"aerolease/internal/metrics"
	"aerolease/internal/models"
)

// View is everything the widget needs to draw the modal.
type View struct {
	SessionID  string             `json:"session_id"`
	Step       Step               `json:"step"`
	StepName   string             `json:"step_name"`
	Progress   int                `json:"progress"`
	AircraftID string             `json:"aircraft_id,omitempty"`
	LeaseType  LeaseType          `json:"lease_type"`
	MonthLabel string             `json:"month_label"`
	Grid       calendar.Grid      `json:"grid"`
	Selection  calendar.Selection `json:"selection"`
	Summary    Summary            `json:"summary"`
}

// Receipt is shown in the success dialog.
type Receipt struct {
	RequestID    string     `json:"request_id"`
	AircraftName string     `json:"aircraft_name"`
	StartDate    civil.Date `json:"start_date"`
	EndDate      civil.Date `json:"end_date"`
	Duration     int        `json:"duration"`
	Dates        string     `json:"dates"`
	// Delivered is false when the relay failed; the user still sees success.
	Delivered bool `json:"delivered"`
}

// Service drives booking sessions. Mutating calls on the same session id are
// serialized inside one process; replicas sharing a Redis store are not.
type Service struct {
	catalog models.CatalogSource
	store   Store
	sink    Sink
	bus     *events.EventBus
	fsm     *FSM
	locks   *sessionLocks
	rules   calendar.Rules
	loc     *time.Location
	now     func() time.Time
	logger  *zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLocation sets the zone used for "today".
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithEventBus publishes submissions on bus.
func WithEventBus(bus *events.EventBus) Option {
	return func(s *Service) {
		s.bus = bus
	}
}

// NewService wires the booking flow.
func NewService(catalog models.CatalogSource, store Store, sink Sink, rules calendar.Rules, logger *zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		catalog: catalog,
		store:   store,
		sink:    sink,
		fsm:     NewFSM(),
		locks:   newSessionLocks(),
		rules:   rules,
		loc:     time.Local,
		now:     time.Now,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) newCalendar() *calendar.Calendar {
	return calendar.New(s.rules, calendar.WithClock(s.now), calendar.WithLocation(s.loc))
}

// Open starts a new session with an empty selection.
func (s *Service) Open(ctx context.Context) (*View, error) {
	now := s.now()
	cal := s.newCalendar()
	sess := &Session{
		ID:        uuid.NewString(),
		Step:      StepAircraft,
		LeaseType: DefaultLeaseType,
		Calendar:  cal.Snapshot(),
		StartedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	s.logger.Debug().Str("session", sess.ID).Msg("Booking session opened")
	return s.view(sess, cal), nil
}

// Get returns the current view of a session.
func (s *Service) Get(ctx context.Context, id string) (*View, error) {
	sess, cal, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(sess, cal), nil
}

// Close discards a session.
func (s *Service) Close(ctx context.Context, id string) error {
	defer s.locks.lock(id)()
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Debug().Str("session", id).Msg("Booking session closed")
	return nil
}

// SelectAircraft chooses the aircraft and, when given, the lease type.
// Lease types are checked on submission.
func (s *Service) SelectAircraft(ctx context.Context, id, aircraftID, leaseType string) (*View, error) {
	defer s.locks.lock(id)()
	sess, cal, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	aircraft, ok := s.catalog.Catalog().Get(aircraftID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAircraft, aircraftID)
	}
	sess.AircraftID = aircraft.ID
	if leaseType != "" {
		sess.LeaseType = LeaseType(leaseType)
	}
	cal.SetAircraft(aircraft)
	return s.save(ctx, sess, cal)
}

// Navigate moves the displayed month by delta.
func (s *Service) Navigate(ctx context.Context, id string, delta int) (*View, error) {
	defer s.locks.lock(id)()
	sess, cal, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	cal.Navigate(delta)
	return s.save(ctx, sess, cal)
}

// Click applies a day click. A rejected click still returns the updated
// view together with the calendar error.
func (s *Service) Click(ctx context.Context, id string, date civil.Date) (*View, error) {
	defer s.locks.lock(id)()
	sess, cal, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	clickErr := cal.Click(date)
	outcome := "ok"
	if clickErr != nil {
		outcome = calendar.Code(clickErr)
		s.logger.Debug().Str("session", id).Str("date", date.String()).Err(clickErr).Msg("Date click rejected")
	}
	metrics.IncClick(outcome)

	v, err := s.save(ctx, sess, cal)
	if err != nil {
		return nil, err
	}
	return v, clickErr
}

// GoToStep moves the wizard. Submission is only reachable through Submit.
func (s *Service) GoToStep(ctx context.Context, id string, step Step) (*View, error) {
	defer s.locks.lock(id)()
	sess, cal, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if step == StepSubmitted {
		return nil, &TransitionError{From: sess.Step, To: step}
	}
	if err := s.fsm.Transition(sess, step); err != nil {
		return nil, err
	}
	return s.save(ctx, sess, cal)
}

// Submit validates the session and the form, hands the request to the sink
// and resets the session. A failing sink does not fail the submission: the
// receipt reports Delivered=false and the failure is logged.
func (s *Service) Submit(ctx context.Context, id string, form Form) (*Receipt, error) {
	defer s.locks.lock(id)()
	sess, cal, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.fsm.CanTransition(sess.Step, StepSubmitted) {
		return nil, &TransitionError{From: sess.Step, To: StepSubmitted}
	}
	if form.LeaseType != "" {
		sess.LeaseType = LeaseType(form.LeaseType)
	}

	req, err := s.buildRequest(sess, cal, form)
	if err != nil {
		metrics.IncValidationFailure(Code(err))
		if step, ok := StepOf(err); ok {
			sess.Step = step
			if _, saveErr := s.save(ctx, sess, cal); saveErr != nil {
				s.logger.Warn().Err(saveErr).Str("session", id).Msg("Failed to save session after validation error")
			}
		}
		return nil, err
	}

	receipt := &Receipt{
		RequestID:    req.RequestID,
		AircraftName: req.AircraftName,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Duration:     req.Duration(),
		Dates:        fmt.Sprintf("%s (%d days)", req.DateRange(), req.Duration()),
		Delivered:    true,
	}

	if err := s.sink.Submit(ctx, req); err != nil {
		receipt.Delivered = false
		metrics.IncSubmission("masked", string(req.LeaseType))
		s.logger.Error().Err(err).
			Str("request_id", req.RequestID).
			Str("aircraft", req.Aircraft).
			Msg("Booking request relay failed; confirming to user anyway")
	} else {
		metrics.IncSubmission("delivered", string(req.LeaseType))
		s.logger.Info().
			Str("request_id", req.RequestID).
			Str("aircraft", req.Aircraft).
			Str("dates", req.DateRange()).
			Msg("Booking request submitted")
	}

	s.publish(req)

	if err := s.fsm.Transition(sess, StepSubmitted); err != nil {
		return nil, err
	}
	s.reset(sess, cal)
	if _, err := s.save(ctx, sess, cal); err != nil {
		s.logger.Warn().Err(err).Str("session", id).Msg("Failed to reset session after submission")
	}
	return receipt, nil
}

// buildRequest runs the submission checks in widget order.
func (s *Service) buildRequest(sess *Session, cal *calendar.Calendar, form Form) (*Request, error) {
	aircraft := cal.Aircraft()
	if aircraft == nil {
		return nil, &StepError{Step: StepAircraft, Err: ErrNoAircraft}
	}
	lease, err := ParseLeaseType(string(sess.LeaseType))
	if err != nil {
		return nil, &StepError{Step: StepAircraft, Err: err}
	}
	if _, err := cal.Validate(); err != nil {
		return nil, &StepError{Step: StepDates, Err: err}
	}
	if err := form.Validate(); err != nil {
		return nil, &StepError{Step: StepContact, Err: err}
	}

	now := s.now()
	sel := cal.Selection()
	c := form.Contact.Normalize()
	return &Request{
		RequestID:      NewRequestID(now),
		Aircraft:       aircraft.ID,
		AircraftName:   aircraft.Name,
		StartDate:      *sel.Start,
		EndDate:        *sel.End,
		LeaseType:      lease,
		FirstName:      c.FirstName,
		LastName:       c.LastName,
		Company:        c.Company,
		Phone:          c.Phone,
		Email:          c.Email,
		MissionType:    c.MissionType,
		AdditionalInfo: c.Notes,
		SubmittedAt:    now.UTC(),
	}, nil
}

func (s *Service) publish(req *Request) {
	if s.bus == nil {
		return
	}
	payload, err := json.Marshal(req)
	if err != nil {
		s.logger.Warn().Err(err).Str("request_id", req.RequestID).Msg("Failed to encode booking event")
		return
	}
	s.bus.Publish(events.Event{Type: events.TypeBookingSubmitted, Payload: payload, CreatedAt: s.now()})
}

// reset returns the session to a fresh wizard after a submission.
func (s *Service) reset(sess *Session, cal *calendar.Calendar) {
	sess.Step = StepAircraft
	sess.AircraftID = ""
	sess.LeaseType = DefaultLeaseType
	cal.SetAircraft(nil)
	cal.Open()
}

func (s *Service) load(ctx context.Context, id string) (*Session, *calendar.Calendar, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	cal := s.newCalendar()
	cal.Restore(sess.Calendar)
	if sess.AircraftID != "" {
		// The aircraft may have disappeared in a catalog reload.
		if a, ok := s.catalog.Catalog().Get(sess.AircraftID); ok {
			cal.SetAircraft(a)
		} else {
			sess.AircraftID = ""
		}
	}
	return sess, cal, nil
}

func (s *Service) save(ctx context.Context, sess *Session, cal *calendar.Calendar) (*View, error) {
	sess.Calendar = cal.Snapshot()
	sess.UpdatedAt = s.now()
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return s.view(sess, cal), nil
}

func (s *Service) view(sess *Session, cal *calendar.Calendar) *View {
	sel := cal.Selection()
	return &View{
		SessionID:  sess.ID,
		Step:       sess.Step,
		StepName:   sess.Step.String(),
		Progress:   sess.Step.Progress(),
		AircraftID: sess.AircraftID,
		LeaseType:  sess.LeaseType,
		MonthLabel: cal.View().Label(),
		Grid:       cal.Render(),
		Selection:  sel,
		Summary:    BuildSummary(cal.Aircraft(), sel, sess.LeaseType, s.now()),
	}
}
