package detail

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/fanout/auth"
	"github.com/jonwraymond/fanout/fanout"
)

// AggregationName labels the detail aggregation in logs, metrics and spans.
const AggregationName = "appointment detail"

// Slot order of the detail aggregation. Assemble reads outcomes by these
// positions.
const (
	slotAppointment = iota
	slotTreatment
	slotPayment
	slotInsuranceCard
	slotVideoCall
	slotTestPatient
	slotVideoURLOpenLimit
	slotMedicalDocument
	slotCount
)

// Service builds appointment detail views.
type Service struct {
	clients       Clients
	aggregator    *fanout.Aggregator
	videoURLLimit int
	deadline      time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithVideoURLOpenLimit sets how many minutes before the appointment the
// video URL may be opened.
// Default: 10
func WithVideoURLOpenLimit(minutes int) Option {
	return func(s *Service) {
		s.videoURLLimit = minutes
	}
}

// WithDeadline bounds each detail aggregation.
// Default: the aggregator default.
func WithDeadline(d time.Duration) Option {
	return func(s *Service) {
		s.deadline = d
	}
}

// NewService creates a detail service. It panics if the aggregator or any
// client is nil.
func NewService(clients Clients, aggregator *fanout.Aggregator, opts ...Option) *Service {
	if aggregator == nil {
		panic("detail: nil aggregator")
	}
	if clients.Schedule == nil || clients.Treatment == nil || clients.Payment == nil ||
		clients.Account == nil || clients.VideoCall == nil || clients.Patient == nil {
		panic("detail: missing client")
	}

	s := &Service{
		clients:       clients,
		aggregator:    aggregator,
		videoURLLimit: 10,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetAppointmentDetail loads appointment id and joins every section around
// it. Only a missing staff identity or a failed appointment lookup is an
// error; any other section that fails or times out is replaced by its
// fallback and named in Degraded.
func (s *Service) GetAppointmentDetail(ctx context.Context, staff *auth.Identity, id int64) (DetailResponse, error) {
	if staff == nil {
		return DetailResponse{}, ErrNoStaff
	}

	appt, err := s.clients.Schedule.GetAppointment(ctx, id)
	if err != nil {
		return DetailResponse{}, fmt.Errorf("get appointment %d: %w", id, err)
	}

	r := s.aggregator.Join(ctx, fanout.Request{
		Name:     AggregationName,
		Branches: s.branches(staff, appt),
		Deadline: s.deadline,
	})
	return DetailResponse{
		AppointmentDetail: Assemble(r),
		AggregationID:     r.ID,
		Degraded:          r.Degraded(),
	}, nil
}

func (s *Service) branches(staff *auth.Identity, appt Appointment) []fanout.Branch {
	c := s.clients
	branches := make([]fanout.Branch, slotCount)

	branches[slotAppointment] = fanout.Just("appointment", appt)

	branches[slotTreatment] = fanout.NewTask("get treatment with info",
		func(ctx context.Context) (Treatment, error) {
			return c.Treatment.GetTreatmentWithInfo(ctx, appt.TreatmentID, appt.PatientID)
		},
		ErrorTreatment, fanout.WithDependency(DependencyTreatment))

	branches[slotPayment] = fanout.NewTask("get payment histories",
		func(ctx context.Context) (PaymentHistory, error) {
			histories, err := c.Payment.ListHistories(ctx, appt.TreatmentID)
			if err != nil {
				return PaymentHistory{}, err
			}
			return singleOrEmpty(histories)
		},
		ErrorPaymentHistory, fanout.WithDependency(DependencyPayment))

	branches[slotInsuranceCard] = fanout.NewTask("get patient insurance card",
		func(ctx context.Context) (InsuranceCard, error) {
			return c.Account.GetFamilyInsuranceCard(ctx, appt.PatientID, appt.FamilyID)
		},
		ErrorInsuranceCard, fanout.WithDependency(DependencyAccount))

	branches[slotVideoCall] = fanout.NewTask("get video call status",
		func(ctx context.Context) (VideoCall, error) {
			return c.VideoCall.GetVideoCall(ctx, appt.TreatmentID, staff)
		},
		ErrorVideoCall, fanout.WithDependency(DependencyVideoCall))

	branches[slotTestPatient] = fanout.NewTask("get test patient info",
		func(ctx context.Context) (bool, error) {
			return c.Patient.IsTestPatient(ctx, appt.PatientID, staff.ClinicID)
		},
		false, fanout.WithDependency(DependencyPatient))

	branches[slotVideoURLOpenLimit] = fanout.Just("video url open limit", s.videoURLLimit)

	branches[slotMedicalDocument] = fanout.NewTask("get patient medical document",
		func(ctx context.Context) (MedicalDocument, error) {
			return c.Patient.GetFamilyMedicalDocument(ctx, appt.PatientID, appt.FamilyID)
		},
		ErrorMedicalDocument, fanout.WithDependency(DependencyPatient))

	return branches
}

// singleOrEmpty returns the only history. None yields the unavailable
// marker as a successful value; more than one is a failure.
func singleOrEmpty(histories []PaymentHistory) (PaymentHistory, error) {
	switch len(histories) {
	case 0:
		return ErrorPaymentHistory, nil
	case 1:
		return histories[0], nil
	default:
		return PaymentHistory{}, fmt.Errorf("%w: got %d", ErrMultiplePayments, len(histories))
	}
}

// Assemble builds the detail view from a detail aggregation result. It reads
// slot values only, actual or fallback.
func Assemble(r fanout.Result) AppointmentDetail {
	r.MustLen(slotCount)

	return AppointmentDetail{
		Appointment:             fanout.Value[Appointment](r, slotAppointment),
		Treatment:               fanout.Value[Treatment](r, slotTreatment),
		Payment:                 fanout.Value[PaymentHistory](r, slotPayment),
		InsuranceCard:           fanout.Value[InsuranceCard](r, slotInsuranceCard),
		VideoCall:               fanout.Value[VideoCall](r, slotVideoCall),
		TestPatient:             fanout.Value[bool](r, slotTestPatient),
		VideoURLOpenLimitMinute: fanout.Value[int](r, slotVideoURLOpenLimit),
		MedicalDocument:         fanout.Value[MedicalDocument](r, slotMedicalDocument),
	}
}
