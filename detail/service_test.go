package detail

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonwraymond/fanout/auth"
	"github.com/jonwraymond/fanout/fanout"
	"github.com/jonwraymond/fanout/resilience"
)

var errDown = errors.New("down")

func TestGetAppointmentDetail_Complete(t *testing.T) {
	svc := NewService(NewSimulatedClients(nil), newTestAggregator(t))

	d, err := svc.GetAppointmentDetail(context.Background(), testStaff(), 42)
	require.NoError(t, err)

	assert.Empty(t, d.Degraded)
	assert.NotEmpty(t, d.AggregationID)
	assert.Equal(t, int64(42), d.Appointment.ID)
	assert.Equal(t, int64(420), d.Treatment.ID)
	assert.Equal(t, int64(1042), d.Treatment.PatientID)
	assert.Equal(t, int64(420), d.Payment.TreatmentID)
	assert.False(t, d.Payment.Unavailable)
	assert.Equal(t, "INS-001042-0", d.InsuranceCard.Number)
	assert.Equal(t, "https://video.example.com/rooms/420", d.VideoCall.URL)
	assert.False(t, d.TestPatient)
	assert.Equal(t, 10, d.VideoURLOpenLimitMinute)
	assert.Equal(t, int64(1042), d.MedicalDocument.PatientID)
}

func TestGetAppointmentDetail_AppointmentErrorPropagates(t *testing.T) {
	svc := NewService(NewSimulatedClients(nil), newTestAggregator(t))

	_, err := svc.GetAppointmentDetail(context.Background(), testStaff(), 0)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestGetAppointmentDetail_RequiresStaff(t *testing.T) {
	svc := NewService(NewSimulatedClients(nil), newTestAggregator(t))

	_, err := svc.GetAppointmentDetail(context.Background(), nil, 42)
	assert.ErrorIs(t, err, ErrNoStaff)
}

func TestGetAppointmentDetail_PartialFailure(t *testing.T) {
	clients := NewSimulatedClients(nil)
	clients.Treatment = treatmentFunc(func(context.Context, int64, int64) (Treatment, error) {
		return Treatment{}, errDown
	})
	clients.VideoCall = videoCallFunc(func(ctx context.Context, _ int64, _ *auth.Identity) (VideoCall, error) {
		<-ctx.Done()
		return VideoCall{}, ctx.Err()
	})

	svc := NewService(clients, newTestAggregator(t), WithDeadline(100*time.Millisecond), WithVideoURLOpenLimit(15))

	start := time.Now()
	d, err := svc.GetAppointmentDetail(context.Background(), testStaff(), 42)
	require.NoError(t, err)

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, []string{"get treatment with info", "get video call status"}, d.Degraded)
	assert.Equal(t, ErrorTreatment, d.Treatment)
	assert.Equal(t, ErrorVideoCall, d.VideoCall)
	assert.Equal(t, int64(42), d.Appointment.ID)
	assert.Equal(t, "INS-001042-0", d.InsuranceCard.Number)
	assert.Equal(t, 15, d.VideoURLOpenLimitMinute)
}

func TestGetAppointmentDetail_Payment(t *testing.T) {
	tests := []struct {
		name         string
		histories    []PaymentHistory
		err          error
		want         PaymentHistory
		wantDegraded bool
	}{
		{"single", []PaymentHistory{{ID: 1, Amount: 100}}, nil, PaymentHistory{ID: 1, Amount: 100}, false},
		{"empty", nil, nil, ErrorPaymentHistory, false},
		{"multiple", []PaymentHistory{{ID: 1}, {ID: 2}}, nil, ErrorPaymentHistory, true},
		{"error", nil, errDown, ErrorPaymentHistory, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clients := NewSimulatedClients(nil)
			clients.Payment = paymentFunc(func(context.Context, int64) ([]PaymentHistory, error) {
				return tt.histories, tt.err
			})
			svc := NewService(clients, newTestAggregator(t))

			d, err := svc.GetAppointmentDetail(context.Background(), testStaff(), 42)
			require.NoError(t, err)

			assert.Equal(t, tt.want, d.Payment)
			if tt.wantDegraded {
				assert.Equal(t, []string{"get payment histories"}, d.Degraded)
			} else {
				assert.Empty(t, d.Degraded)
			}
		})
	}
}

func TestGetAppointmentDetail_PassesStaffClinic(t *testing.T) {
	clients := NewSimulatedClients(nil)
	var gotClinic atomic.Value
	clients.Patient = patientFake{
		PatientClient: clients.Patient,
		isTest: func(_ context.Context, _ int64, clinicID string) (bool, error) {
			gotClinic.Store(clinicID)
			return true, nil
		},
	}
	svc := NewService(clients, newTestAggregator(t))

	d, err := svc.GetAppointmentDetail(context.Background(), testStaff(), 42)
	require.NoError(t, err)

	assert.True(t, d.TestPatient)
	assert.Equal(t, "clinic-9", gotClinic.Load())
}

func TestGetAppointmentDetail_TestPatientFallsBackToFalse(t *testing.T) {
	clients := NewSimulatedClients(nil)
	clients.Patient = patientFake{
		PatientClient: clients.Patient,
		isTest: func(context.Context, int64, string) (bool, error) {
			return true, errDown
		},
	}
	svc := NewService(clients, newTestAggregator(t))

	d, err := svc.GetAppointmentDetail(context.Background(), testStaff(), 42)
	require.NoError(t, err)

	assert.False(t, d.TestPatient)
	assert.Equal(t, []string{"get test patient info"}, d.Degraded)
}

func TestGetAppointmentDetail_AccountBreakerOpens(t *testing.T) {
	reg := resilience.NewRegistry()
	require.NoError(t, reg.Register(resilience.NewPolicy(DependencyAccount, resilience.WithBreaker(
		resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Name:         DependencyAccount,
			WindowSize:   2,
			OpenDuration: time.Hour,
		}),
	))))

	var calls atomic.Int32
	clients := NewSimulatedClients(nil)
	clients.Account = accountFunc(func(context.Context, int64, int64) (InsuranceCard, error) {
		calls.Add(1)
		return InsuranceCard{}, errDown
	})
	svc := NewService(clients, newTestAggregator(t, fanout.WithRegistry(reg)))

	for i := 0; i < 4; i++ {
		d, err := svc.GetAppointmentDetail(context.Background(), testStaff(), 42)
		require.NoError(t, err)
		assert.Equal(t, ErrorInsuranceCard, d.InsuranceCard)
		assert.Equal(t, []string{"get patient insurance card"}, d.Degraded)
	}

	assert.Equal(t, int32(2), calls.Load())
	p, _ := reg.Lookup(DependencyAccount)
	assert.Equal(t, resilience.StateOpen, p.Breaker().State())
}

func TestAssemble_DependsOnlyOnSlotValues(t *testing.T) {
	svc := NewService(NewSimulatedClients(nil), newTestAggregator(t))

	first, err := svc.GetAppointmentDetail(context.Background(), testStaff(), 42)
	require.NoError(t, err)
	second, err := svc.GetAppointmentDetail(context.Background(), testStaff(), 42)
	require.NoError(t, err)

	assert.NotEqual(t, first.AggregationID, second.AggregationID)
	assert.Equal(t, first.AppointmentDetail, second.AppointmentDetail)
}

func TestAssemble_WrongLengthPanics(t *testing.T) {
	assert.Panics(t, func() {
		Assemble(fanout.Result{Name: AggregationName})
	})
}

func TestNewService_Panics(t *testing.T) {
	agg := newTestAggregator(t)

	assert.Panics(t, func() { NewService(NewSimulatedClients(nil), nil) })
	assert.Panics(t, func() { NewService(Clients{}, agg) })
}
