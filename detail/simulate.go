package detail

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/jonwraymond/fanout/auth"
)

// Profile shapes a simulated downstream service.
type Profile struct {
	// Latency is the base response time.
	Latency time.Duration

	// Jitter adds a uniform random delay in [0, Jitter).
	Jitter time.Duration

	// FailureRate is the probability in [0, 1] that a call fails with
	// ErrUnavailable.
	FailureRate float64
}

// simulated delays and fails calls according to its profile.
type simulated struct {
	name    string
	profile Profile
}

func (s simulated) call(ctx context.Context) error {
	delay := s.profile.Latency
	if s.profile.Jitter > 0 {
		delay += rand.N(s.profile.Jitter)
	}
	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if s.profile.FailureRate > 0 && rand.Float64() < s.profile.FailureRate {
		return fmt.Errorf("%w: %s", ErrUnavailable, s.name)
	}
	return nil
}

// NewSimulatedClients returns in-process clients that fabricate
// deterministic records for any positive appointment ID. Profiles are keyed
// by "schedule" and the Dependency* names; missing keys respond at once.
func NewSimulatedClients(profiles map[string]Profile) Clients {
	sim := func(name string) simulated {
		return simulated{name: name, profile: profiles[name]}
	}
	return Clients{
		Schedule:  simSchedule{sim("schedule")},
		Treatment: simTreatment{sim(DependencyTreatment)},
		Payment:   simPayment{sim(DependencyPayment)},
		Account:   simAccount{sim(DependencyAccount)},
		VideoCall: simVideoCall{sim(DependencyVideoCall)},
		Patient:   simPatient{sim(DependencyPatient)},
	}
}

// epoch anchors fabricated timestamps so records are stable across calls.
var epoch = time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

type simSchedule struct{ simulated }

func (s simSchedule) GetAppointment(ctx context.Context, id int64) (Appointment, error) {
	if err := s.call(ctx); err != nil {
		return Appointment{}, err
	}
	if id <= 0 {
		return Appointment{}, fmt.Errorf("%w: %d", ErrAppointmentNotFound, id)
	}
	return Appointment{
		ID:          id,
		TreatmentID: id * 10,
		PatientID:   1000 + id%100,
		FamilyID:    id % 3,
		ClinicID:    fmt.Sprintf("clinic-%d", id%5),
		StaffID:     fmt.Sprintf("staff-%d", id%7),
		ScheduledAt: epoch.Add(time.Duration(id) * 30 * time.Minute),
		Status:      "booked",
	}, nil
}

type simTreatment struct{ simulated }

func (s simTreatment) GetTreatmentWithInfo(ctx context.Context, treatmentID, patientID int64) (Treatment, error) {
	if err := s.call(ctx); err != nil {
		return Treatment{}, err
	}
	return Treatment{
		ID:         treatmentID,
		PatientID:  patientID,
		Doctor:     fmt.Sprintf("doctor-%d", treatmentID%4),
		Department: "internal medicine",
		Status:     "in_progress",
	}, nil
}

type simPayment struct{ simulated }

// ListHistories returns no history for treatment IDs that are multiples of
// 100 and a single one otherwise.
func (s simPayment) ListHistories(ctx context.Context, treatmentID int64) ([]PaymentHistory, error) {
	if err := s.call(ctx); err != nil {
		return nil, err
	}
	if treatmentID%100 == 0 {
		return nil, nil
	}
	return []PaymentHistory{{
		ID:          treatmentID * 7,
		TreatmentID: treatmentID,
		Amount:      15000,
		Currency:    "KRW",
		PaidAt:      epoch.Add(time.Duration(treatmentID) * time.Minute),
	}}, nil
}

type simAccount struct{ simulated }

func (s simAccount) GetFamilyInsuranceCard(ctx context.Context, patientID, familyID int64) (InsuranceCard, error) {
	if err := s.call(ctx); err != nil {
		return InsuranceCard{}, err
	}
	return InsuranceCard{
		PatientID:  patientID,
		FamilyID:   familyID,
		Number:     fmt.Sprintf("INS-%06d-%d", patientID, familyID),
		Insurer:    "national health",
		ValidUntil: epoch.AddDate(1, 0, 0),
	}, nil
}

type simVideoCall struct{ simulated }

func (s simVideoCall) GetVideoCall(ctx context.Context, treatmentID int64, staff *auth.Identity) (VideoCall, error) {
	if err := s.call(ctx); err != nil {
		return VideoCall{}, err
	}
	vc := VideoCall{TreatmentID: treatmentID, Status: "scheduled"}
	if staff.HasRole("doctor") {
		vc.URL = fmt.Sprintf("https://video.example.com/rooms/%d", treatmentID)
	}
	return vc, nil
}

type simPatient struct{ simulated }

// IsTestPatient reports patients with IDs ending in 99 as test patients.
func (s simPatient) IsTestPatient(ctx context.Context, patientID int64, _ string) (bool, error) {
	if err := s.call(ctx); err != nil {
		return false, err
	}
	return patientID%100 == 99, nil
}

func (s simPatient) GetFamilyMedicalDocument(ctx context.Context, patientID, familyID int64) (MedicalDocument, error) {
	if err := s.call(ctx); err != nil {
		return MedicalDocument{}, err
	}
	return MedicalDocument{
		ID:        patientID*10 + familyID,
		PatientID: patientID,
		Title:     "medical certificate",
		IssuedAt:  epoch.AddDate(0, -1, 0),
	}, nil
}
