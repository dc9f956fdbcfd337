package detail

import (
	"context"
	"testing"

	"github.com/jonwraymond/fanout/auth"
	"github.com/jonwraymond/fanout/fanout"
	"github.com/jonwraymond/fanout/pool"
)

func newTestAggregator(t *testing.T, opts ...fanout.GuardOption) *fanout.Aggregator {
	t.Helper()

	p := pool.New(pool.Config{Workers: 16, QueueSize: 64})
	t.Cleanup(p.Close)
	return fanout.NewAggregator(fanout.NewGuard(p, opts...))
}

func testStaff() *auth.Identity {
	return &auth.Identity{StaffID: "staff-1", ClinicID: "clinic-9", Roles: []string{"doctor"}}
}

type treatmentFunc func(ctx context.Context, treatmentID, patientID int64) (Treatment, error)

func (f treatmentFunc) GetTreatmentWithInfo(ctx context.Context, treatmentID, patientID int64) (Treatment, error) {
	return f(ctx, treatmentID, patientID)
}

type paymentFunc func(ctx context.Context, treatmentID int64) ([]PaymentHistory, error)

func (f paymentFunc) ListHistories(ctx context.Context, treatmentID int64) ([]PaymentHistory, error) {
	return f(ctx, treatmentID)
}

type accountFunc func(ctx context.Context, patientID, familyID int64) (InsuranceCard, error)

func (f accountFunc) GetFamilyInsuranceCard(ctx context.Context, patientID, familyID int64) (InsuranceCard, error) {
	return f(ctx, patientID, familyID)
}

type videoCallFunc func(ctx context.Context, treatmentID int64, staff *auth.Identity) (VideoCall, error)

func (f videoCallFunc) GetVideoCall(ctx context.Context, treatmentID int64, staff *auth.Identity) (VideoCall, error) {
	return f(ctx, treatmentID, staff)
}

type patientFake struct {
	PatientClient
	isTest func(ctx context.Context, patientID int64, clinicID string) (bool, error)
}

func (f patientFake) IsTestPatient(ctx context.Context, patientID int64, clinicID string) (bool, error) {
	return f.isTest(ctx, patientID, clinicID)
}
