package detail

import (
	"context"

	"github.com/jonwraymond/fanout/auth"
)

// ScheduleClient reads appointments.
type ScheduleClient interface {
	GetAppointment(ctx context.Context, id int64) (Appointment, error)
}

// TreatmentClient reads treatments.
type TreatmentClient interface {
	GetTreatmentWithInfo(ctx context.Context, treatmentID, patientID int64) (Treatment, error)
}

// PaymentClient reads payment histories.
type PaymentClient interface {
	ListHistories(ctx context.Context, treatmentID int64) ([]PaymentHistory, error)
}

// AccountClient reads patient account data.
type AccountClient interface {
	GetFamilyInsuranceCard(ctx context.Context, patientID, familyID int64) (InsuranceCard, error)
}

// VideoCallClient reads video call state as seen by a staff member.
type VideoCallClient interface {
	GetVideoCall(ctx context.Context, treatmentID int64, staff *auth.Identity) (VideoCall, error)
}

// PatientClient reads patient records.
type PatientClient interface {
	IsTestPatient(ctx context.Context, patientID int64, clinicID string) (bool, error)
	GetFamilyMedicalDocument(ctx context.Context, patientID, familyID int64) (MedicalDocument, error)
}

// Clients bundles the downstream services the detail view reads from.
type Clients struct {
	Schedule  ScheduleClient
	Treatment TreatmentClient
	Payment   PaymentClient
	Account   AccountClient
	VideoCall VideoCallClient
	Patient   PatientClient
}

// Dependency names the branches run under. Each maps to a resilience
// policy in the guard's registry.
const (
	DependencyTreatment = "treatment"
	DependencyPayment   = "payment"
	DependencyAccount   = "account"
	DependencyVideoCall = "videocall"
	DependencyPatient   = "patient"
)
