package detail

import "time"

// Appointment is a scheduled consultation.
type Appointment struct {
	ID          int64     `json:"id"`
	TreatmentID int64     `json:"treatment_id"`
	PatientID   int64     `json:"patient_id"`
	FamilyID    int64     `json:"family_id"`
	ClinicID    string    `json:"clinic_id"`
	StaffID     string    `json:"staff_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Status      string    `json:"status"`
}

// Treatment is the clinical record attached to an appointment.
type Treatment struct {
	ID          int64  `json:"id"`
	PatientID   int64  `json:"patient_id"`
	Doctor      string `json:"doctor,omitempty"`
	Department  string `json:"department,omitempty"`
	Status      string `json:"status,omitempty"`
	Unavailable bool   `json:"unavailable,omitempty"`
}

// PaymentHistory is a payment made for a treatment.
type PaymentHistory struct {
	ID          int64     `json:"id,omitempty"`
	TreatmentID int64     `json:"treatment_id,omitempty"`
	Amount      int64     `json:"amount,omitempty"`
	Currency    string    `json:"currency,omitempty"`
	PaidAt      time.Time `json:"paid_at,omitzero"`
	Unavailable bool      `json:"unavailable,omitempty"`
}

// InsuranceCard is a patient's family insurance card.
type InsuranceCard struct {
	PatientID   int64     `json:"patient_id,omitempty" msgpack:"patient_id"`
	FamilyID    int64     `json:"family_id,omitempty" msgpack:"family_id"`
	Number      string    `json:"number,omitempty" msgpack:"number"`
	Insurer     string    `json:"insurer,omitempty" msgpack:"insurer"`
	ValidUntil  time.Time `json:"valid_until,omitzero" msgpack:"valid_until"`
	Unavailable bool      `json:"unavailable,omitempty" msgpack:"unavailable"`
}

// VideoCall is the video consultation state of a treatment.
type VideoCall struct {
	TreatmentID int64  `json:"treatment_id,omitempty"`
	Status      string `json:"status,omitempty"`
	URL         string `json:"url,omitempty"`
	Unavailable bool   `json:"unavailable,omitempty"`
}

// MedicalDocument is the latest medical document of a patient's family.
type MedicalDocument struct {
	ID          int64     `json:"id,omitempty"`
	PatientID   int64     `json:"patient_id,omitempty"`
	Title       string    `json:"title,omitempty"`
	IssuedAt    time.Time `json:"issued_at,omitzero"`
	Unavailable bool      `json:"unavailable,omitempty"`
}

// Fallbacks used when a section could not be loaded.
var (
	ErrorTreatment       = Treatment{Unavailable: true}
	ErrorPaymentHistory  = PaymentHistory{Unavailable: true}
	ErrorInsuranceCard   = InsuranceCard{Unavailable: true}
	ErrorVideoCall       = VideoCall{Unavailable: true}
	ErrorMedicalDocument = MedicalDocument{Unavailable: true}
)

// AppointmentDetail is the assembled view.
type AppointmentDetail struct {
	Appointment             Appointment     `json:"appointment"`
	Treatment               Treatment       `json:"treatment"`
	Payment                 PaymentHistory  `json:"payment"`
	InsuranceCard           InsuranceCard   `json:"insurance_card"`
	VideoCall               VideoCall       `json:"video_call"`
	TestPatient             bool            `json:"test_patient"`
	VideoURLOpenLimitMinute int             `json:"video_url_open_limit_minute"`
	MedicalDocument         MedicalDocument `json:"medical_document"`
}

// DetailResponse is an assembled view together with the aggregation that
// produced it. The view's fields are inlined when encoded.
type DetailResponse struct {
	AppointmentDetail

	// AggregationID correlates the response with logs and spans.
	AggregationID string `json:"aggregation_id"`

	// Degraded names the sections that fell back.
	Degraded []string `json:"degraded,omitempty"`
}
