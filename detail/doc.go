// Package detail assembles the appointment detail view a clinic staff
// member sees: the appointment itself plus treatment, payment, insurance,
// video call, patient and medical document data from six downstream
// services.
//
// The appointment is fetched first and its absence is an error. Every other
// lookup runs as one branch of a single fan-out aggregation, so a slow or
// failing service leaves its section marked unavailable instead of failing
// the page.
package detail
