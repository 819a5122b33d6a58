package patients

import "errors"

var (
	// ErrPatientNotFound is returned when a patient record does not exist
	ErrPatientNotFound = errors.New("patient not found")

	// ErrMissingRegistrationFields is returned when the intake form is incomplete
	ErrMissingRegistrationFields = errors.New("name, date and time are required")

	// ErrChartIncomplete is returned when the doctor submits without a
	// diagnosis or without at least one treatment
	ErrChartIncomplete = errors.New("a diagnosis and at least one treatment (medicine or injection) are required")

	// ErrBillingIncomplete is returned when the cashier submits without an
	// amount or a destination
	ErrBillingIncomplete = errors.New("a billing amount and a destination are required")

	// ErrTestResultsRequired is returned when the lab submits empty results
	ErrTestResultsRequired = errors.New("test results are required")

	// ErrMedicationRequired is returned when the pharmacy submits without
	// medication details
	ErrMedicationRequired = errors.New("medication details are required")

	// ErrWrongStage is returned when a transition is applied to a patient
	// whose current status does not match the transition's from-state
	ErrWrongStage = errors.New("patient is not at the expected workflow stage")

	// ErrInvalidNextStep is returned for a routing choice outside {pharmacy, lab}
	ErrInvalidNextStep = errors.New("next step must be pharmacy or lab")

	// ErrInvalidDestination is returned for a billing destination outside {Lab, Pharmacy}
	ErrInvalidDestination = errors.New("destination must be Lab or Pharmacy")
)
