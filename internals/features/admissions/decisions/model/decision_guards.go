package model

import (
	helper "schoolerp_backend/internals/helpers"
)

// Guards are pure: they read the decision (and its siblings where needed) and
// return the AppError naming the failed rule. Services call them under row locks.

func (d *DecisionModel) CanReview(outcome Outcome) error {
	if !outcome.Valid() {
		return helper.FieldError("outcome", "must be one of pending, under_review, accepted, rejected, waitlisted")
	}
	if outcome == OutcomeRejected && d.IsEnrolled() {
		return helper.StateErr("REJECT_WHILE_ENROLLED", "an enrolled decision cannot be rejected, withdraw the enrollment first")
	}
	return nil
}

// KeepsStudentChoice reports whether the choice flag survives a review to
// outcome. An enrolled decision stays the applicant's choice until withdrawn.
func (d *DecisionModel) KeepsStudentChoice(outcome Outcome) bool {
	return outcome == OutcomeAccepted || d.IsEnrolled()
}

// CanEnroll checks the decision itself and every sibling decision of the same application.
func (d *DecisionModel) CanEnroll(siblings []DecisionModel) error {
	if d.DecisionOutcome != OutcomeAccepted && d.DecisionOutcome != OutcomePending {
		return helper.StateErr("NOT_ADMITTED", "only accepted or pending decisions can be enrolled").
			With("outcome", d.DecisionOutcome)
	}
	if d.IsEnrolled() {
		return helper.Conflict("ALREADY_ENROLLED", "this decision is already enrolled")
	}
	for i := range siblings {
		s := &siblings[i]
		if s.DecisionID == d.DecisionID {
			continue
		}
		if s.IsEnrolled() {
			return helper.Conflict("ACTIVE_ENROLLMENT_ELSEWHERE",
				"the application is already enrolled at another school, withdraw that enrollment first").
				With("enrolled_decision_id", s.DecisionID).
				With("enrolled_school_id", s.DecisionSchoolID)
		}
	}
	return nil
}

func (d *DecisionModel) CanWithdraw(force bool) error {
	if !d.IsEnrolled() {
		return helper.StateErr("NOT_ENROLLED", "only an enrolled decision can be withdrawn")
	}
	if d.DecisionPaymentFinalized && !force {
		return helper.Conflict("PAYMENT_FINALIZED", "payment is finalized, an administrator must force the withdrawal")
	}
	return nil
}

// CanFinalizePayment returns done=true when the latch is already set; that is
// reported as a failed result rather than an error.
func (d *DecisionModel) CanFinalizePayment() (done bool, err error) {
	if d.DecisionPaymentFinalized {
		return true, nil
	}
	if !d.IsEnrolled() {
		return false, helper.StateErr("NOT_ENROLLED", "payment can only be finalized for an enrolled decision")
	}
	if d.DecisionPaymentStatus != PaymentCompleted {
		return false, helper.StateErr("PAYMENT_NOT_COMPLETED", "payment has not been completed")
	}
	return false, nil
}

func (d *DecisionModel) CanAllocateAccount() error {
	if d.DecisionAccountAllocated {
		return helper.Conflict("ACCOUNT_ALREADY_ALLOCATED", "a student account was already created for this decision")
	}
	if !d.IsEnrolled() {
		return helper.StateErr("NOT_ENROLLED", "only an enrolled decision can receive a student account")
	}
	if !d.DecisionPaymentFinalized {
		return helper.StateErr("PAYMENT_NOT_FINALIZED", "payment must be finalized before a student account is created")
	}
	return nil
}

// CanRecordPayment accepts a gateway confirmation for an enrolled decision.
func (d *DecisionModel) CanRecordPayment() error {
	if !d.IsEnrolled() {
		return helper.StateErr("NOT_ENROLLED", "payment can only be recorded for an enrolled decision")
	}
	if d.DecisionPaymentFinalized {
		return helper.Conflict("PAYMENT_FINALIZED", "payment is already finalized")
	}
	return nil
}

func (d *DecisionModel) CanChoose() error {
	if d.DecisionOutcome != OutcomeAccepted {
		return helper.StateErr("NOT_ADMITTED", "only an accepted decision can be chosen")
	}
	return nil
}
