// Package advisor wraps the external AI classifier behind an advisory-only
// contract: every call returns within a bounded timeout and on any failure
// (network error, malformed response, timeout) yields a documented neutral
// default. Failures are logged and absorbed; they never reach the caller and
// can never block a lifecycle transition.
package advisor

import "context"

// DefaultMatchScore is returned whenever match scoring fails.
// Preserved as a documented constant, not a derived heuristic.
const DefaultMatchScore = 50

// TaskInput describes a task being verified and categorized.
type TaskInput struct {
	Title       string
	Description string
	Category    string
}

// TaskVerification is the advisory result of task verification.
type TaskVerification struct {
	IsValid           bool     `json:"isValid"`
	SuggestedCategory string   `json:"suggestedCategory"`
	SafetyConcerns    []string `json:"safetyConcerns"`
	Suggestions       []string `json:"suggestions"`
}

// HelperProfile describes the candidate helper for match scoring.
type HelperProfile struct {
	Name           string
	Skills         []string
	TrustScore     int
	CompletedTasks int
}

// MatchInput pairs a task with a candidate helper.
type MatchInput struct {
	Task    TaskInput
	Urgency string
	Helper  HelperProfile
}

// UserInput describes a registering user for red-flag checking.
type UserInput struct {
	Name  string
	Email string
	Phone string
	City  string
}

// UserVerification is the advisory result of user verification.
type UserVerification struct {
	IsValid bool   `json:"isValid"`
	Notes   string `json:"notes"`
}

// Advisor is the advisory classifier boundary. Implementations must not
// return errors; the fallback values below are the failure contract.
type Advisor interface {
	VerifyTask(ctx context.Context, in TaskInput) TaskVerification
	MatchHelper(ctx context.Context, in MatchInput) int
	VerifyUser(ctx context.Context, in UserInput) UserVerification
}

func fallbackTaskVerification(in TaskInput) TaskVerification {
	return TaskVerification{
		IsValid:           true,
		SuggestedCategory: in.Category,
	}
}

func fallbackUserVerification() UserVerification {
	return UserVerification{IsValid: true, Notes: "verification pending"}
}

// Static is an Advisor that always returns the neutral defaults. It is used
// when no API key is configured, and it is the behavioral floor every other
// implementation degrades to.
type Static struct{}

// NewStatic returns the default-only advisor.
func NewStatic() Static { return Static{} }

// VerifyTask returns the neutral task verification.
func (Static) VerifyTask(_ context.Context, in TaskInput) TaskVerification {
	return fallbackTaskVerification(in)
}

// MatchHelper returns DefaultMatchScore.
func (Static) MatchHelper(_ context.Context, _ MatchInput) int {
	return DefaultMatchScore
}

// VerifyUser returns the neutral user verification.
func (Static) VerifyUser(_ context.Context, _ UserInput) UserVerification {
	return fallbackUserVerification()
}
