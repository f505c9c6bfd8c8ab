package bot

// Step names a node in one of the two conversation state machines.
type Step string

// Registration flow steps.
const (
	StepAwaitingAge          Step = "awaiting_age"
	StepAwaitingCitizenship  Step = "awaiting_citizenship"
	StepAwaitingRegion       Step = "awaiting_region"
	StepAwaitingAddress      Step = "awaiting_address"
	StepAwaitingPhone        Step = "awaiting_phone"
	StepAwaitingConfirmation Step = "awaiting_confirmation"
)

// Admin review flow steps.
const (
	StepReviewingApplication    Step = "reviewing_application"
	StepAwaitingMessageToUser   Step = "awaiting_message_to_user"
	StepAwaitingRejectionReason Step = "awaiting_rejection_reason"
)

// UserState is the ephemeral per-user conversation state. It lives only for
// the process lifetime; a user mid-form after a restart simply starts over.
type UserState struct {
	Step        Step
	Age         *int
	Citizenship *string
	RegionCode  string
	RegionName  *string
	Address     *string
	Phone       *string

	// EditingNow marks the single-field detour from the confirmation screen;
	// the next validated answer returns straight to confirmation.
	EditingNow bool

	// ExistingAppID tracks the stored application this conversation updates.
	ExistingAppID *int64

	// Stored name columns, kept so a tracked update only touches what changed.
	PrevUsername *string
	PrevFullName *string
}

// AdminState is the ephemeral per-admin review state.
type AdminState struct {
	Step            Step
	AppID           int64
	ApplicantUserID int64
	ApplicantName   string
	AppStatus       string

	// ReturnPage is the list page the admin came from and goes back to after
	// any terminal action.
	ReturnPage int
}
