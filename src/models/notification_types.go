package models

// TypesVersion is bumped whenever a notification type is added, renamed or removed.
const TypesVersion = 1

type NotificationType string

const (
	TypeConnectionRequestMentor                     NotificationType = "CONNECTION_REQUEST_MENTOR"
	TypeConnectionRequestMentorSent                 NotificationType = "CONNECTION_REQUEST_MENTOR_SENT"
	TypeConnectionRequestMentorAccepted             NotificationType = "CONNECTION_REQUEST_MENTOR_ACCEPTED"
	TypeConnectionRequestMentorRejected             NotificationType = "CONNECTION_REQUEST_MENTOR_REJECTED"
	TypeConnectionRequestMentorAcceptedConfirmation NotificationType = "CONNECTION_REQUEST_MENTOR_ACCEPTED_CONFIRMATION"
	TypeConnectionRequestMentorRejectedConfirmation NotificationType = "CONNECTION_REQUEST_MENTOR_REJECTED_CONFIRMATION"

	// Template-only keys with mentee wording for the requesting side.
	TypeConnectionRequestMenteeSent     NotificationType = "CONNECTION_REQUEST_MENTEE_SENT"
	TypeConnectionRequestMenteeAccepted NotificationType = "CONNECTION_REQUEST_MENTEE_ACCEPTED"
	TypeConnectionRequestMenteeRejected NotificationType = "CONNECTION_REQUEST_MENTEE_REJECTED"

	TypeConnectionRequestInvestor                     NotificationType = "CONNECTION_REQUEST_INVESTOR"
	TypeConnectionRequestInvestorSent                 NotificationType = "CONNECTION_REQUEST_INVESTOR_SENT"
	TypeConnectionRequestInvestorAccepted             NotificationType = "CONNECTION_REQUEST_INVESTOR_ACCEPTED"
	TypeConnectionRequestInvestorRejected             NotificationType = "CONNECTION_REQUEST_INVESTOR_REJECTED"
	TypeConnectionRequestInvestorAcceptedConfirmation NotificationType = "CONNECTION_REQUEST_INVESTOR_ACCEPTED_CONFIRMATION"
	TypeConnectionRequestInvestorRejectedConfirmation NotificationType = "CONNECTION_REQUEST_INVESTOR_REJECTED_CONFIRMATION"

	TypePitchDeckRequest                     NotificationType = "PITCH_DECK_REQUEST"
	TypePitchDeckRequestSent                 NotificationType = "PITCH_DECK_REQUEST_SENT"
	TypePitchDeckRequestAccepted             NotificationType = "PITCH_DECK_REQUEST_ACCEPTED"
	TypePitchDeckRequestRejected             NotificationType = "PITCH_DECK_REQUEST_REJECTED"
	TypePitchDeckRequestAcceptedConfirmation NotificationType = "PITCH_DECK_REQUEST_ACCEPTED_CONFIRMATION"
	TypePitchDeckRequestRejectedConfirmation NotificationType = "PITCH_DECK_REQUEST_REJECTED_CONFIRMATION"

	TypeMeetingRequest                     NotificationType = "MEETING_REQUEST"
	TypeMeetingRequestSent                 NotificationType = "MEETING_REQUEST_SENT"
	TypeMeetingRequestAccepted             NotificationType = "MEETING_REQUEST_ACCEPTED"
	TypeMeetingRequestRejected             NotificationType = "MEETING_REQUEST_REJECTED"
	TypeMeetingRequestAcceptedConfirmation NotificationType = "MEETING_REQUEST_ACCEPTED_CONFIRMATION"
	TypeMeetingRequestRejectedConfirmation NotificationType = "MEETING_REQUEST_REJECTED_CONFIRMATION"
)

// AllTypes lists every type a template must exist for.
var AllTypes = []NotificationType{
	TypeConnectionRequestMentor,
	TypeConnectionRequestMentorSent,
	TypeConnectionRequestMentorAccepted,
	TypeConnectionRequestMentorRejected,
	TypeConnectionRequestMentorAcceptedConfirmation,
	TypeConnectionRequestMentorRejectedConfirmation,
	TypeConnectionRequestMenteeSent,
	TypeConnectionRequestMenteeAccepted,
	TypeConnectionRequestMenteeRejected,
	TypeConnectionRequestInvestor,
	TypeConnectionRequestInvestorSent,
	TypeConnectionRequestInvestorAccepted,
	TypeConnectionRequestInvestorRejected,
	TypeConnectionRequestInvestorAcceptedConfirmation,
	TypeConnectionRequestInvestorRejectedConfirmation,
	TypePitchDeckRequest,
	TypePitchDeckRequestSent,
	TypePitchDeckRequestAccepted,
	TypePitchDeckRequestRejected,
	TypePitchDeckRequestAcceptedConfirmation,
	TypePitchDeckRequestRejectedConfirmation,
	TypeMeetingRequest,
	TypeMeetingRequestSent,
	TypeMeetingRequestAccepted,
	TypeMeetingRequestRejected,
	TypeMeetingRequestAcceptedConfirmation,
	TypeMeetingRequestRejectedConfirmation,
}

// Family names the kind of interaction being negotiated.
type Family string

const (
	FamilyMentorConnection   Family = "CONNECTION_REQUEST_MENTOR"
	FamilyInvestorConnection Family = "CONNECTION_REQUEST_INVESTOR"
	FamilyPitchDeck          Family = "PITCH_DECK_REQUEST"
	FamilyMeeting            Family = "MEETING_REQUEST"
)

type FamilyKind string

const (
	FamilyKindConnection FamilyKind = "connection"
	FamilyKindPitchDeck  FamilyKind = "pitch-deck"
	FamilyKindMeeting    FamilyKind = "meeting"
)

// FamilySpec configures one request family. Zero-valued role lists mean any role.
type FamilySpec struct {
	Name            Family
	Kind            FamilyKind
	ConnectionType  ConnectionType
	ActorRoles      []Role
	RecipientRoles  []Role
	ReferenceModels []ReferenceModel
	ReferenceNeeded bool

	Request              NotificationType
	Sent                 NotificationType
	Accepted             NotificationType
	Rejected             NotificationType
	AcceptedConfirmation NotificationType
	RejectedConfirmation NotificationType

	// Actor-facing template keys. Empty when the family renders the actor side
	// from its own type.
	SentTemplate     NotificationType
	AcceptedTemplate NotificationType
	RejectedTemplate NotificationType
}

var families = map[Family]FamilySpec{
	FamilyMentorConnection: {
		Name:                 FamilyMentorConnection,
		Kind:                 FamilyKindConnection,
		ConnectionType:       ConnectionTypeMentor,
		ActorRoles:           []Role{RoleFounder},
		RecipientRoles:       []Role{RoleMentor},
		Request:              TypeConnectionRequestMentor,
		Sent:                 TypeConnectionRequestMentorSent,
		Accepted:             TypeConnectionRequestMentorAccepted,
		Rejected:             TypeConnectionRequestMentorRejected,
		AcceptedConfirmation: TypeConnectionRequestMentorAcceptedConfirmation,
		RejectedConfirmation: TypeConnectionRequestMentorRejectedConfirmation,
		SentTemplate:         TypeConnectionRequestMenteeSent,
		AcceptedTemplate:     TypeConnectionRequestMenteeAccepted,
		RejectedTemplate:     TypeConnectionRequestMenteeRejected,
	},
	FamilyInvestorConnection: {
		Name:                 FamilyInvestorConnection,
		Kind:                 FamilyKindConnection,
		ConnectionType:       ConnectionTypeInvestor,
		ActorRoles:           []Role{RoleFounder},
		RecipientRoles:       []Role{RoleInvestor},
		Request:              TypeConnectionRequestInvestor,
		Sent:                 TypeConnectionRequestInvestorSent,
		Accepted:             TypeConnectionRequestInvestorAccepted,
		Rejected:             TypeConnectionRequestInvestorRejected,
		AcceptedConfirmation: TypeConnectionRequestInvestorAcceptedConfirmation,
		RejectedConfirmation: TypeConnectionRequestInvestorRejectedConfirmation,
	},
	FamilyPitchDeck: {
		Name:                 FamilyPitchDeck,
		Kind:                 FamilyKindPitchDeck,
		ReferenceModels:      []ReferenceModel{ReferenceModelPitch},
		ReferenceNeeded:      true,
		Request:              TypePitchDeckRequest,
		Sent:                 TypePitchDeckRequestSent,
		Accepted:             TypePitchDeckRequestAccepted,
		Rejected:             TypePitchDeckRequestRejected,
		AcceptedConfirmation: TypePitchDeckRequestAcceptedConfirmation,
		RejectedConfirmation: TypePitchDeckRequestRejectedConfirmation,
	},
	FamilyMeeting: {
		Name:                 FamilyMeeting,
		Kind:                 FamilyKindMeeting,
		ReferenceModels:      []ReferenceModel{ReferenceModelPitch, ReferenceModelPitchReview},
		Request:              TypeMeetingRequest,
		Sent:                 TypeMeetingRequestSent,
		Accepted:             TypeMeetingRequestAccepted,
		Rejected:             TypeMeetingRequestRejected,
		AcceptedConfirmation: TypeMeetingRequestAcceptedConfirmation,
		RejectedConfirmation: TypeMeetingRequestRejectedConfirmation,
	},
}

// LookupFamily returns the configuration of a family.
func LookupFamily(name Family) (FamilySpec, bool) {
	spec, ok := families[name]
	return spec, ok
}

// FamilyForConnection maps a connection type to its request family.
func FamilyForConnection(t ConnectionType) (FamilySpec, bool) {
	for _, spec := range families {
		if spec.Kind == FamilyKindConnection && spec.ConnectionType == t {
			return spec, true
		}
	}
	return FamilySpec{}, false
}

func (f FamilySpec) AllowsActor(r Role) bool {
	return roleAllowed(f.ActorRoles, r)
}

func (f FamilySpec) AllowsRecipient(r Role) bool {
	return roleAllowed(f.RecipientRoles, r)
}

func (f FamilySpec) AllowsReference(m ReferenceModel) bool {
	for _, allowed := range f.ReferenceModels {
		if allowed == m {
			return true
		}
	}
	return false
}

func roleAllowed(roles []Role, r Role) bool {
	if len(roles) == 0 {
		return true
	}
	for _, allowed := range roles {
		if allowed == r {
			return true
		}
	}
	return false
}
