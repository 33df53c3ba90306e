package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/theleywin/Backend-Pitch-Review/src/models"
	"github.com/theleywin/Backend-Pitch-Review/src/resolvers"
	"github.com/theleywin/Backend-Pitch-Review/src/store"
	"github.com/theleywin/Backend-Pitch-Review/src/templates"
	"github.com/theleywin/Backend-Pitch-Review/src/testsupport"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fixture struct {
	engine        *Engine
	notifications *testsupport.NotificationStore
	connections   *testsupport.ConnectionStore
	users         *testsupport.Users
	pitches       *testsupport.Pitches
	pusher        *testsupport.Pusher
	registry      *resolvers.Registry

	founder  models.User
	mentor   models.User
	investor models.User
	reviewer models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	tmpl, err := templates.LoadDefault("en")
	if err != nil {
		t.Fatalf("load templates: %v", err)
	}

	f := &fixture{
		notifications: testsupport.NewNotificationStore(),
		connections:   testsupport.NewConnectionStore(),
		users:         testsupport.NewUsers(),
		pitches:       testsupport.NewPitches(),
		pusher:        &testsupport.Pusher{},
	}
	f.founder = f.users.Add(models.User{Name: "Fiona", Role: models.RoleFounder})
	f.mentor = f.users.Add(models.User{Name: "Marco", Role: models.RoleMentor, SchedulingLink: "https://cal.example/marco"})
	f.investor = f.users.Add(models.User{Name: "Ines", Role: models.RoleInvestor})
	f.reviewer = f.users.Add(models.User{Name: "Rita", Role: models.RoleReviewer, Locale: "es"})

	registry := resolvers.NewRegistry()
	registry.Register(models.ReferenceModelPitch, f.pitches)
	registry.Register(models.ReferenceModelUserConnection, resolvers.NewConnectionResolver(f.connections))
	f.registry = registry

	f.engine = NewEngine(Deps{
		Notifications: f.notifications,
		Connections:   f.connections,
		Users:         f.users,
		Pitches:       f.pitches,
		References:    registry,
		Templates:     tmpl,
		Pusher:        f.pusher,
	})
	return f
}

func requireKind(t *testing.T, err error, want Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	if got := KindOf(err); got != want {
		t.Fatalf("expected %s error, got %s (%v)", want, got, err)
	}
}

func TestMentorRequestLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	request, err := f.engine.RequestConnection(ctx, f.founder.Id, f.mentor.Id, models.ConnectionTypeMentor)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if request.Type != models.TypeConnectionRequestMentor || request.ActionStatus != models.ActionStatusRequired {
		t.Fatalf("unexpected request notification: %+v", request)
	}
	if request.Actor != f.founder.Id || request.Recipient != f.mentor.Id {
		t.Fatalf("request parties = %s -> %s", request.Actor.Hex(), request.Recipient.Hex())
	}
	if request.Message != "Fiona would like you to be their mentor." {
		t.Errorf("request message = %q", request.Message)
	}

	mentorInbox := f.notifications.All(f.mentor.Id)
	if len(mentorInbox) != 1 || !mentorInbox[0].Actionable() {
		t.Fatalf("mentor inbox = %+v", mentorInbox)
	}
	founderInbox := f.notifications.All(f.founder.Id)
	if len(founderInbox) != 1 || founderInbox[0].Type != models.TypeConnectionRequestMentorSent {
		t.Fatalf("founder inbox = %+v", founderInbox)
	}
	if founderInbox[0].TemplateKey != models.TypeConnectionRequestMenteeSent {
		t.Errorf("sent template key = %q", founderInbox[0].TemplateKey)
	}
	if founderInbox[0].Message != "You asked Marco to take you on as a mentee." {
		t.Errorf("sent message should use the template key, got %q", founderInbox[0].Message)
	}
	if founderInbox[0].ActionStatus != "" {
		t.Errorf("sent copy should not be actionable")
	}

	confirmation, err := f.engine.Respond(ctx, RespondInput{
		NotificationID: request.Id,
		UserID:         f.mentor.Id,
		Decision:       DecisionAccepted,
	})
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if confirmation.Type != models.TypeConnectionRequestMentorAcceptedConfirmation || confirmation.Recipient != f.mentor.Id {
		t.Fatalf("unexpected confirmation: %+v", confirmation)
	}
	if confirmation.ReferenceObject == nil || confirmation.ReferenceObject.ReferenceModel != models.ReferenceModelUserConnection {
		t.Fatalf("confirmation should reference the connection: %+v", confirmation.ReferenceObject)
	}

	acted, _ := f.notifications.FindByID(ctx, request.Id)
	if acted.ActionStatus != models.ActionStatusCompleted || acted.Status != models.NotificationStatusRead {
		t.Errorf("acted notification = %s/%s", acted.Status, acted.ActionStatus)
	}

	if got := len(f.notifications.All(f.mentor.Id)); got != 2 {
		t.Errorf("mentor inbox has %d items, want 2", got)
	}
	founderInbox = f.notifications.All(f.founder.Id)
	if len(founderInbox) != 2 || founderInbox[0].Type != models.TypeConnectionRequestMentorAccepted {
		t.Fatalf("founder inbox = %+v", founderInbox)
	}
	if founderInbox[0].TemplateKey != models.TypeConnectionRequestMenteeAccepted {
		t.Errorf("result template key = %q", founderInbox[0].TemplateKey)
	}

	_, err = f.engine.Respond(ctx, RespondInput{
		NotificationID: request.Id,
		UserID:         f.mentor.Id,
		Decision:       DecisionAccepted,
	})
	requireKind(t, err, KindIllegalState)
	if f.connections.Len() != 1 {
		t.Errorf("connections = %d, want 1", f.connections.Len())
	}
	if f.notifications.Len() != 4 {
		t.Errorf("notifications = %d, want 4", f.notifications.Len())
	}
}

func TestConnectionVisibleFromBothSides(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	request, err := f.engine.RequestConnection(ctx, f.founder.Id, f.investor.Id, models.ConnectionTypeInvestor)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := f.engine.Respond(ctx, RespondInput{NotificationID: request.Id, UserID: f.investor.Id, Decision: DecisionAccepted}); err != nil {
		t.Fatalf("respond: %v", err)
	}

	for _, tc := range []struct {
		user, other primitive.ObjectID
	}{
		{f.founder.Id, f.investor.Id},
		{f.investor.Id, f.founder.Id},
	} {
		conns, err := f.engine.ListConnections(ctx, tc.user, models.ConnectionTypeInvestor)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(conns) != 1 || conns[0].Other(tc.user) != tc.other {
			t.Fatalf("connections for %s = %+v", tc.user.Hex(), conns)
		}
		between, err := f.engine.ListConnectionsBetween(ctx, tc.user, tc.other, models.ConnectionTypeInvestor)
		if err != nil || len(between) != 1 {
			t.Fatalf("between = %+v, %v", between, err)
		}
	}

	mentorConns, _ := f.engine.ListConnections(ctx, f.founder.Id, models.ConnectionTypeMentor)
	if len(mentorConns) != 0 {
		t.Errorf("mentor connections = %+v", mentorConns)
	}

	_, err = f.engine.RequestConnection(ctx, f.founder.Id, f.investor.Id, models.ConnectionTypeInvestor)
	requireKind(t, err, KindDuplicate)
}

func TestDuplicateRequestCreatesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.engine.RequestConnection(ctx, f.founder.Id, f.mentor.Id, models.ConnectionTypeMentor); err != nil {
		t.Fatalf("first request: %v", err)
	}
	_, err := f.engine.RequestConnection(ctx, f.founder.Id, f.mentor.Id, models.ConnectionTypeMentor)
	requireKind(t, err, KindDuplicate)

	if f.notifications.Len() != 2 {
		t.Errorf("notifications = %d, want 2", f.notifications.Len())
	}
	required := 0
	for _, n := range f.notifications.All(f.mentor.Id) {
		if n.Actionable() {
			required++
		}
	}
	if required != 1 {
		t.Errorf("mentor has %d pending requests, want 1", required)
	}
}

func TestConcurrentDuplicateRequests(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.engine.RequestConnection(ctx, f.founder.Id, f.mentor.Id, models.ConnectionTypeMentor)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if KindOf(err) != KindDuplicate {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 {
		t.Fatalf("%d requests succeeded, want 1", succeeded)
	}
	if f.notifications.Len() != 2 {
		t.Errorf("notifications = %d, want 2", f.notifications.Len())
	}
}

func TestRequestValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		run  func() error
		want Kind
	}{
		{
			name: "self",
			run: func() error {
				_, err := f.engine.RequestMeeting(ctx, f.founder.Id, f.founder.Id, nil)
				return err
			},
			want: KindInvalid,
		},
		{
			name: "unknown recipient",
			run: func() error {
				_, err := f.engine.RequestConnection(ctx, f.founder.Id, primitive.NewObjectID(), models.ConnectionTypeMentor)
				return err
			},
			want: KindNotFound,
		},
		{
			name: "recipient role",
			run: func() error {
				_, err := f.engine.RequestConnection(ctx, f.founder.Id, f.investor.Id, models.ConnectionTypeMentor)
				return err
			},
			want: KindForbidden,
		},
		{
			name: "actor role",
			run: func() error {
				_, err := f.engine.RequestConnection(ctx, f.reviewer.Id, f.mentor.Id, models.ConnectionTypeMentor)
				return err
			},
			want: KindForbidden,
		},
		{
			name: "unknown connection type",
			run: func() error {
				_, err := f.engine.RequestConnection(ctx, f.founder.Id, f.mentor.Id, "friend")
				return err
			},
			want: KindInvalid,
		},
		{
			name: "unknown pitch",
			run: func() error {
				_, err := f.engine.RequestPitchDeck(ctx, f.mentor.Id, primitive.NewObjectID())
				return err
			},
			want: KindNotFound,
		},
		{
			name: "meeting about missing pitch",
			run: func() error {
				ref := &models.Reference{Reference: primitive.NewObjectID(), ReferenceModel: models.ReferenceModelPitch}
				_, err := f.engine.RequestMeeting(ctx, f.founder.Id, f.mentor.Id, ref)
				return err
			},
			want: KindNotFound,
		},
		{
			name: "meeting about a connection",
			run: func() error {
				ref := &models.Reference{Reference: primitive.NewObjectID(), ReferenceModel: models.ReferenceModelUserConnection}
				_, err := f.engine.RequestMeeting(ctx, f.founder.Id, f.mentor.Id, ref)
				return err
			},
			want: KindInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requireKind(t, tt.run(), tt.want)
		})
	}
	if f.notifications.Len() != 0 {
		t.Errorf("failed requests stored %d notifications", f.notifications.Len())
	}
}

func TestRespondChecks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	request, err := f.engine.RequestConnection(ctx, f.founder.Id, f.mentor.Id, models.ConnectionTypeMentor)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	sent := f.notifications.All(f.founder.Id)[0]

	for _, decision := range []Decision{DecisionAccepted, DecisionRejected, "maybe"} {
		_, err := f.engine.Respond(ctx, RespondInput{NotificationID: request.Id, UserID: f.investor.Id, Decision: decision})
		requireKind(t, err, KindForbidden)
	}

	_, err = f.engine.Respond(ctx, RespondInput{NotificationID: primitive.NewObjectID(), UserID: f.mentor.Id, Decision: DecisionAccepted})
	requireKind(t, err, KindNotFound)

	_, err = f.engine.Respond(ctx, RespondInput{NotificationID: request.Id, UserID: f.mentor.Id, Decision: "maybe"})
	requireKind(t, err, KindIllegalState)

	_, err = f.engine.Respond(ctx, RespondInput{NotificationID: sent.Id, UserID: f.founder.Id, Decision: DecisionAccepted})
	requireKind(t, err, KindIllegalState)

	if f.connections.Len() != 0 {
		t.Errorf("connections = %d, want 0", f.connections.Len())
	}
}

func TestRejectCreatesNoConnection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	request, err := f.engine.RequestConnection(ctx, f.founder.Id, f.mentor.Id, models.ConnectionTypeMentor)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	confirmation, err := f.engine.Respond(ctx, RespondInput{NotificationID: request.Id, UserID: f.mentor.Id, Decision: DecisionRejected})
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if confirmation.Type != models.TypeConnectionRequestMentorRejectedConfirmation {
		t.Errorf("confirmation type = %s", confirmation.Type)
	}
	if f.connections.Len() != 0 {
		t.Errorf("connections = %d, want 0", f.connections.Len())
	}
	result := f.notifications.All(f.founder.Id)[0]
	if result.Type != models.TypeConnectionRequestMentorRejected || result.TemplateKey != models.TypeConnectionRequestMenteeRejected {
		t.Errorf("result = %s/%s", result.Type, result.TemplateKey)
	}

	// A rejected request no longer blocks a new one.
	if _, err := f.engine.RequestConnection(ctx, f.founder.Id, f.mentor.Id, models.ConnectionTypeMentor); err != nil {
		t.Errorf("request after rejection: %v", err)
	}
}

func TestPitchDeckRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pitch := f.pitches.Add(models.Pitch{Owner: f.founder.Id, Title: "Orbital", Status: models.PitchStatusSubmitted})

	request, err := f.engine.RequestPitchDeck(ctx, f.mentor.Id, pitch.Id)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if request.Recipient != f.founder.Id {
		t.Fatalf("deck request should go to the pitch owner")
	}
	if request.Message != "Marco requested the deck of Orbital." {
		t.Errorf("message = %q", request.Message)
	}

	_, err = f.engine.Respond(ctx, RespondInput{NotificationID: request.Id, UserID: f.founder.Id, Decision: DecisionAccepted})
	requireKind(t, err, KindUnprocessable)
	if n, _ := f.notifications.FindByID(ctx, request.Id); !n.Actionable() {
		t.Fatalf("failed precondition must leave the request pending")
	}

	const link = "https://link.to.pdf"
	if _, err := f.engine.Respond(ctx, RespondInput{
		NotificationID: request.Id,
		UserID:         f.founder.Id,
		Decision:       DecisionAccepted,
		Payload:        &models.Payload{Value: link},
	}); err != nil {
		t.Fatalf("respond: %v", err)
	}

	result := f.notifications.All(f.mentor.Id)[0]
	if result.Type != models.TypePitchDeckRequestAccepted {
		t.Fatalf("result type = %s", result.Type)
	}
	if result.Payload == nil || result.Payload.Value != link {
		t.Fatalf("result payload = %+v", result.Payload)
	}
	updated, _ := f.pitches.FindPitch(ctx, pitch.Id)
	if !updated.HasDeckAccess(f.mentor.Id) {
		t.Errorf("mentor should have deck access")
	}

	_, err = f.engine.RequestPitchDeck(ctx, f.mentor.Id, pitch.Id)
	requireKind(t, err, KindIllegalState)
}

func TestPitchDeckRequestStates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	draft := f.pitches.Add(models.Pitch{Owner: f.founder.Id, Title: "Draft", Status: models.PitchStatusDraft})
	archived := f.pitches.Add(models.Pitch{Owner: f.founder.Id, Title: "Old", Status: models.PitchStatusArchived})
	own := f.pitches.Add(models.Pitch{Owner: f.founder.Id, Title: "Mine", Status: models.PitchStatusSubmitted})

	_, err := f.engine.RequestPitchDeck(ctx, f.mentor.Id, draft.Id)
	requireKind(t, err, KindNotFound)
	_, err = f.engine.RequestPitchDeck(ctx, f.mentor.Id, archived.Id)
	requireKind(t, err, KindIllegalState)
	_, err = f.engine.RequestPitchDeck(ctx, f.founder.Id, own.Id)
	requireKind(t, err, KindInvalid)
}

func TestAcceptRechecksPitchState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pitch := f.pitches.Add(models.Pitch{Owner: f.founder.Id, Title: "Orbital", Status: models.PitchStatusSubmitted, DeckURL: "https://decks.example/orbital"})

	request, err := f.engine.RequestPitchDeck(ctx, f.mentor.Id, pitch.Id)
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	archived := pitch
	archived.Status = models.PitchStatusArchived
	f.pitches.Add(archived)

	_, err = f.engine.Respond(ctx, RespondInput{NotificationID: request.Id, UserID: f.founder.Id, Decision: DecisionAccepted})
	requireKind(t, err, KindIllegalState)

	stored, _ := f.pitches.FindPitch(ctx, pitch.Id)
	if stored.HasDeckAccess(f.mentor.Id) {
		t.Fatalf("archived pitch must not share its deck")
	}
	if n, _ := f.notifications.FindByID(ctx, request.Id); !n.Actionable() {
		t.Fatalf("request should still be pending")
	}
	if got := len(f.notifications.All(f.mentor.Id)); got != 1 {
		t.Fatalf("mentor notifications = %d, want only the sent copy", got)
	}

	// Declining is still possible.
	if _, err := f.engine.Respond(ctx, RespondInput{NotificationID: request.Id, UserID: f.founder.Id, Decision: DecisionRejected}); err != nil {
		t.Fatalf("reject: %v", err)
	}
}

func TestAcceptRechecksDraftVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pitch := f.pitches.Add(models.Pitch{Owner: f.founder.Id, Title: "Orbital", Status: models.PitchStatusSubmitted})

	request, err := f.engine.RequestPitchDeck(ctx, f.investor.Id, pitch.Id)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	draft := pitch
	draft.Status = models.PitchStatusDraft
	f.pitches.Add(draft)

	_, err = f.engine.Respond(ctx, RespondInput{
		NotificationID: request.Id,
		UserID:         f.founder.Id,
		Decision:       DecisionAccepted,
		Payload:        &models.Payload{Value: "https://link.to.pdf"},
	})
	requireKind(t, err, KindNotFound)
	if n, _ := f.notifications.FindByID(ctx, request.Id); !n.Actionable() {
		t.Fatalf("request should still be pending")
	}
}

func TestAcceptRechecksReviewReference(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var mu sync.Mutex
	deleted := false
	review := primitive.NewObjectID()
	f.registry.Register(models.ReferenceModelPitchReview, resolvers.ResolverFunc(func(_ context.Context, id primitive.ObjectID) (*resolvers.DomainRef, error) {
		mu.Lock()
		defer mu.Unlock()
		if deleted || id != review {
			return nil, store.ErrNotFound
		}
		return &resolvers.DomainRef{Model: models.ReferenceModelPitchReview, ID: id}, nil
	}))

	ref := &models.Reference{Reference: review, ReferenceModel: models.ReferenceModelPitchReview}
	request, err := f.engine.RequestMeeting(ctx, f.founder.Id, f.mentor.Id, ref)
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	mu.Lock()
	deleted = true
	mu.Unlock()

	_, err = f.engine.Respond(ctx, RespondInput{NotificationID: request.Id, UserID: f.mentor.Id, Decision: DecisionAccepted})
	requireKind(t, err, KindNotFound)
	if n, _ := f.notifications.FindByID(ctx, request.Id); !n.Actionable() {
		t.Fatalf("request should still be pending")
	}
}

func TestPitchDeckAcceptUsesStoredDeck(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pitch := f.pitches.Add(models.Pitch{Owner: f.founder.Id, Title: "Orbital", Status: models.PitchStatusApproved, DeckURL: "https://decks.example/orbital"})

	request, err := f.engine.RequestPitchDeck(ctx, f.investor.Id, pitch.Id)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := f.engine.Respond(ctx, RespondInput{NotificationID: request.Id, UserID: f.founder.Id, Decision: DecisionAccepted}); err != nil {
		t.Fatalf("respond: %v", err)
	}
	result := f.notifications.All(f.investor.Id)[0]
	if result.Payload == nil || result.Payload.Value != pitch.DeckURL {
		t.Errorf("result payload = %+v", result.Payload)
	}
}

func TestMeetingRequestNeedsSchedulingLink(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	request, err := f.engine.RequestMeeting(ctx, f.mentor.Id, f.investor.Id, nil)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	_, err = f.engine.Respond(ctx, RespondInput{NotificationID: request.Id, UserID: f.investor.Id, Decision: DecisionAccepted})
	requireKind(t, err, KindUnprocessable)

	if _, err := f.engine.Respond(ctx, RespondInput{NotificationID: request.Id, UserID: f.investor.Id, Decision: DecisionRejected}); err != nil {
		t.Fatalf("reject should not need a link: %v", err)
	}

	second, err := f.engine.RequestMeeting(ctx, f.investor.Id, f.mentor.Id, nil)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := f.engine.Respond(ctx, RespondInput{NotificationID: second.Id, UserID: f.mentor.Id, Decision: DecisionAccepted}); err != nil {
		t.Fatalf("respond: %v", err)
	}
	result := f.notifications.All(f.investor.Id)[0]
	if result.Payload == nil || result.Payload.Value != f.mentor.SchedulingLink {
		t.Fatalf("result payload = %+v", result.Payload)
	}
	if result.Message != "Marco accepted your meeting request. Pick a slot: https://cal.example/marco" {
		t.Errorf("message = %q", result.Message)
	}
	if result.TemplateKey != "" {
		t.Errorf("meeting results carry no template key")
	}
}

func TestMessagesUseRecipientLocale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	request, err := f.engine.RequestMeeting(ctx, f.founder.Id, f.reviewer.Id, nil)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if request.Message != "Fiona quiere reunirse contigo." {
		t.Errorf("message = %q", request.Message)
	}
	sent := f.notifications.All(f.founder.Id)[0]
	if sent.Message != "You asked Rita for a meeting." {
		t.Errorf("sent message = %q", sent.Message)
	}
}

func TestRespondReopensWhenOutcomeCannotBeStored(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	request, err := f.engine.RequestConnection(ctx, f.founder.Id, f.mentor.Id, models.ConnectionTypeMentor)
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	f.connections.FailCreate = errors.New("connection refused")
	_, err = f.engine.Respond(ctx, RespondInput{NotificationID: request.Id, UserID: f.mentor.Id, Decision: DecisionAccepted})
	requireKind(t, err, KindInternal)
	if n, _ := f.notifications.FindByID(ctx, request.Id); !n.Actionable() {
		t.Fatalf("request should be pending again")
	}

	f.notifications.FailInsert = errors.New("write conflict")
	_, err = f.engine.Respond(ctx, RespondInput{NotificationID: request.Id, UserID: f.mentor.Id, Decision: DecisionRejected})
	requireKind(t, err, KindInternal)
	if n, _ := f.notifications.FindByID(ctx, request.Id); !n.Actionable() {
		t.Fatalf("request should be pending again")
	}

	if _, err := f.engine.Respond(ctx, RespondInput{NotificationID: request.Id, UserID: f.mentor.Id, Decision: DecisionAccepted}); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if f.connections.Len() != 1 {
		t.Errorf("connections = %d, want 1", f.connections.Len())
	}
}

func TestListAndMarkRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pitch := f.pitches.Add(models.Pitch{Owner: f.founder.Id, Title: "Orbital", Status: models.PitchStatusSubmitted})

	if _, err := f.engine.RequestConnection(ctx, f.founder.Id, f.mentor.Id, models.ConnectionTypeMentor); err != nil {
		t.Fatalf("request: %v", err)
	}
	deck, err := f.engine.RequestPitchDeck(ctx, f.mentor.Id, pitch.Id)
	if err != nil {
		t.Fatalf("deck request: %v", err)
	}

	list, err := f.engine.ListForUser(ctx, f.founder.Id)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list.Notifications) != 2 || list.BadgeCount != 2 {
		t.Fatalf("list = %d items, badge %d", len(list.Notifications), list.BadgeCount)
	}
	newest := list.Notifications[0]
	if newest.Id != deck.Id {
		t.Fatalf("newest should be the deck request")
	}
	if newest.Reference == nil || newest.Reference.Title != "Orbital" {
		t.Errorf("reference summary = %+v", newest.Reference)
	}

	_, err = f.engine.MarkRead(ctx, deck.Id, f.mentor.Id)
	requireKind(t, err, KindForbidden)

	for i := 0; i < 2; i++ {
		read, err := f.engine.MarkRead(ctx, deck.Id, f.founder.Id)
		if err != nil {
			t.Fatalf("mark read #%d: %v", i+1, err)
		}
		if read.Status != models.NotificationStatusRead || !read.Actionable() {
			t.Fatalf("after mark read: %s/%s", read.Status, read.ActionStatus)
		}
	}

	list, _ = f.engine.ListForUser(ctx, f.founder.Id)
	if list.BadgeCount != 1 {
		t.Errorf("badge = %d, want 1", list.BadgeCount)
	}

	if _, err := f.engine.Respond(ctx, RespondInput{
		NotificationID: deck.Id,
		UserID:         f.founder.Id,
		Decision:       DecisionAccepted,
		Payload:        &models.Payload{Value: "https://deck"},
	}); err != nil {
		t.Fatalf("respond after read: %v", err)
	}
}

func TestPushesCarryBadgeCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	request, err := f.engine.RequestConnection(ctx, f.founder.Id, f.mentor.Id, models.ConnectionTypeMentor)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	pushed := f.pusher.For(f.mentor.Id)
	if len(pushed) != 1 {
		t.Fatalf("mentor pushes = %d, want 1", len(pushed))
	}
	if pushed[0].NotificationID != request.Id.Hex() || pushed[0].Badge != 1 || !pushed[0].ActionRequired {
		t.Errorf("push = %+v", pushed[0])
	}

	if _, err := f.engine.Respond(ctx, RespondInput{NotificationID: request.Id, UserID: f.mentor.Id, Decision: DecisionAccepted}); err != nil {
		t.Fatalf("respond: %v", err)
	}
	founderPushes := f.pusher.For(f.founder.Id)
	if len(founderPushes) != 1 || founderPushes[0].Type != models.TypeConnectionRequestMentorAccepted {
		t.Fatalf("founder pushes = %+v", founderPushes)
	}
	if founderPushes[0].Badge != 2 {
		t.Errorf("founder badge = %d, want 2", founderPushes[0].Badge)
	}
	if got := len(f.pusher.For(f.mentor.Id)); got != 2 {
		t.Errorf("mentor pushes = %d, want 2", got)
	}
}
