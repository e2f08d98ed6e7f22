package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/interimgrowthcollective/portal-system/internal/core/domain"
)

type stubUserRepo struct {
	mu      sync.Mutex
	users   map[string]*domain.ClientUser // keyed by normalized email
	touched map[string]time.Time
	findErr error
}

func newStubUserRepo(users ...*domain.ClientUser) *stubUserRepo {
	r := &stubUserRepo{users: make(map[string]*domain.ClientUser), touched: make(map[string]time.Time)}
	for _, u := range users {
		r.users[u.Email] = u
	}
	return r
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.ClientUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	u, ok := r.users[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *stubUserRepo) TouchLastLogin(_ context.Context, userID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touched[userID] = at
	return nil
}

// stubCodeRepo implements the conditional consume with a mutex so the
// concurrency test exercises the same only-one-caller-gets-the-row contract as
// the real store.
type stubCodeRepo struct {
	mu        sync.Mutex
	rows      []*domain.LoginCode
	nextID    int
	createErr error
}

func (r *stubCodeRepo) Create(_ context.Context, code *domain.LoginCode) (*domain.LoginCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.nextID++
	stored := *code
	stored.ID = fmt.Sprintf("code-%d", r.nextID)
	r.rows = append(r.rows, &stored)
	clone := stored
	return &clone, nil
}

func (r *stubCodeRepo) Consume(_ context.Context, userID, code string, now time.Time) (*domain.LoginCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matching := make([]*domain.LoginCode, 0, len(r.rows))
	for _, row := range r.rows {
		if row.UserID == userID && row.Code == code {
			matching = append(matching, row)
		}
	}
	sort.Slice(matching, func(i, j int) bool { return matching[i].CreatedAt.After(matching[j].CreatedAt) })

	for _, row := range matching {
		if row.Valid(now) {
			row.Consumed = true
			clone := *row
			return &clone, nil
		}
	}

	if len(matching) == 0 {
		return nil, domain.ErrCodeNotFound
	}
	if matching[0].Consumed {
		return nil, domain.ErrCodeConsumed
	}
	return nil, domain.ErrCodeExpired
}

type stubOrgRepo struct {
	orgs    map[string]*domain.Organization
	findErr error
}

func (r *stubOrgRepo) FindByID(_ context.Context, id string) (*domain.Organization, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	org, ok := r.orgs[id]
	if !ok {
		return nil, errors.New("organization not found")
	}
	clone := *org
	return &clone, nil
}

type stubMailer struct {
	mu      sync.Mutex
	sent    int
	lastTo  string
	lastMsg string
	sendErr error
}

func (m *stubMailer) Send(_ context.Context, to, _ string, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent++
	m.lastTo = to
	m.lastMsg = htmlBody
	return nil
}

func annaUser() *domain.ClientUser {
	return &domain.ClientUser{ID: "u-1", Email: "anna@bolag.se", Name: "Anna", CompanyID: "co-1"}
}

func testFixture(users ...*domain.ClientUser) (*stubUserRepo, *stubCodeRepo, *stubOrgRepo, *stubMailer, *authService) {
	userRepo := newStubUserRepo(users...)
	codeRepo := &stubCodeRepo{}
	orgRepo := &stubOrgRepo{orgs: map[string]*domain.Organization{
		"co-1": {ID: "co-1", Name: "Bolag AB"},
	}}
	mailer := &stubMailer{}
	svc := NewAuthService(userRepo, codeRepo, orgRepo, mailer, 15*time.Minute, zerolog.Nop()).(*authService)
	return userRepo, codeRepo, orgRepo, mailer, svc
}

var sixDigits = regexp.MustCompile(`^\d{6}$`)

func TestAuthService_RequestCode_HappyPath(t *testing.T) {
	_, codeRepo, _, mailer, svc := testFixture(annaUser())

	msg, err := svc.RequestCode(context.Background(), "anna@bolag.se")
	if err != nil {
		t.Fatalf("RequestCode returned error: %v", err)
	}
	if msg == "" {
		t.Fatalf("expected acknowledgment message")
	}

	if len(codeRepo.rows) != 1 {
		t.Fatalf("expected 1 code row, got %d", len(codeRepo.rows))
	}
	row := codeRepo.rows[0]
	if !sixDigits.MatchString(row.Code) {
		t.Fatalf("expected zero-padded 6-digit code, got %q", row.Code)
	}
	if row.UserID != "u-1" {
		t.Fatalf("unexpected user id: %s", row.UserID)
	}
	ttl := row.ExpiresAt.Sub(row.CreatedAt)
	if ttl != 15*time.Minute {
		t.Fatalf("expected 15m expiry window, got %v", ttl)
	}

	if mailer.sent != 1 || mailer.lastTo != "anna@bolag.se" {
		t.Fatalf("expected 1 email to anna, got %d to %q", mailer.sent, mailer.lastTo)
	}
	if !strings.Contains(mailer.lastMsg, row.Code) {
		t.Fatalf("email body does not contain the code")
	}
}

func TestAuthService_RequestCode_UnknownEmail_AntiEnumeration(t *testing.T) {
	_, codeRepo, _, mailer, svc := testFixture(annaUser())

	knownMsg, err := svc.RequestCode(context.Background(), "anna@bolag.se")
	if err != nil {
		t.Fatalf("known email: %v", err)
	}

	unknownMsg, err := svc.RequestCode(context.Background(), "nobody@nowhere.se")
	if err != nil {
		t.Fatalf("unknown email must not error: %v", err)
	}

	// Byte-identical acknowledgment is the security control, not a nicety.
	if unknownMsg != knownMsg {
		t.Fatalf("acknowledgments differ:\n known:   %q\n unknown: %q", knownMsg, unknownMsg)
	}
	if len(codeRepo.rows) != 1 {
		t.Fatalf("unknown email must not create code rows, have %d", len(codeRepo.rows))
	}
	if mailer.sent != 1 {
		t.Fatalf("unknown email must not send mail, sent=%d", mailer.sent)
	}
}

func TestAuthService_RequestCode_NonEmailString_SameAck(t *testing.T) {
	_, codeRepo, _, mailer, svc := testFixture(annaUser())

	knownMsg, err := svc.RequestCode(context.Background(), "anna@bolag.se")
	if err != nil {
		t.Fatalf("known email: %v", err)
	}

	// Input is any string; something that is not even email-shaped takes the
	// same unknown-address exit as a well-formed stranger.
	malformedMsg, err := svc.RequestCode(context.Background(), "notanemail")
	if err != nil {
		t.Fatalf("malformed input must not error: %v", err)
	}
	if malformedMsg != knownMsg {
		t.Fatalf("acknowledgments differ:\n known:     %q\n malformed: %q", knownMsg, malformedMsg)
	}
	if len(codeRepo.rows) != 1 || mailer.sent != 1 {
		t.Fatalf("malformed input must have no side effects, rows=%d sent=%d", len(codeRepo.rows), mailer.sent)
	}
}

func TestAuthService_RequestCode_NormalizesEmail(t *testing.T) {
	_, codeRepo, _, _, svc := testFixture(annaUser())

	if _, err := svc.RequestCode(context.Background(), "  ANNA@Bolag.SE "); err != nil {
		t.Fatalf("RequestCode returned error: %v", err)
	}
	if len(codeRepo.rows) != 1 {
		t.Fatalf("expected lookup to hit after normalization")
	}
}

func TestAuthService_RequestCode_PersistFailure(t *testing.T) {
	_, codeRepo, _, mailer, svc := testFixture(annaUser())
	codeRepo.createErr = errors.New("mongo down")

	if _, err := svc.RequestCode(context.Background(), "anna@bolag.se"); !errors.Is(err, domain.ErrSessionCreate) {
		t.Fatalf("expected ErrSessionCreate, got %v", err)
	}
	if mailer.sent != 0 {
		t.Fatalf("no email should go out when persistence fails")
	}
}

func TestAuthService_RequestCode_MailFailure(t *testing.T) {
	_, codeRepo, _, mailer, svc := testFixture(annaUser())
	mailer.sendErr = errors.New("smtp timeout")

	// Delivery failure is loud: the user has no way to receive the code.
	if _, err := svc.RequestCode(context.Background(), "anna@bolag.se"); !errors.Is(err, domain.ErrEmailSend) {
		t.Fatalf("expected ErrEmailSend, got %v", err)
	}
	if len(codeRepo.rows) != 1 {
		t.Fatalf("code row is created before the send attempt")
	}
}

func TestAuthService_VerifyCode_HappyPath(t *testing.T) {
	userRepo, codeRepo, _, _, svc := testFixture(annaUser())

	if _, err := svc.RequestCode(context.Background(), "anna@bolag.se"); err != nil {
		t.Fatalf("request: %v", err)
	}
	code := codeRepo.rows[0].Code

	session, err := svc.VerifyCode(context.Background(), "anna@bolag.se", code)
	if err != nil {
		t.Fatalf("VerifyCode returned error: %v", err)
	}
	if session.ID != codeRepo.rows[0].ID {
		t.Fatalf("session id should reference the consumed code row, got %q", session.ID)
	}
	u := session.User
	if u.ID != "u-1" || u.Name != "Anna" || u.Email != "anna@bolag.se" || u.CompanyID != "co-1" || u.CompanyName != "Bolag AB" {
		t.Fatalf("unexpected session user: %+v", u)
	}
	if !codeRepo.rows[0].Consumed {
		t.Fatalf("code row must be marked consumed")
	}
	if _, ok := userRepo.touched["u-1"]; !ok {
		t.Fatalf("last login must be recorded")
	}
}

func TestAuthService_VerifyCode_WrongCode(t *testing.T) {
	_, codeRepo, _, _, svc := testFixture(annaUser())

	if _, err := svc.RequestCode(context.Background(), "anna@bolag.se"); err != nil {
		t.Fatalf("request: %v", err)
	}
	wrong := "000000"
	if codeRepo.rows[0].Code == wrong {
		wrong = "000001"
	}

	if _, err := svc.VerifyCode(context.Background(), "anna@bolag.se", wrong); !errors.Is(err, domain.ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode, got %v", err)
	}
}

func TestAuthService_VerifyCode_UnknownEmail(t *testing.T) {
	_, _, _, _, svc := testFixture(annaUser())

	// Same opaque failure as a wrong code for a real account.
	if _, err := svc.VerifyCode(context.Background(), "ghost@nowhere.se", "123456"); !errors.Is(err, domain.ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode, got %v", err)
	}
}

func TestAuthService_VerifyCode_MissingFields(t *testing.T) {
	_, _, _, _, svc := testFixture(annaUser())

	if _, err := svc.VerifyCode(context.Background(), "anna@bolag.se", ""); !errors.Is(err, domain.ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}
	if _, err := svc.VerifyCode(context.Background(), "", "123456"); !errors.Is(err, domain.ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}
}

func TestAuthService_VerifyCode_SingleUse(t *testing.T) {
	_, codeRepo, _, _, svc := testFixture(annaUser())

	if _, err := svc.RequestCode(context.Background(), "anna@bolag.se"); err != nil {
		t.Fatalf("request: %v", err)
	}
	code := codeRepo.rows[0].Code

	if _, err := svc.VerifyCode(context.Background(), "anna@bolag.se", code); err != nil {
		t.Fatalf("first verify: %v", err)
	}
	// Replay inside the expiry window still fails: the consumed flag blocks it.
	if _, err := svc.VerifyCode(context.Background(), "anna@bolag.se", code); !errors.Is(err, domain.ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode on replay, got %v", err)
	}
}

func TestAuthService_VerifyCode_Expired(t *testing.T) {
	_, codeRepo, _, _, svc := testFixture(annaUser())

	// Pre-expired fixture row, as if issued 20 minutes ago.
	now := time.Now().UTC()
	if _, err := codeRepo.Create(context.Background(), &domain.LoginCode{
		UserID:    "u-1",
		Code:      "482913",
		ExpiresAt: now.Add(-5 * time.Minute),
		CreatedAt: now.Add(-20 * time.Minute),
	}); err != nil {
		t.Fatalf("fixture: %v", err)
	}

	if _, err := svc.VerifyCode(context.Background(), "anna@bolag.se", "482913"); !errors.Is(err, domain.ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode for expired code, got %v", err)
	}
}

func TestAuthService_VerifyCode_OlderCodeStillValid(t *testing.T) {
	_, codeRepo, _, _, svc := testFixture(annaUser())

	if _, err := svc.RequestCode(context.Background(), "anna@bolag.se"); err != nil {
		t.Fatalf("first request: %v", err)
	}
	if _, err := svc.RequestCode(context.Background(), "anna@bolag.se"); err != nil {
		t.Fatalf("second request: %v", err)
	}
	if len(codeRepo.rows) != 2 {
		t.Fatalf("a fresh request must not invalidate prior codes, have %d rows", len(codeRepo.rows))
	}

	// Submitting the older of the two outstanding codes still succeeds.
	older := codeRepo.rows[0].Code
	if _, err := svc.VerifyCode(context.Background(), "anna@bolag.se", older); err != nil {
		t.Fatalf("older unconsumed code must verify: %v", err)
	}
}

func TestAuthService_VerifyCode_ConcurrentConsume(t *testing.T) {
	_, codeRepo, _, _, svc := testFixture(annaUser())

	if _, err := svc.RequestCode(context.Background(), "anna@bolag.se"); err != nil {
		t.Fatalf("request: %v", err)
	}
	code := codeRepo.rows[0].Code

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.VerifyCode(context.Background(), "anna@bolag.se", code)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, failures int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, domain.ErrInvalidCode):
			failures++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 || failures != 1 {
		t.Fatalf("expected exactly one winner, got %d successes / %d failures", successes, failures)
	}
}

func TestAuthService_VerifyCode_OrgLookupFailure_Placeholder(t *testing.T) {
	_, codeRepo, orgRepo, _, svc := testFixture(annaUser())
	orgRepo.findErr = errors.New("organizations collection unavailable")

	if _, err := svc.RequestCode(context.Background(), "anna@bolag.se"); err != nil {
		t.Fatalf("request: %v", err)
	}

	// The name lookup is cosmetic; the login itself must survive it.
	session, err := svc.VerifyCode(context.Background(), "anna@bolag.se", codeRepo.rows[0].Code)
	if err != nil {
		t.Fatalf("VerifyCode returned error: %v", err)
	}
	if session.User.CompanyName != companyNamePlaceholder {
		t.Fatalf("expected placeholder company name, got %q", session.User.CompanyName)
	}
	if session.User.CompanyID != "co-1" {
		t.Fatalf("company id must still be present, got %q", session.User.CompanyID)
	}
}

func TestGenerateCode_ZeroPadded(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := generateCode()
		if err != nil {
			t.Fatalf("generateCode: %v", err)
		}
		if !sixDigits.MatchString(code) {
			t.Fatalf("expected 6 digits, got %q", code)
		}
	}
}
