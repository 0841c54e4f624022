package relay

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/InnoCoGo/Telegram-Bot/internal/models"
	"github.com/InnoCoGo/Telegram-Bot/internal/token"
)

// fakeStore is an in-memory UserStore.
type fakeStore struct {
	mu        sync.Mutex
	users     map[int64]*models.User
	decisions []*models.Decision
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: make(map[int64]*models.User)}
}

func (s *fakeStore) Close() {}

func (s *fakeStore) Ping(ctx context.Context) error { return nil }

func (s *fakeStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	cp.Pending = append([]models.PendingJoinRequest(nil), u.Pending...)
	return &cp, nil
}

func (s *fakeStore) UpsertUser(ctx context.Context, id int64, username, languageCode string) (*models.User, error) {
	s.mu.Lock()
	u, ok := s.users[id]
	if !ok {
		u = &models.User{ID: id, Pending: []models.PendingJoinRequest{}}
		s.users[id] = u
	}
	u.Username = username
	u.LanguageCode = languageCode
	s.mu.Unlock()
	return s.GetUser(ctx, id)
}

func (s *fakeStore) ReplacePending(ctx context.Context, id int64, pending []models.PendingJoinRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return errors.New("user not found")
	}
	u.Pending = append([]models.PendingJoinRequest(nil), pending...)
	return nil
}

func (s *fakeStore) ListUsersWithPending(ctx context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.User
	for _, u := range s.users {
		if len(u.Pending) > 0 {
			cp := *u
			cp.Pending = append([]models.PendingJoinRequest(nil), u.Pending...)
			out = append(out, cp)
		}
	}
	return out, nil
}

func (s *fakeStore) RecordDecision(ctx context.Context, d *models.Decision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decisions = append(s.decisions, d)
	return nil
}

func (s *fakeStore) CountDecisions(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.decisions)), nil
}

func (s *fakeStore) CountUsers(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.users)), nil
}

func (s *fakeStore) CountPending(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, u := range s.users {
		n += int64(len(u.Pending))
	}
	return n, nil
}

type sentPrompt struct {
	chatID      int64
	text        string
	acceptToken string
	rejectToken string
	messageID   int
}

type deletedPrompt struct {
	chatID    int64
	messageID int
}

type sentMessage struct {
	chatID int64
	text   string
}

// fakeDispatcher records outbound Telegram calls.
type fakeDispatcher struct {
	mu        sync.Mutex
	nextMsgID int
	sendErr   error

	prompts   []sentPrompt
	deletions []deletedPrompt
	messages  []sentMessage
	answered  []string
}

func (d *fakeDispatcher) SendJoinPrompt(ctx context.Context, chatID int64, text, acceptLabel, acceptToken, rejectLabel, rejectToken string) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.sendErr != nil {
		return 0, d.sendErr
	}
	d.nextMsgID++
	d.prompts = append(d.prompts, sentPrompt{chatID, text, acceptToken, rejectToken, d.nextMsgID})
	return d.nextMsgID, nil
}

func (d *fakeDispatcher) DeletePrompt(ctx context.Context, chatID int64, messageID int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.deletions = append(d.deletions, deletedPrompt{chatID, messageID})
	return nil
}

func (d *fakeDispatcher) SendMessage(ctx context.Context, chatID int64, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.messages = append(d.messages, sentMessage{chatID, text})
	return nil
}

func (d *fakeDispatcher) AnswerCallback(ctx context.Context, callbackID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.answered = append(d.answered, callbackID)
	return nil
}

type reportedDecision struct {
	tripID, askerInternalID int64
	accepted                bool
}

// fakeBackend records decision reports.
type fakeBackend struct {
	mu      sync.Mutex
	reports []reportedDecision
}

func (b *fakeBackend) ReportDecision(ctx context.Context, tripID, askerInternalID int64, accepted bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reports = append(b.reports, reportedDecision{tripID, askerInternalID, accepted})
	return nil
}

func newTestRelay(t *testing.T, ttl time.Duration) (*Relay, *fakeStore, *fakeDispatcher, *fakeBackend) {
	t.Helper()
	st := newFakeStore()
	tg := &fakeDispatcher{}
	be := &fakeBackend{}
	return New(st, tg, be, zerolog.Nop(), ttl), st, tg, be
}

func seedUsers(t *testing.T, st *fakeStore) {
	t.Helper()
	ctx := context.Background()
	if _, err := st.UpsertUser(ctx, 1, "trip_admin", "en"); err != nil {
		t.Fatal(err)
	}
	if _, err := st.UpsertUser(ctx, 42, "wanderer", "en"); err != nil {
		t.Fatal(err)
	}
}

func submission() models.JoinRequest {
	return models.JoinRequest{
		TripAdminID:     1,
		TripID:          7,
		AskerInternalID: 9,
		AskerTelegramID: 42,
		TripName:        "0 -> 1 at: 2026-08-28T07:15:00.000Z",
	}
}

func TestSubmitJoinRequest(t *testing.T) {
	r, st, tg, _ := newTestRelay(t, 0)
	seedUsers(t, st)
	ctx := context.Background()

	if err := r.SubmitJoinRequest(ctx, submission()); err != nil {
		t.Fatal(err)
	}

	admin, _ := st.GetUser(ctx, 1)
	if len(admin.Pending) != 1 {
		t.Fatalf("expected 1 pending entry, got %d", len(admin.Pending))
	}
	entry := admin.Pending[0]
	if entry.TripID != 7 || entry.SenderID != 42 {
		t.Fatalf("wrong pending key: %+v", entry)
	}

	if len(tg.prompts) != 1 {
		t.Fatalf("expected 1 prompt, got %d", len(tg.prompts))
	}
	prompt := tg.prompts[0]
	if prompt.chatID != 1 {
		t.Fatalf("prompt went to chat %d, want 1", prompt.chatID)
	}
	if entry.MessageID != prompt.messageID {
		t.Fatalf("stored message ID %d does not match sent prompt %d", entry.MessageID, prompt.messageID)
	}
	if prompt.acceptToken != "y_7_42_9" || prompt.rejectToken != "n_7_42_9" {
		t.Fatalf("wrong tokens: %q / %q", prompt.acceptToken, prompt.rejectToken)
	}
	if !strings.Contains(prompt.text, "@wanderer") {
		t.Fatalf("prompt does not mention the asker: %q", prompt.text)
	}
}

func TestSubmitDuplicateRejected(t *testing.T) {
	r, st, tg, _ := newTestRelay(t, 0)
	seedUsers(t, st)
	ctx := context.Background()

	if err := r.SubmitJoinRequest(ctx, submission()); err != nil {
		t.Fatal(err)
	}
	if err := r.SubmitJoinRequest(ctx, submission()); !errors.Is(err, ErrDuplicateRequest) {
		t.Fatalf("expected ErrDuplicateRequest, got %v", err)
	}

	admin, _ := st.GetUser(ctx, 1)
	if len(admin.Pending) != 1 {
		t.Fatalf("expected exactly 1 pending entry, got %d", len(admin.Pending))
	}
	if len(tg.prompts) != 1 {
		t.Fatalf("duplicate must not trigger a second prompt, got %d", len(tg.prompts))
	}
}

func TestSubmitUnknownAdmin(t *testing.T) {
	r, _, tg, _ := newTestRelay(t, 0)
	ctx := context.Background()

	if err := r.SubmitJoinRequest(ctx, submission()); !errors.Is(err, ErrUnknownUser) {
		t.Fatalf("expected ErrUnknownUser, got %v", err)
	}
	if len(tg.prompts) != 0 {
		t.Fatal("no prompt should be sent for an unknown admin")
	}
}

func TestSubmitPromptFailureNothingPersisted(t *testing.T) {
	r, st, tg, _ := newTestRelay(t, 0)
	seedUsers(t, st)
	tg.sendErr = errors.New("telegram down")
	ctx := context.Background()

	if err := r.SubmitJoinRequest(ctx, submission()); err == nil {
		t.Fatal("expected error when prompt send fails")
	}
	admin, _ := st.GetUser(ctx, 1)
	if len(admin.Pending) != 0 {
		t.Fatalf("nothing should be persisted after a failed send, got %d entries", len(admin.Pending))
	}
}

func decisionUpdate(data string) models.Update {
	return models.Update{
		Kind:         models.UpdateDecision,
		UserID:       1,
		Username:     "trip_admin",
		LanguageCode: "en",
		CallbackID:   "cb-1",
		CallbackData: data,
	}
}

func TestResolveAccept(t *testing.T) {
	r, st, tg, be := newTestRelay(t, 0)
	seedUsers(t, st)
	ctx := context.Background()

	if err := r.SubmitJoinRequest(ctx, submission()); err != nil {
		t.Fatal(err)
	}
	promptID := tg.prompts[0].messageID

	if err := r.HandleUpdate(ctx, decisionUpdate("y_7_42_9")); err != nil {
		t.Fatal(err)
	}

	admin, _ := st.GetUser(ctx, 1)
	if len(admin.Pending) != 0 {
		t.Fatalf("pending entry should be removed, got %d", len(admin.Pending))
	}

	if len(tg.deletions) != 1 || tg.deletions[0] != (deletedPrompt{1, promptID}) {
		t.Fatalf("expected exactly one prompt deletion for (1, %d), got %+v", promptID, tg.deletions)
	}
	if len(tg.messages) != 1 || tg.messages[0].chatID != 42 {
		t.Fatalf("expected exactly one outcome notification to 42, got %+v", tg.messages)
	}
	if !strings.Contains(tg.messages[0].text, "accepted you for the trip") {
		t.Fatalf("outcome text wrong: %q", tg.messages[0].text)
	}

	if len(be.reports) != 1 || be.reports[0] != (reportedDecision{7, 9, true}) {
		t.Fatalf("expected backend report {7 9 true}, got %+v", be.reports)
	}

	if n, _ := st.CountDecisions(ctx); n != 1 {
		t.Fatalf("expected 1 audit row, got %d", n)
	}
}

func TestResolveReject(t *testing.T) {
	r, st, tg, be := newTestRelay(t, 0)
	seedUsers(t, st)
	ctx := context.Background()

	if err := r.SubmitJoinRequest(ctx, submission()); err != nil {
		t.Fatal(err)
	}
	if err := r.HandleUpdate(ctx, decisionUpdate("n_7_42_9")); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(tg.messages[0].text, "rejected you for the trip") {
		t.Fatalf("outcome text wrong: %q", tg.messages[0].text)
	}
	if be.reports[0].accepted {
		t.Fatal("backend should be told the request was rejected")
	}
}

func TestResolveStaleToken(t *testing.T) {
	r, st, tg, be := newTestRelay(t, 0)
	seedUsers(t, st)
	ctx := context.Background()

	if err := r.SubmitJoinRequest(ctx, submission()); err != nil {
		t.Fatal(err)
	}

	// (7, 999) was never inserted
	if err := r.HandleUpdate(ctx, decisionUpdate("y_7_999_9")); !errors.Is(err, ErrNoMatchingRequest) {
		t.Fatalf("expected ErrNoMatchingRequest, got %v", err)
	}

	admin, _ := st.GetUser(ctx, 1)
	if len(admin.Pending) != 1 {
		t.Fatalf("pending list must be untouched, got %d entries", len(admin.Pending))
	}
	if len(tg.deletions) != 0 || len(tg.messages) != 0 || len(be.reports) != 0 {
		t.Fatal("stale correlation must produce no outbound side effects")
	}
	// The button press itself is still acknowledged to Telegram.
	if len(tg.answered) != 1 {
		t.Fatalf("callback should be answered once, got %d", len(tg.answered))
	}
}

func TestResolveMalformedToken(t *testing.T) {
	r, st, tg, be := newTestRelay(t, 0)
	seedUsers(t, st)
	ctx := context.Background()

	if err := r.SubmitJoinRequest(ctx, submission()); err != nil {
		t.Fatal(err)
	}
	if err := r.HandleUpdate(ctx, decisionUpdate("not a token")); !errors.Is(err, token.ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}

	admin, _ := st.GetUser(ctx, 1)
	if len(admin.Pending) != 1 {
		t.Fatal("pending list must be untouched")
	}
	if len(tg.deletions) != 0 || len(tg.messages) != 0 || len(be.reports) != 0 {
		t.Fatal("malformed token must produce no outbound side effects")
	}
}

func TestResolveTwiceSecondIsStale(t *testing.T) {
	r, st, tg, _ := newTestRelay(t, 0)
	seedUsers(t, st)
	ctx := context.Background()

	if err := r.SubmitJoinRequest(ctx, submission()); err != nil {
		t.Fatal(err)
	}
	if err := r.HandleUpdate(ctx, decisionUpdate("y_7_42_9")); err != nil {
		t.Fatal(err)
	}
	// Replayed button press after resolution
	if err := r.HandleUpdate(ctx, decisionUpdate("y_7_42_9")); !errors.Is(err, ErrNoMatchingRequest) {
		t.Fatalf("expected ErrNoMatchingRequest on replay, got %v", err)
	}
	if len(tg.deletions) != 1 || len(tg.messages) != 1 {
		t.Fatal("replay must not repeat the fanout")
	}
}

func TestContactEnsuresIdentity(t *testing.T) {
	r, st, _, _ := newTestRelay(t, 0)
	ctx := context.Background()

	err := r.HandleUpdate(ctx, models.Update{
		Kind:         models.UpdateContact,
		UserID:       42,
		Username:     "wanderer",
		LanguageCode: "ru",
		Text:         "/start",
	})
	if err != nil {
		t.Fatal(err)
	}

	u, _ := st.GetUser(ctx, 42)
	if u == nil || u.Username != "wanderer" || u.LanguageCode != "ru" {
		t.Fatalf("identity record not created: %+v", u)
	}
}

func TestConcurrentSubmitsSameKey(t *testing.T) {
	r, st, tg, _ := newTestRelay(t, 0)
	seedUsers(t, st)
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- r.SubmitJoinRequest(ctx, submission())
		}()
	}
	wg.Wait()
	close(errs)

	var ok, dup int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrDuplicateRequest):
			dup++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || dup != workers-1 {
		t.Fatalf("expected exactly 1 success and %d duplicates, got %d/%d", workers-1, ok, dup)
	}

	admin, _ := st.GetUser(ctx, 1)
	if len(admin.Pending) != 1 {
		t.Fatalf("invariant violated: %d pending entries for one key", len(admin.Pending))
	}
	if len(tg.prompts) != 1 {
		t.Fatalf("expected exactly 1 prompt, got %d", len(tg.prompts))
	}
}

func TestExpirySweep(t *testing.T) {
	r, st, tg, _ := newTestRelay(t, time.Hour)
	seedUsers(t, st)
	ctx := context.Background()

	old := time.Now().Add(-2 * time.Hour).Unix()
	fresh := time.Now().Unix()
	if err := st.ReplacePending(ctx, 1, []models.PendingJoinRequest{
		{TripID: 7, SenderID: 42, MessageID: 100, CreatedAt: old},
		{TripID: 8, SenderID: 43, MessageID: 101, CreatedAt: fresh},
		{TripID: 9, SenderID: 44, MessageID: 102}, // pre-TTL entry, no timestamp
	}); err != nil {
		t.Fatal(err)
	}

	r.sweepExpired(ctx)

	admin, _ := st.GetUser(ctx, 1)
	if len(admin.Pending) != 2 {
		t.Fatalf("expected 2 surviving entries, got %d", len(admin.Pending))
	}
	for _, p := range admin.Pending {
		if p.TripID == 7 {
			t.Fatal("expired entry survived the sweep")
		}
	}
	if len(tg.deletions) != 1 || tg.deletions[0] != (deletedPrompt{1, 100}) {
		t.Fatalf("expected prompt 100 deleted, got %+v", tg.deletions)
	}
}
