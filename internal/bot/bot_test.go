// ABOUTME: Tests for update routing, the access gate flow, and admin publishing.
// ABOUTME: Drives the bot with synthetic updates against fake messenger and oracle.
package bot

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/2389-research/postgate/internal/models"
	"github.com/2389-research/postgate/internal/storage"
)

const (
	testAdmin int64 = 1000
	testUser  int64 = 2000
)

type sentText struct {
	chatID   int64
	text     string
	keyboard *tgbotapi.InlineKeyboardMarkup
}

type sentMedia struct {
	channel  models.Channel
	media    models.Media
	caption  string
	keyboard *tgbotapi.InlineKeyboardMarkup
}

type answer struct {
	id  string
	url string
}

type fakeMessenger struct {
	mu        sync.Mutex
	texts     []sentText
	documents []string
	media     []sentMedia
	answers   []answer
	mediaErr  error
	docErr    error
}

func (m *fakeMessenger) SendText(ctx context.Context, chatID int64, text string, kb *tgbotapi.InlineKeyboardMarkup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = append(m.texts, sentText{chatID: chatID, text: text, keyboard: kb})
	return nil
}

func (m *fakeMessenger) SendDocument(ctx context.Context, chatID int64, fileID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.docErr != nil {
		return m.docErr
	}
	m.documents = append(m.documents, fileID)
	return nil
}

func (m *fakeMessenger) SendMedia(ctx context.Context, channel models.Channel, media models.Media, caption string, kb *tgbotapi.InlineKeyboardMarkup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mediaErr != nil {
		return m.mediaErr
	}
	m.media = append(m.media, sentMedia{channel: channel, media: media, caption: caption, keyboard: kb})
	return nil
}

func (m *fakeMessenger) AnswerCallback(ctx context.Context, id, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answers = append(m.answers, answer{id: id, url: url})
	return nil
}

func (m *fakeMessenger) lastText() sentText {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.texts) == 0 {
		return sentText{}
	}
	return m.texts[len(m.texts)-1]
}

type fakeOracle struct {
	mu      sync.Mutex
	members map[string]bool
	err     error
}

func (o *fakeOracle) IsMember(ctx context.Context, channel models.Channel, userID int64) (bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return false, o.err
	}
	return o.members[channel.Username], nil
}

var testChannels = []models.Channel{{Name: "AsilbekCode", Username: "@asilbekcode"}}

type harness struct {
	bot       *Bot
	messenger *fakeMessenger
	oracle    *fakeOracle
	store     *storage.MemoryPostStore
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	h := &harness{
		messenger: &fakeMessenger{},
		oracle:    &fakeOracle{members: map[string]bool{"@asilbekcode": true}},
		store:     storage.NewMemoryPostStore(),
	}
	b, err := New(Options{
		Messenger:        h.messenger,
		Oracle:           h.oracle,
		Store:            h.store,
		Channels:         testChannels,
		AdminID:          testAdmin,
		BotUsername:      "AsilbekCode_bot",
		InstagramProfile: "https://instagram.com/asilbek",
		Logger:           logger,
		NewPostID:        func() string { return "abc123" },
	})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	h.bot = b
	return h
}

func (h *harness) handle(msg *tgbotapi.Message) {
	h.bot.HandleUpdate(context.Background(), tgbotapi.Update{Message: msg})
}

func (h *harness) callback(q *tgbotapi.CallbackQuery) {
	h.bot.HandleUpdate(context.Background(), tgbotapi.Update{CallbackQuery: q})
}

func command(chatID int64, text string) *tgbotapi.Message {
	cmd := strings.Fields(text)[0]
	return &tgbotapi.Message{
		Chat:     &tgbotapi.Chat{ID: chatID},
		From:     &tgbotapi.User{ID: chatID},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
	}
}

func message(chatID int64) *tgbotapi.Message {
	return &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: chatID},
		From: &tgbotapi.User{ID: chatID},
	}
}

func keyboardData(kb *tgbotapi.InlineKeyboardMarkup) []string {
	var out []string
	if kb == nil {
		return out
	}
	for _, row := range kb.InlineKeyboard {
		for _, btn := range row {
			if btn.CallbackData != nil {
				out = append(out, *btn.CallbackData)
			}
			if btn.URL != nil {
				out = append(out, *btn.URL)
			}
		}
	}
	return out
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}

func TestNewRequiresMessengerAndUsername(t *testing.T) {
	if _, err := New(Options{BotUsername: "x"}); err == nil {
		t.Error("expected error without messenger")
	}
	if _, err := New(Options{Messenger: &fakeMessenger{}}); err == nil {
		t.Error("expected error without bot username")
	}
	_, err := New(Options{
		Messenger:   &fakeMessenger{},
		BotUsername: "x",
		Oracle:      &fakeOracle{},
		Store:       storage.NewMemoryPostStore(),
	})
	if err == nil {
		t.Error("expected error without channels")
	}
}

func TestStartMenuForUser(t *testing.T) {
	h := newHarness(t)
	h.handle(command(testUser, "/start"))

	got := h.messenger.lastText()
	if got.chatID != testUser || got.text != TextMenu {
		t.Fatalf("unexpected reply %+v", got)
	}
	data := keyboardData(got.keyboard)
	for _, want := range []string{"https://t.me/asilbekcode", "https://instagram.com/asilbek", CallbackGetCode} {
		if !contains(data, want) {
			t.Errorf("menu missing %q, got %v", want, data)
		}
	}
}

func TestStartWithUnknownPostWhileSubscribed(t *testing.T) {
	h := newHarness(t)
	h.handle(command(testUser, "/start abc123"))

	if got := h.messenger.lastText(); got.text != TextNotFound {
		t.Errorf("expected %q, got %q", TextNotFound, got.text)
	}
	if len(h.messenger.documents) != 0 {
		t.Errorf("expected no document, got %v", h.messenger.documents)
	}
}

func TestStartNotSubscribedThenRecheck(t *testing.T) {
	h := newHarness(t)
	_ = h.store.CreatePost(context.Background(), models.NewPost("abc123", "doc-file", "Sale"))
	h.oracle.members["@asilbekcode"] = false

	h.handle(command(testUser, "/start abc123"))

	got := h.messenger.lastText()
	if got.text != TextSubscribe {
		t.Fatalf("expected subscribe prompt, got %q", got.text)
	}
	data := keyboardData(got.keyboard)
	if !contains(data, "check_abc123") {
		t.Fatalf("expected recheck action check_abc123, got %v", data)
	}
	if !contains(data, "https://t.me/asilbekcode") {
		t.Errorf("expected channel subscribe link, got %v", data)
	}
	if len(h.messenger.documents) != 0 {
		t.Fatal("expected no document before subscribing")
	}

	h.oracle.members["@asilbekcode"] = true
	h.callback(&tgbotapi.CallbackQuery{
		ID:      "cb-1",
		From:    &tgbotapi.User{ID: testUser},
		Message: message(testUser),
		Data:    "check_abc123",
	})

	if len(h.messenger.documents) != 1 || h.messenger.documents[0] != "doc-file" {
		t.Fatalf("expected doc-file delivered, got %v", h.messenger.documents)
	}
	if len(h.messenger.answers) != 1 || h.messenger.answers[0].id != "cb-1" {
		t.Errorf("expected callback acknowledged, got %+v", h.messenger.answers)
	}
}

func TestSubscribePromptWithOversizedPayload(t *testing.T) {
	h := newHarness(t)
	h.oracle.members["@asilbekcode"] = false
	longID := strings.Repeat("x", 60)

	h.handle(command(testUser, "/start "+longID))

	got := h.messenger.lastText()
	if got.text != TextSubscribe {
		t.Fatalf("expected subscribe prompt, got %q", got.text)
	}
	data := keyboardData(got.keyboard)
	for _, d := range data {
		if len(d) > maxCallbackData {
			t.Errorf("button data exceeds %d bytes: %q", maxCallbackData, d)
		}
		if strings.HasPrefix(d, CallbackCheckPrefix) {
			t.Errorf("expected no recheck button for oversized id, got %q", d)
		}
	}
	if !contains(data, "https://t.me/asilbekcode") {
		t.Errorf("expected channel link kept, got %v", data)
	}
}

func TestOracleErrorFailsClosed(t *testing.T) {
	h := newHarness(t)
	_ = h.store.CreatePost(context.Background(), models.NewPost("abc123", "doc-file", ""))
	h.oracle.err = fmt.Errorf("Bad Request: chat not found")

	h.handle(command(testUser, "/start abc123"))

	if got := h.messenger.lastText(); got.text != TextSubscribe {
		t.Errorf("expected subscribe prompt, got %q", got.text)
	}
	if len(h.messenger.documents) != 0 {
		t.Error("expected no delivery on oracle error")
	}
}

func TestDeliveryFailureReportsGenericError(t *testing.T) {
	h := newHarness(t)
	_ = h.store.CreatePost(context.Background(), models.NewPost("abc123", "doc-file", ""))
	h.messenger.docErr = fmt.Errorf("Bad Request: wrong file identifier")

	h.handle(command(testUser, "/start abc123"))

	if got := h.messenger.lastText(); got.text != TextGenericError {
		t.Errorf("expected generic error, got %q", got.text)
	}
}

func TestAdminPhotoScenario(t *testing.T) {
	h := newHarness(t)

	h.handle(command(testAdmin, "/start"))
	if got := h.messenger.lastText(); got.text != "Send a video or photo to create a new post." {
		t.Fatalf("unexpected begin prompt %q", got.text)
	}

	photo := message(testAdmin)
	photo.Caption = "Sale"
	photo.Photo = []tgbotapi.PhotoSize{
		{FileID: "thumb", Width: 90, Height: 90},
		{FileID: "full", Width: 1280, Height: 960},
	}
	h.handle(photo)
	if got := h.messenger.lastText(); got.text != "Photo saved. Please send the text for the post." {
		t.Errorf("unexpected photo prompt %q", got.text)
	}

	doc := message(testAdmin)
	doc.Document = &tgbotapi.Document{FileID: "doc-1"}
	h.handle(doc)

	h.handle(command(testAdmin, "/sendpost"))

	if got := h.messenger.lastText(); got.text != "Post successfully sent to the channel." {
		t.Fatalf("unexpected publish reply %q", got.text)
	}
	post, err := h.store.GetPost(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("GetPost error: %v", err)
	}
	if post.FileID != "doc-1" || post.Caption != "Sale" {
		t.Errorf("unexpected post %+v", post)
	}
	if len(h.messenger.media) != 1 {
		t.Fatalf("expected 1 channel post, got %d", len(h.messenger.media))
	}
	sent := h.messenger.media[0]
	if sent.media != (models.Media{Kind: models.MediaPhoto, FileID: "full"}) {
		t.Errorf("unexpected media %+v", sent.media)
	}
	if sent.caption != "Sale\n\nPost ID: abc123" {
		t.Errorf("unexpected caption %q", sent.caption)
	}
	if sent.channel.Username != "@asilbekcode" {
		t.Errorf("unexpected channel %+v", sent.channel)
	}
	if !contains(keyboardData(sent.keyboard), CallbackGetCode) {
		t.Error("expected Get Code button on channel post")
	}
}

func TestSendpostIncompleteReportsMissing(t *testing.T) {
	h := newHarness(t)
	h.handle(command(testAdmin, "/start"))

	video := message(testAdmin)
	video.Video = &tgbotapi.Video{FileID: "vid"}
	h.handle(video)

	h.handle(command(testAdmin, "/sendpost"))

	if got := h.messenger.lastText(); got.text != "Cannot publish yet. Missing: text, file." {
		t.Errorf("unexpected reply %q", got.text)
	}
	if h.store.Count() != 0 || len(h.messenger.media) != 0 {
		t.Error("incomplete publish must not write or send")
	}
}

func TestSendpostChannelFailureKeepsDraft(t *testing.T) {
	h := newHarness(t)
	h.messenger.mediaErr = fmt.Errorf("Bad Request: chat not found")

	h.handle(command(testAdmin, "/start"))
	video := message(testAdmin)
	video.Video = &tgbotapi.Video{FileID: "vid"}
	video.Caption = "Launch"
	h.handle(video)
	doc := message(testAdmin)
	doc.Document = &tgbotapi.Document{FileID: "doc"}
	h.handle(doc)

	h.handle(command(testAdmin, "/sendpost"))
	if got := h.messenger.lastText(); got.text != "Error occurred: Bad Request: chat not found" {
		t.Fatalf("unexpected reply %q", got.text)
	}
	if h.store.Count() != 1 {
		t.Errorf("expected stored record to remain, got %d", h.store.Count())
	}

	h.messenger.mediaErr = nil
	h.handle(command(testAdmin, "/sendpost"))
	if got := h.messenger.lastText(); got.text != "Post successfully sent to the channel." {
		t.Errorf("expected retry to succeed, got %q", got.text)
	}
}

func TestAdminInputIgnoredWithoutSession(t *testing.T) {
	h := newHarness(t)

	text := message(testAdmin)
	text.Text = "caption"
	h.handle(text)
	h.handle(command(testAdmin, "/sendpost"))

	if len(h.messenger.texts) != 0 {
		t.Errorf("expected no replies without an open draft, got %+v", h.messenger.texts)
	}
}

func TestNonAdminDraftInputIgnored(t *testing.T) {
	h := newHarness(t)
	h.handle(command(testAdmin, "/start"))
	before := len(h.messenger.texts)

	text := message(testUser)
	text.Text = "hijack"
	h.handle(text)
	h.handle(command(testUser, "/sendpost"))

	if len(h.messenger.texts) != before {
		t.Errorf("expected non-admin input to be ignored, got %+v", h.messenger.texts[before:])
	}
	if got := h.bot.flow.Session(testAdmin).Caption; got != "" {
		t.Errorf("admin draft changed by user: %q", got)
	}
}

func TestGetCodeAnswersDeepLink(t *testing.T) {
	h := newHarness(t)
	channelPost := &tgbotapi.Message{
		Chat:    &tgbotapi.Chat{ID: -100},
		Caption: "Sale\n\nPost ID: abc123",
	}
	h.callback(&tgbotapi.CallbackQuery{
		ID:      "cb-7",
		From:    &tgbotapi.User{ID: testUser},
		Message: channelPost,
		Data:    CallbackGetCode,
	})

	if len(h.messenger.answers) != 1 {
		t.Fatalf("expected one callback answer, got %d", len(h.messenger.answers))
	}
	if got := h.messenger.answers[0].url; got != "https://t.me/AsilbekCode_bot?start=abc123" {
		t.Errorf("unexpected deep link %q", got)
	}
}

func TestGetCodeWithoutPostIDIsNoop(t *testing.T) {
	h := newHarness(t)
	h.callback(&tgbotapi.CallbackQuery{
		ID:      "cb-8",
		From:    &tgbotapi.User{ID: testUser},
		Message: message(testUser),
		Data:    CallbackGetCode,
	})

	for _, a := range h.messenger.answers {
		if a.url != "" {
			t.Errorf("expected no deep link, got %q", a.url)
		}
	}
	if len(h.messenger.texts) != 0 || len(h.messenger.documents) != 0 {
		t.Error("expected no outbound messages")
	}
}

func TestUnknownCallbackIgnored(t *testing.T) {
	h := newHarness(t)
	h.callback(&tgbotapi.CallbackQuery{ID: "cb-9", From: &tgbotapi.User{ID: testUser}, Data: "bogus"})

	if len(h.messenger.texts) != 0 {
		t.Errorf("expected no messages, got %+v", h.messenger.texts)
	}
}

func TestExtractPostID(t *testing.T) {
	tests := []struct {
		caption string
		want    string
		ok      bool
	}{
		{"Sale\n\nPost ID: abc123", "abc123", true},
		{"Post ID: x_1 trailing", "x_1", true},
		{"no identifier here", "", false},
		{"Post ID: ", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ExtractPostID(tt.caption)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ExtractPostID(%q) = %q, %v; want %q, %v", tt.caption, got, ok, tt.want, tt.ok)
		}
	}
}

func TestRunProcessesUpdatesInChatOrder(t *testing.T) {
	h := newHarness(t)
	updates := make(chan tgbotapi.Update)
	done := make(chan error, 1)

	go func() {
		done <- h.bot.Run(context.Background(), updates)
	}()

	video := message(testAdmin)
	video.Video = &tgbotapi.Video{FileID: "vid"}
	video.Caption = "Launch"
	doc := message(testAdmin)
	doc.Document = &tgbotapi.Document{FileID: "doc"}

	for _, m := range []*tgbotapi.Message{command(testAdmin, "/start"), video, doc, command(testAdmin, "/sendpost")} {
		updates <- tgbotapi.Update{Message: m}
	}
	close(updates)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after updates closed")
	}

	if h.store.Count() != 1 {
		t.Errorf("expected one published post, got %d", h.store.Count())
	}
	if got := h.messenger.lastText(); got.text != "Post successfully sent to the channel." {
		t.Errorf("unexpected final reply %q", got.text)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- h.bot.Run(ctx, make(chan tgbotapi.Update))
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
