package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"submission-disk/internal/domain/submission"
	"submission-disk/internal/events"
	"submission-disk/internal/validator"
	"submission-disk/pkg/broker"
	"submission-disk/pkg/logger"
)

type stubValidator struct {
	name   string
	order  float64
	result validator.Result
}

func (v stubValidator) Validate(ctx context.Context, event *events.SubmissionEvent) validator.Result {
	return v.result
}
func (v stubValidator) Name() string   { return v.name }
func (v stubValidator) Order() float64 { return v.order }

func passing(name string, order float64) stubValidator {
	return stubValidator{name: name, order: order, result: validator.Success(name)}
}

func failing(name string, order float64, message string) stubValidator {
	return stubValidator{name: name, order: order, result: validator.Failure(name, message)}
}

func seedSubmission(repo *fakeRepo, status submission.Status) *submission.Submission {
	sub := &submission.Submission{
		FileName:         "ab_report.zip",
		OriginalFileName: "report.zip",
		FileSize:         128,
		ContentType:      "application/zip",
		StoragePath:      "uploads/ab_report.zip",
		Checksum:         "deadbeef",
		Status:           status,
	}
	repo.put(sub)
	return sub
}

func messageFor(t *testing.T, sub *submission.Submission) broker.Message {
	t.Helper()
	payload, err := json.Marshal(events.FromSubmission(sub))
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return broker.Message{Topic: events.TopicValidation, ID: "0-1", Payload: payload}
}

func TestValidationHandlerSuccess(t *testing.T) {
	repo := newFakeRepo()
	sender := &fakeSender{}
	sub := seedSubmission(repo, submission.StatusPending)
	orch := validator.NewOrchestrator(logger.NewNop(), passing("A", 1))
	h := NewValidationHandler(repo, sender, orch, logger.NewNop())

	if err := h.Handle(context.Background(), messageFor(t, sub)); err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}

	got, _ := repo.GetByID(context.Background(), sub.ID)
	if got.Status != submission.StatusValidated {
		t.Fatalf("status = %s, want VALIDATED", got.Status)
	}
	sends := sender.sent()
	if len(sends) != 1 || sends[0].topic != events.TopicStorage {
		t.Fatalf("sends = %+v, want one to %s", sends, events.TopicStorage)
	}
	if sends[0].event.Status != submission.StatusValidated {
		t.Errorf("event status = %s, want VALIDATED", sends[0].event.Status)
	}
	if sends[0].event.CurrentStage != events.StageValidation || sends[0].event.NextStage != events.StageStorage {
		t.Errorf("stages = %s/%s, want VALIDATION/STORAGE", sends[0].event.CurrentStage, sends[0].event.NextStage)
	}
}

func TestValidationHandlerFailure(t *testing.T) {
	repo := newFakeRepo()
	sender := &fakeSender{}
	sub := seedSubmission(repo, submission.StatusPending)
	orch := validator.NewOrchestrator(logger.NewNop(),
		passing("A", 1),
		failing("FilenameValidator", 5, "Filename cannot be empty"))
	h := NewValidationHandler(repo, sender, orch, logger.NewNop())

	if err := h.Handle(context.Background(), messageFor(t, sub)); err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}

	got, _ := repo.GetByID(context.Background(), sub.ID)
	if got.Status != submission.StatusFailed {
		t.Fatalf("status = %s, want FAILED", got.Status)
	}
	want := "FilenameValidator: Filename cannot be empty"
	if got.ErrorMessage != want {
		t.Errorf("error message = %q, want %q", got.ErrorMessage, want)
	}
	if got.ProcessedAt == nil {
		t.Error("processed_at not stamped on terminal status")
	}
	sends := sender.sent()
	if len(sends) != 1 || sends[0].topic != events.TopicFailed {
		t.Fatalf("sends = %+v, want one to %s", sends, events.TopicFailed)
	}
	if sends[0].event.ErrorMessage != want {
		t.Errorf("event error message = %q, want %q", sends[0].event.ErrorMessage, want)
	}
}

func TestValidationHandlerReplay(t *testing.T) {
	repo := newFakeRepo()
	sender := &fakeSender{}
	sub := seedSubmission(repo, submission.StatusValidated)
	orch := validator.NewOrchestrator(logger.NewNop(), failing("A", 1, "would fail"))
	h := NewValidationHandler(repo, sender, orch, logger.NewNop())

	if err := h.Handle(context.Background(), messageFor(t, sub)); err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	got, _ := repo.GetByID(context.Background(), sub.ID)
	if got.Status != submission.StatusValidated {
		t.Errorf("replay changed status to %s", got.Status)
	}
	if len(sender.sent()) != 0 {
		t.Errorf("replay emitted events: %+v", sender.sent())
	}
}

func TestValidationHandlerMissingRow(t *testing.T) {
	repo := newFakeRepo()
	sender := &fakeSender{}
	orch := validator.NewOrchestrator(logger.NewNop())
	h := NewValidationHandler(repo, sender, orch, logger.NewNop())

	msg := messageFor(t, &submission.Submission{ID: 404, Status: submission.StatusPending})
	if err := h.Handle(context.Background(), msg); err != nil {
		t.Fatalf("missing row should be acknowledged, got %v", err)
	}
	if len(sender.sent()) != 0 {
		t.Errorf("missing row emitted events: %+v", sender.sent())
	}
}

func TestValidationHandlerBadPayload(t *testing.T) {
	repo := newFakeRepo()
	sender := &fakeSender{}
	orch := validator.NewOrchestrator(logger.NewNop())
	h := NewValidationHandler(repo, sender, orch, logger.NewNop())

	msg := broker.Message{Topic: events.TopicValidation, ID: "0-2", Payload: []byte("{not json")}
	if err := h.Handle(context.Background(), msg); err != nil {
		t.Fatalf("undecodable payload should be dropped, got %v", err)
	}
}

func TestStorageHandlerSuccess(t *testing.T) {
	repo := newFakeRepo()
	sender := &fakeSender{}
	sub := seedSubmission(repo, submission.StatusValidated)

	path := filepath.Join(t.TempDir(), "ab_report.zip")
	if err := os.WriteFile(path, []byte("zip bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	sub.StoragePath = path

	h := NewStorageHandler(repo, sender, logger.NewNop())
	if err := h.Handle(context.Background(), messageFor(t, sub)); err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}

	got, _ := repo.GetByID(context.Background(), sub.ID)
	if got.Status != submission.StatusStored {
		t.Fatalf("status = %s, want STORED", got.Status)
	}
	sends := sender.sent()
	if len(sends) != 1 || sends[0].topic != events.TopicProcessing {
		t.Fatalf("sends = %+v, want one to %s", sends, events.TopicProcessing)
	}
}

func TestStorageHandlerMissingFile(t *testing.T) {
	repo := newFakeRepo()
	sender := &fakeSender{}
	sub := seedSubmission(repo, submission.StatusValidated)
	sub.StoragePath = filepath.Join(t.TempDir(), "gone.zip")

	h := NewStorageHandler(repo, sender, logger.NewNop())
	if err := h.Handle(context.Background(), messageFor(t, sub)); err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}

	got, _ := repo.GetByID(context.Background(), sub.ID)
	if got.Status != submission.StatusFailed {
		t.Fatalf("status = %s, want FAILED", got.Status)
	}
	sends := sender.sent()
	if len(sends) != 1 || sends[0].topic != events.TopicFailed {
		t.Fatalf("sends = %+v, want one to %s", sends, events.TopicFailed)
	}
}

func TestStorageHandlerReplay(t *testing.T) {
	repo := newFakeRepo()
	sender := &fakeSender{}
	sub := seedSubmission(repo, submission.StatusStored)

	h := NewStorageHandler(repo, sender, logger.NewNop())
	if err := h.Handle(context.Background(), messageFor(t, sub)); err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if len(sender.sent()) != 0 {
		t.Errorf("replay emitted events: %+v", sender.sent())
	}
}

func TestProcessingHandlerSuccess(t *testing.T) {
	repo := newFakeRepo()
	sender := &fakeSender{}
	sub := seedSubmission(repo, submission.StatusStored)

	h := NewProcessingHandler(repo, sender, logger.NewNop())
	if err := h.Handle(context.Background(), messageFor(t, sub)); err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}

	got, _ := repo.GetByID(context.Background(), sub.ID)
	if got.Status != submission.StatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", got.Status)
	}
	if got.ProcessedAt == nil {
		t.Error("processed_at not stamped on completion")
	}

	sends := sender.sent()
	if len(sends) != 2 {
		t.Fatalf("sends = %+v, want notification and completed", sends)
	}
	if sends[0].topic != events.TopicNotification || sends[1].topic != events.TopicCompleted {
		t.Errorf("topics = %s, %s; want %s then %s",
			sends[0].topic, sends[1].topic, events.TopicNotification, events.TopicCompleted)
	}
	for _, s := range sends {
		if s.event.Status != submission.StatusCompleted {
			t.Errorf("event on %s has status %s, want COMPLETED", s.topic, s.event.Status)
		}
	}
}

func TestProcessingHandlerResumesAfterCrash(t *testing.T) {
	// Consumer died after the PROCESSING transition committed; redelivery
	// finishes the work.
	repo := newFakeRepo()
	sender := &fakeSender{}
	sub := seedSubmission(repo, submission.StatusProcessing)

	h := NewProcessingHandler(repo, sender, logger.NewNop())
	if err := h.Handle(context.Background(), messageFor(t, sub)); err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	got, _ := repo.GetByID(context.Background(), sub.ID)
	if got.Status != submission.StatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", got.Status)
	}
	if len(sender.sent()) != 2 {
		t.Fatalf("sends = %+v, want two", sender.sent())
	}
}

func TestProcessingHandlerRedeliveryAfterCompletion(t *testing.T) {
	repo := newFakeRepo()
	sender := &fakeSender{}
	sub := seedSubmission(repo, submission.StatusStored)
	h := NewProcessingHandler(repo, sender, logger.NewNop())

	msg := messageFor(t, sub)
	if err := h.Handle(context.Background(), msg); err != nil {
		t.Fatal(err)
	}
	if err := h.Handle(context.Background(), msg); err != nil {
		t.Fatal(err)
	}

	got, _ := repo.GetByID(context.Background(), sub.ID)
	if got.Status != submission.StatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", got.Status)
	}
	if len(sender.sent()) != 2 {
		t.Errorf("redelivery duplicated emissions: %+v", sender.sent())
	}
}

func TestNotificationHandlersAckEverything(t *testing.T) {
	h := NewNotificationHandler(logger.NewNop())
	sub := &submission.Submission{ID: 7, Status: submission.StatusCompleted}

	handlers := map[string]broker.Handler{
		"notification": h.HandleNotification,
		"completed":    h.HandleCompleted,
		"failed":       h.HandleFailed,
	}
	for name, handle := range handlers {
		t.Run(name, func(t *testing.T) {
			if err := handle(context.Background(), messageFor(t, sub)); err != nil {
				t.Fatalf("decodable message returned error: %v", err)
			}
			bad := broker.Message{ID: "0-9", Payload: []byte("{not json")}
			if err := handle(context.Background(), bad); err != nil {
				t.Fatalf("undecodable message must be dropped, got %v", err)
			}
		})
	}
}

type recordingPublisher struct {
	topic   string
	key     string
	payload []byte
	err     error
	calls   int
}

func (p *recordingPublisher) Publish(ctx context.Context, topic, key string, payload []byte) error {
	p.calls++
	p.topic = topic
	p.key = key
	p.payload = payload
	return p.err
}

func TestProducerSend(t *testing.T) {
	pub := &recordingPublisher{}
	producer := NewProducer(pub, logger.NewNop())

	event := &events.SubmissionEvent{SubmissionID: 42, FileName: "a.zip", Status: submission.StatusPending}
	producer.Send(context.Background(), events.TopicValidation, event)

	if pub.topic != events.TopicValidation {
		t.Errorf("topic = %s, want %s", pub.topic, events.TopicValidation)
	}
	if pub.key != "42" {
		t.Errorf("key = %q, want %q", pub.key, "42")
	}
	var decoded events.SubmissionEvent
	if err := json.Unmarshal(pub.payload, &decoded); err != nil {
		t.Fatalf("payload not valid JSON: %v", err)
	}
	if decoded.SubmissionID != 42 || decoded.FileName != "a.zip" {
		t.Errorf("round-tripped event = %+v", decoded)
	}
}

func TestProducerSendPublishError(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("stream down")}
	producer := NewProducer(pub, logger.NewNop())

	// Fire-and-forget: a failed publish is logged, never surfaced.
	producer.Send(context.Background(), events.TopicValidation, &events.SubmissionEvent{SubmissionID: 7})
	if pub.calls != 1 {
		t.Errorf("publish calls = %d, want 1 (no retry)", pub.calls)
	}
}

type recordingSubscriber struct {
	topics []string
}

func (s *recordingSubscriber) Subscribe(ctx context.Context, topic string, handler broker.Handler) error {
	s.topics = append(s.topics, topic)
	return nil
}

func TestStartSubscribesAllStages(t *testing.T) {
	repo := newFakeRepo()
	sender := &fakeSender{}
	log := logger.NewNop()
	orch := validator.NewOrchestrator(log)
	sub := &recordingSubscriber{}

	err := Start(context.Background(), sub,
		NewValidationHandler(repo, sender, orch, log),
		NewStorageHandler(repo, sender, log),
		NewProcessingHandler(repo, sender, log),
		NewNotificationHandler(log))
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	want := []string{
		events.TopicValidation, events.TopicStorage, events.TopicProcessing,
		events.TopicNotification, events.TopicCompleted, events.TopicFailed,
	}
	if len(sub.topics) != len(want) {
		t.Fatalf("subscribed topics = %v, want %v", sub.topics, want)
	}
	for i, topic := range want {
		if sub.topics[i] != topic {
			t.Errorf("topics[%d] = %s, want %s", i, sub.topics[i], topic)
		}
	}
}
