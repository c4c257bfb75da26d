package services

import (
	"context"
	"testing"
	"time"

	"quizgate/models"

	"github.com/shopspring/decimal"
)

func newTestParticipationService(t *testing.T, limiter *JoinLimiter) (*ParticipationService, *recordingNotifier) {
	t.Helper()
	notifier := &recordingNotifier{}
	svc := NewParticipationService(newTestDB(t), limiter, notifier)
	svc.now = fixedClock(testNow)
	return svc, notifier
}

func TestJoinWithPasswordExample(t *testing.T) {
	svc, notifier := newTestParticipationService(t, nil)
	owner := createUser(t, svc.db, "Owner")
	user := createUser(t, svc.db, "User")
	quiz := createQuiz(t, svc.db, owner.ID, "abc123")
	ctx := context.Background()

	res, err := svc.JoinWithPassword(ctx, user.ID, &JoinQuizRequest{QuizID: quiz.ID, Password: "abc123"})
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if res.Message != MessageJoined {
		t.Fatalf("expected %q, got %q", MessageJoined, res.Message)
	}

	res, err = svc.JoinWithPassword(ctx, user.ID, &JoinQuizRequest{QuizID: quiz.ID, Password: "abc123"})
	if err != nil {
		t.Fatalf("repeat join: %v", err)
	}
	if res.Message != MessageAlreadyJoined {
		t.Fatalf("expected %q, got %q", MessageAlreadyJoined, res.Message)
	}

	_, err = svc.JoinWithPassword(ctx, user.ID, &JoinQuizRequest{QuizID: quiz.ID, Password: "wrong"})
	expectCode(t, err, ErrorForbidden)

	if got := notifier.count(EventParticipantJoined); got != 1 {
		t.Fatalf("expected one join event, got %d", got)
	}
}

func TestJoinWithPasswordOpenQuizAndMissingQuiz(t *testing.T) {
	svc, _ := newTestParticipationService(t, nil)
	owner := createUser(t, svc.db, "Owner")
	user := createUser(t, svc.db, "User")
	quiz := createQuiz(t, svc.db, owner.ID, "")
	ctx := context.Background()

	if _, err := svc.JoinWithPassword(ctx, user.ID, &JoinQuizRequest{QuizID: quiz.ID, Password: "anything"}); err != nil {
		t.Fatalf("join open quiz: %v", err)
	}
	_, err := svc.JoinWithPassword(ctx, user.ID, &JoinQuizRequest{QuizID: quiz.ID + 42})
	expectCode(t, err, ErrorNotFound)
}

func TestJoinWithPasswordThrottlesFailures(t *testing.T) {
	mr, client := newTestRedis(t)
	limiter := NewJoinLimiter(client, 3, time.Minute)
	svc, _ := newTestParticipationService(t, limiter)
	owner := createUser(t, svc.db, "Owner")
	user := createUser(t, svc.db, "User")
	quiz := createQuiz(t, svc.db, owner.ID, "abc123")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.JoinWithPassword(ctx, user.ID, &JoinQuizRequest{QuizID: quiz.ID, Password: "guess"})
		expectCode(t, err, ErrorForbidden)
	}
	_, err := svc.JoinWithPassword(ctx, user.ID, &JoinQuizRequest{QuizID: quiz.ID, Password: "abc123"})
	expectCode(t, err, ErrorTooManyRequests)

	mr.FastForward(2 * time.Minute)
	if _, err := svc.JoinWithPassword(ctx, user.ID, &JoinQuizRequest{QuizID: quiz.ID, Password: "abc123"}); err != nil {
		t.Fatalf("join after window: %v", err)
	}
}

func TestStartAnswerFinishLifecycle(t *testing.T) {
	svc, notifier := newTestParticipationService(t, nil)
	answers := NewAnswerService(svc.db, notifier)
	answers.now = fixedClock(testNow)
	owner := createUser(t, svc.db, "Owner")
	user := createUser(t, svc.db, "User")
	quiz := createQuiz(t, svc.db, owner.ID, "")
	q1, c1 := createMCQ(t, svc.db, quiz.ID, 0, "right", "wrong")
	q2, c2 := createMCQ(t, svc.db, quiz.ID, 1, "wrong", "right")
	q3, c3 := createMCQ(t, svc.db, quiz.ID, 0, "right", "wrong")
	ctx := context.Background()

	_, err := svc.Start(ctx, user.ID, quiz.ID)
	expectCode(t, err, ErrorNotFound)

	if _, err := svc.JoinWithPassword(ctx, user.ID, &JoinQuizRequest{QuizID: quiz.ID}); err != nil {
		t.Fatalf("join: %v", err)
	}
	p, err := svc.Start(ctx, user.ID, quiz.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if p.StartedAt == nil {
		t.Fatalf("expected started_at to be set")
	}

	for _, a := range []SubmitAnswerRequest{
		{QuestionID: q1.ID, ChoiceID: c1[0].ID},
		{QuestionID: q2.ID, ChoiceID: c2[1].ID},
		{QuestionID: q3.ID, ChoiceID: c3[1].ID},
	} {
		a := a
		if _, err := answers.Submit(ctx, user.ID, quiz.ID, &a); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	p, err = svc.Finish(ctx, user.ID, quiz.ID)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if !p.Completed || p.FinishedAt == nil {
		t.Fatalf("expected completed participation, got %+v", p)
	}
	if want := decimal.RequireFromString("66.67"); !p.Score.Valid || !p.Score.Decimal.Equal(want) {
		t.Fatalf("expected score %s, got %v", want, p.Score)
	}

	_, err = svc.Finish(ctx, user.ID, quiz.ID)
	expectCode(t, err, ErrorInvalid)
	_, err = answers.Submit(ctx, user.ID, quiz.ID, &SubmitAnswerRequest{QuestionID: q3.ID, ChoiceID: c3[0].ID})
	expectCode(t, err, ErrorInvalid)

	if notifier.count(EventQuizCompleted) != 1 || notifier.count(EventAnswerSubmitted) != 3 {
		t.Fatalf("unexpected events %+v", notifier.events)
	}
}

func TestStartEnforcesQuizWindow(t *testing.T) {
	svc, _ := newTestParticipationService(t, nil)
	owner := createUser(t, svc.db, "Owner")
	user := createUser(t, svc.db, "User")
	quiz := createQuiz(t, svc.db, owner.ID, "")
	ctx := context.Background()

	if _, err := svc.JoinWithPassword(ctx, user.ID, &JoinQuizRequest{QuizID: quiz.ID}); err != nil {
		t.Fatalf("join: %v", err)
	}

	opens := testNow.Add(time.Hour)
	duration := int64(600)
	svc.db.Model(&models.Quiz{}).Where("id = ?", quiz.ID).Updates(map[string]interface{}{
		"start_time":       opens,
		"duration_seconds": duration,
	})

	_, err := svc.Start(ctx, user.ID, quiz.ID)
	expectCode(t, err, ErrorInvalid)

	svc.now = fixedClock(opens.Add(11 * time.Minute))
	_, err = svc.Start(ctx, user.ID, quiz.ID)
	expectCode(t, err, ErrorInvalid)

	svc.now = fixedClock(opens.Add(time.Minute))
	if _, err := svc.Start(ctx, user.ID, quiz.ID); err != nil {
		t.Fatalf("start inside window: %v", err)
	}
}

func TestGetPlayableRequiresParticipation(t *testing.T) {
	svc, _ := newTestParticipationService(t, nil)
	owner := createUser(t, svc.db, "Owner")
	user := createUser(t, svc.db, "User")
	quiz := createQuiz(t, svc.db, owner.ID, "")
	createMCQ(t, svc.db, quiz.ID, 0, "a", "b")
	ctx := context.Background()

	_, err := svc.GetPlayable(ctx, user.ID, quiz.ID)
	expectCode(t, err, ErrorForbidden)

	play, err := svc.GetPlayable(ctx, owner.ID, quiz.ID)
	if err != nil {
		t.Fatalf("creator preview: %v", err)
	}
	if len(play.Quiz.Questions) != 1 || len(play.Quiz.Questions[0].Choices) != 2 {
		t.Fatalf("expected questions with choices, got %+v", play.Quiz.Questions)
	}

	if _, err := svc.JoinWithPassword(ctx, user.ID, &JoinQuizRequest{QuizID: quiz.ID}); err != nil {
		t.Fatalf("join: %v", err)
	}
	play, err = svc.GetPlayable(ctx, user.ID, quiz.ID)
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if play.Participation == nil {
		t.Fatalf("expected participation on playable quiz")
	}
}

func TestListTakenAndParticipants(t *testing.T) {
	svc, _ := newTestParticipationService(t, nil)
	owner := createUser(t, svc.db, "Owner")
	user := createUser(t, svc.db, "User")
	quiz := createQuiz(t, svc.db, owner.ID, "")
	ctx := context.Background()

	if _, err := svc.JoinWithPassword(ctx, user.ID, &JoinQuizRequest{QuizID: quiz.ID}); err != nil {
		t.Fatalf("join: %v", err)
	}

	taken, err := svc.ListTaken(ctx, user.ID)
	if err != nil {
		t.Fatalf("list taken: %v", err)
	}
	if len(taken) != 1 || taken[0].Quiz.ID != quiz.ID {
		t.Fatalf("expected one taken quiz, got %+v", taken)
	}

	participants, err := svc.ListParticipants(ctx, owner.ID, quiz.ID)
	if err != nil {
		t.Fatalf("participants: %v", err)
	}
	if len(participants) != 1 || participants[0].User.Username != "user" {
		t.Fatalf("expected roster with user, got %+v", participants)
	}

	_, err = svc.ListParticipants(ctx, user.ID, quiz.ID)
	expectCode(t, err, ErrorNotFound)

	roster, err := svc.Roster(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("roster: %v", err)
	}
	if entries := roster.([]RosterEntry); len(entries) != 1 || entries[0].Name != "User" {
		t.Fatalf("unexpected roster %+v", roster)
	}
}
