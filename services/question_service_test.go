package services

import (
	"context"
	"testing"

	"quizgate/models"
)

func uintPtr(v uint) *uint { return &v }

func TestCreateQuestionScopedToOwner(t *testing.T) {
	db := newTestDB(t)
	svc := NewQuestionService(db)
	owner := createUser(t, db, "Owner")
	other := createUser(t, db, "Other")
	quiz := createQuiz(t, db, owner.ID, "")
	ctx := context.Background()

	q, err := svc.CreateQuestion(ctx, owner.ID, quiz.ID, &CreateQuestionRequest{Content: "2+2?"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if q.Type != models.QuestionTypeMCQ || q.QuizID != quiz.ID {
		t.Fatalf("unexpected question %+v", q)
	}

	_, err = svc.CreateQuestion(ctx, other.ID, quiz.ID, &CreateQuestionRequest{Content: "hijack"})
	expectCode(t, err, ErrorNotFound)
	_, err = svc.GetQuestion(ctx, other.ID, quiz.ID, q.ID)
	expectCode(t, err, ErrorNotFound)
	expectCode(t, svc.DeleteQuestion(ctx, other.ID, quiz.ID, q.ID), ErrorNotFound)

	_, err = svc.CreateQuestion(ctx, owner.ID, quiz.ID, &CreateQuestionRequest{Content: "x", CorrectChoiceID: uintPtr(1)})
	expectCode(t, err, ErrorInvalid)
}

func TestUpdateQuestionCorrectChoice(t *testing.T) {
	db := newTestDB(t)
	svc := NewQuestionService(db)
	owner := createUser(t, db, "Owner")
	quiz := createQuiz(t, db, owner.ID, "")
	question, choices := createMCQ(t, db, quiz.ID, -1, "a", "b")
	foreign, foreignChoices := createMCQ(t, db, quiz.ID, -1, "z")
	ctx := context.Background()

	updated, err := svc.UpdateQuestion(ctx, owner.ID, quiz.ID, question.ID, &UpdateQuestionRequest{CorrectChoiceID: uintPtr(choices[1].ID)})
	if err != nil {
		t.Fatalf("set correct: %v", err)
	}
	if updated.CorrectChoiceID == nil || *updated.CorrectChoiceID != choices[1].ID {
		t.Fatalf("expected correct choice %d, got %v", choices[1].ID, updated.CorrectChoiceID)
	}

	_, err = svc.UpdateQuestion(ctx, owner.ID, quiz.ID, question.ID, &UpdateQuestionRequest{CorrectChoiceID: uintPtr(foreignChoices[0].ID)})
	expectCode(t, err, ErrorInvalid)

	text := models.QuestionTypeText
	_, err = svc.UpdateQuestion(ctx, owner.ID, quiz.ID, foreign.ID, &UpdateQuestionRequest{Type: &text, CorrectChoiceID: uintPtr(foreignChoices[0].ID)})
	expectCode(t, err, ErrorInvalid)

	updated, err = svc.UpdateQuestion(ctx, owner.ID, quiz.ID, question.ID, &UpdateQuestionRequest{Type: &text})
	if err != nil {
		t.Fatalf("switch to text: %v", err)
	}
	if updated.CorrectChoiceID != nil {
		t.Fatalf("expected correct choice to be cleared for text question")
	}

	mcq := models.QuestionTypeMCQ
	updated, err = svc.UpdateQuestion(ctx, owner.ID, quiz.ID, question.ID, &UpdateQuestionRequest{Type: &mcq, CorrectChoiceID: uintPtr(choices[0].ID)})
	if err != nil {
		t.Fatalf("back to mcq: %v", err)
	}
	updated, err = svc.UpdateQuestion(ctx, owner.ID, quiz.ID, question.ID, &UpdateQuestionRequest{CorrectChoiceID: uintPtr(0)})
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if updated.CorrectChoiceID != nil {
		t.Fatalf("expected correct choice to be cleared")
	}
}

func TestChoiceCRUDAndCorrectChoiceCleanup(t *testing.T) {
	db := newTestDB(t)
	svc := NewChoiceService(db)
	owner := createUser(t, db, "Owner")
	other := createUser(t, db, "Other")
	quiz := createQuiz(t, db, owner.ID, "")
	question, choices := createMCQ(t, db, quiz.ID, 0, "keep me")
	ctx := context.Background()

	added, err := svc.CreateChoice(ctx, owner.ID, question.ID, &ChoiceRequest{Content: "another"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err = svc.CreateChoice(ctx, other.ID, question.ID, &ChoiceRequest{Content: "nope"})
	expectCode(t, err, ErrorNotFound)
	_, err = svc.GetChoice(ctx, other.ID, question.ID, added.ID)
	expectCode(t, err, ErrorNotFound)

	updated, err := svc.UpdateChoice(ctx, owner.ID, question.ID, added.ID, &ChoiceRequest{Content: "renamed"})
	if err != nil || updated.Content != "renamed" {
		t.Fatalf("update: %v %+v", err, updated)
	}

	list, err := svc.ListChoices(ctx, owner.ID, question.ID)
	if err != nil || len(list) != 2 {
		t.Fatalf("list: %v (%d choices)", err, len(list))
	}

	if err := svc.DeleteChoice(ctx, owner.ID, question.ID, choices[0].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	var reloaded models.Question
	db.First(&reloaded, question.ID)
	if reloaded.CorrectChoiceID != nil {
		t.Fatalf("expected correct choice to be cleared, got %v", *reloaded.CorrectChoiceID)
	}
}
