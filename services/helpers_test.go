package services

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"quizgate/models"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := models.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return mr, client
}

func createUser(t *testing.T, db *gorm.DB, name string) models.User {
	t.Helper()
	user := models.User{
		Name:         name,
		Username:     strings.ToLower(name),
		Email:        strings.ToLower(name) + "@example.com",
		PasswordHash: "x",
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return user
}

func createQuiz(t *testing.T, db *gorm.DB, creatorID uint, password string) models.Quiz {
	t.Helper()
	quiz := models.Quiz{Title: "General knowledge", CreatorID: creatorID}
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		if err != nil {
			t.Fatalf("hash: %v", err)
		}
		quiz.PasswordHash = string(hash)
	}
	if err := db.Omit("Creator").Create(&quiz).Error; err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	return quiz
}

// createMCQ adds a multiple-choice question with the given choices; the
// choice at index correct is designated as the answer.
func createMCQ(t *testing.T, db *gorm.DB, quizID uint, correct int, choices ...string) (models.Question, []models.Choice) {
	t.Helper()
	question := models.Question{QuizID: quizID, Content: "Pick one", Type: models.QuestionTypeMCQ}
	if err := db.Create(&question).Error; err != nil {
		t.Fatalf("create question: %v", err)
	}
	out := make([]models.Choice, len(choices))
	for i, content := range choices {
		out[i] = models.Choice{QuestionID: question.ID, Content: content}
		if err := db.Create(&out[i]).Error; err != nil {
			t.Fatalf("create choice: %v", err)
		}
	}
	if correct >= 0 {
		id := out[correct].ID
		question.CorrectChoiceID = &id
		if err := db.Model(&question).Update("correct_choice_id", id).Error; err != nil {
			t.Fatalf("set correct choice: %v", err)
		}
	}
	return question, out
}

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

type recordedEvent struct {
	QuizID uint
	Type   string
	Data   interface{}
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (n *recordingNotifier) BroadcastToQuiz(quizID uint, messageType string, payload interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, recordedEvent{QuizID: quizID, Type: messageType, Data: payload})
}

func (n *recordingNotifier) count(messageType string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	total := 0
	for _, e := range n.events {
		if e.Type == messageType {
			total++
		}
	}
	return total
}

func expectCode(t *testing.T, err error, code ErrorCode) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error code %d, got nil", code)
	}
	if !IsCode(err, code) {
		t.Fatalf("expected error code %d, got %v", code, err)
	}
}
