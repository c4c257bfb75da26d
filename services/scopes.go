package services

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Ownership predicates shared by every creator-facing query. Rows outside the
// requester's scope are simply absent from results, so callers report them as
// not found rather than forbidden.

func ownedQuizzes(userID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("quizzes.creator_id = ?", userID)
	}
}

func ownedQuestions(userID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Joins("JOIN quizzes ON quizzes.id = questions.quiz_id").
			Where("quizzes.creator_id = ?", userID)
	}
}

func ownedChoices(userID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Joins("JOIN questions ON questions.id = choices.question_id").
			Joins("JOIN quizzes ON quizzes.id = questions.quiz_id").
			Where("quizzes.creator_id = ?", userID)
	}
}

func orderByID(table string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(table + ".id")
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// isUniqueViolation recognises duplicate-key failures whether or not the
// dialector translated them.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
