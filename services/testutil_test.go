package services

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/lwandile/tutor_connect/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens a fresh in-memory database per test. A single connection
// keeps concurrent transactions serialized, which is also how the concurrency
// tests observe the duplicate-key path instead of a driver-level write
// conflict.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.User{},
		&models.TutorDetail{},
		&models.TutoringService{},
		&models.Booking{},
		&models.GroupSession{},
		&models.GroupSessionParticipant{},
		&models.TutorAssignment{},
		&models.TutorAvailability{},
		&models.Notification{},
	)
	if err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}

var userSeq int

func createUser(t *testing.T, db *gorm.DB, role string) models.User {
	t.Helper()
	userSeq++
	user := models.User{
		ID:       uuid.New(),
		FullName: fmt.Sprintf("Test %s %d", role, userSeq),
		Email:    fmt.Sprintf("%s%d@test.test", role, userSeq),
		Password: "hashed",
		Role:     role,
		IsActive: true,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create %s: %v", role, err)
	}
	return user
}

func createStudent(t *testing.T, db *gorm.DB) models.User {
	return createUser(t, db, "student")
}

func createTutor(t *testing.T, db *gorm.DB) models.User {
	return createUser(t, db, "tutor")
}

func createService(t *testing.T, db *gorm.DB, name string) models.TutoringService {
	t.Helper()
	service := models.TutoringService{
		ID:              uuid.New(),
		Name:            name,
		OnlineAvailable: true,
		IsActive:        true,
	}
	if err := db.Create(&service).Error; err != nil {
		t.Fatalf("create service: %v", err)
	}
	return service
}

func groupInput(serviceID uuid.UUID, date string) BookingInput {
	return BookingInput{
		ServiceID:     serviceID,
		ClassType:     ClassTypeGroup,
		PreferredDate: date,
	}
}

func oneOnOneInput(serviceID uuid.UUID) BookingInput {
	return BookingInput{
		ServiceID:       serviceID,
		ClassType:       ClassTypeOneOnOne,
		DeliveryMode:    DeliveryOnline,
		PreferredDate:   "2026-10-05",
		PreferredTime:   "15:00",
		Curriculum:      "CAPS",
		DurationMinutes: 60,
	}
}
