package services

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/lwandile/tutor_connect/models"
)

func TestAssignTutorsToBooking(t *testing.T) {
	db := setupTestDB(t)
	admin := createUser(t, db, "admin")
	student := createStudent(t, db)
	service := createService(t, db, "Mathematics")
	tutors := []uuid.UUID{createTutor(t, db).ID, createTutor(t, db).ID, createTutor(t, db).ID}

	booking, err := SubmitBooking(db, student.ID, oneOnOneInput(service.ID))
	if err != nil {
		t.Fatalf("SubmitBooking() error = %v", err)
	}

	if err := AssignTutors(db, TargetBooking, booking.ID, tutors, admin.ID); err != nil {
		t.Fatalf("AssignTutors() error = %v", err)
	}

	var stored models.Booking
	if err := db.First(&stored, "id = ?", booking.ID).Error; err != nil {
		t.Fatalf("load booking: %v", err)
	}
	if stored.Status != "assigned" {
		t.Errorf("Status = %q, want assigned", stored.Status)
	}
	if stored.TutorID == nil || *stored.TutorID != tutors[0] {
		t.Errorf("primary tutor mirror = %v, want %s", stored.TutorID, tutors[0])
	}
	if stored.TutorAssignedAt == nil {
		t.Error("TutorAssignedAt not set")
	}

	var assignments []models.TutorAssignment
	if err := db.Where("target_id = ? AND target_type = ?", booking.ID, TargetBooking).
		Order("assignment_order asc").Find(&assignments).Error; err != nil {
		t.Fatalf("load assignments: %v", err)
	}
	if len(assignments) != len(tutors) {
		t.Fatalf("assignment rows = %d, want %d", len(assignments), len(tutors))
	}
	for i, a := range assignments {
		if a.AssignmentOrder != i+1 {
			t.Errorf("assignment %d order = %d, want %d", i, a.AssignmentOrder, i+1)
		}
		if a.TutorID != tutors[i] {
			t.Errorf("assignment %d tutor = %s, want %s", i, a.TutorID, tutors[i])
		}
		if a.AssignedBy != admin.ID {
			t.Errorf("assignment %d assigned_by = %s, want %s", i, a.AssignedBy, admin.ID)
		}
	}
}

func TestAssignTutorsListValidation(t *testing.T) {
	db := setupTestDB(t)
	admin := createUser(t, db, "admin")
	student := createStudent(t, db)
	service := createService(t, db, "Physics")

	booking, err := SubmitBooking(db, student.ID, oneOnOneInput(service.ID))
	if err != nil {
		t.Fatalf("SubmitBooking() error = %v", err)
	}

	six := make([]uuid.UUID, 6)
	for i := range six {
		six[i] = uuid.New()
	}
	tests := []struct {
		name     string
		tutorIDs []uuid.UUID
	}{
		{name: "empty list", tutorIDs: nil},
		{name: "six tutors", tutorIDs: six},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := AssignTutors(db, TargetBooking, booking.ID, tt.tutorIDs, admin.ID)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("AssignTutors() error = %v, want *ValidationError", err)
			}
		})
	}

	// Neither rejected call may leave rows or move the booking.
	var rows int64
	if err := db.Model(&models.TutorAssignment{}).Count(&rows).Error; err != nil {
		t.Fatalf("count assignments: %v", err)
	}
	if rows != 0 {
		t.Errorf("assignment rows = %d, want 0", rows)
	}
	var stored models.Booking
	if err := db.First(&stored, "id = ?", booking.ID).Error; err != nil {
		t.Fatalf("load booking: %v", err)
	}
	if stored.Status != "pending" {
		t.Errorf("Status = %q, want pending", stored.Status)
	}
}

func TestAssignTutorsRejectsNonPendingBooking(t *testing.T) {
	db := setupTestDB(t)
	admin := createUser(t, db, "admin")
	student := createStudent(t, db)
	service := createService(t, db, "Chemistry")
	tutor := createTutor(t, db)

	booking, err := SubmitBooking(db, student.ID, oneOnOneInput(service.ID))
	if err != nil {
		t.Fatalf("SubmitBooking() error = %v", err)
	}
	if err := AssignTutors(db, TargetBooking, booking.ID, []uuid.UUID{tutor.ID}, admin.ID); err != nil {
		t.Fatalf("AssignTutors() error = %v", err)
	}

	other := createTutor(t, db)
	err = AssignTutors(db, TargetBooking, booking.ID, []uuid.UUID{other.ID}, admin.ID)
	if !errors.Is(err, ErrNotApprovable) {
		t.Fatalf("second AssignTutors() error = %v, want ErrNotApprovable", err)
	}
}

func TestAssignTutorsDuplicateTutorRollsBack(t *testing.T) {
	db := setupTestDB(t)
	admin := createUser(t, db, "admin")
	student := createStudent(t, db)
	service := createService(t, db, "Biology")
	tutorA := createTutor(t, db)
	tutorB := createTutor(t, db)

	booking, err := SubmitBooking(db, student.ID, oneOnOneInput(service.ID))
	if err != nil {
		t.Fatalf("SubmitBooking() error = %v", err)
	}

	err = AssignTutors(db, TargetBooking, booking.ID,
		[]uuid.UUID{tutorA.ID, tutorB.ID, tutorA.ID}, admin.ID)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("AssignTutors() error = %v, want *ValidationError", err)
	}

	// The first two inserts must have rolled back with the third.
	var rows int64
	if err := db.Model(&models.TutorAssignment{}).
		Where("target_id = ?", booking.ID).Count(&rows).Error; err != nil {
		t.Fatalf("count assignments: %v", err)
	}
	if rows != 0 {
		t.Errorf("assignment rows after rollback = %d, want 0", rows)
	}

	var stored models.Booking
	if err := db.First(&stored, "id = ?", booking.ID).Error; err != nil {
		t.Fatalf("load booking: %v", err)
	}
	if stored.Status != "pending" || stored.TutorID != nil {
		t.Errorf("booking after rollback = {%s %v}, want {pending <nil>}", stored.Status, stored.TutorID)
	}
}

func TestAssignTutorsToGroupSession(t *testing.T) {
	db := setupTestDB(t)
	admin := createUser(t, db, "admin")
	service := createService(t, db, "English")
	tutors := []uuid.UUID{createTutor(t, db).ID, createTutor(t, db).ID}

	var sessionID uuid.UUID
	for i := 0; i < GroupMinStudents; i++ {
		student := createStudent(t, db)
		booking, err := SubmitBooking(db, student.ID, groupInput(service.ID, "2026-10-05"))
		if err != nil {
			t.Fatalf("SubmitBooking() error = %v", err)
		}
		sessionID = *booking.GroupSessionID
	}

	if err := AssignTutors(db, TargetGroupSession, sessionID, tutors, admin.ID); err != nil {
		t.Fatalf("AssignTutors() error = %v", err)
	}

	var session models.GroupSession
	if err := db.First(&session, "id = ?", sessionID).Error; err != nil {
		t.Fatalf("load session: %v", err)
	}
	if session.Status != "approved" {
		t.Errorf("Status = %q, want approved", session.Status)
	}
	if session.OpenSlotKey != nil {
		t.Error("approved session must release its open slot key")
	}
	if session.TutorID == nil || *session.TutorID != tutors[0] {
		t.Errorf("primary tutor mirror = %v, want %s", session.TutorID, tutors[0])
	}

	var linked []models.Booking
	if err := db.Where("group_session_id = ?", sessionID).Find(&linked).Error; err != nil {
		t.Fatalf("load linked bookings: %v", err)
	}
	if len(linked) != GroupMinStudents {
		t.Fatalf("linked bookings = %d, want %d", len(linked), GroupMinStudents)
	}
	for _, b := range linked {
		if b.Status != "assigned" {
			t.Errorf("linked booking %s status = %q, want assigned", b.Reference, b.Status)
		}
		if b.TutorID == nil || *b.TutorID != tutors[0] {
			t.Errorf("linked booking %s tutor mirror = %v, want %s", b.Reference, b.TutorID, tutors[0])
		}
	}
}

func TestAssignTutorsRejectsFormingGroupSession(t *testing.T) {
	db := setupTestDB(t)
	admin := createUser(t, db, "admin")
	service := createService(t, db, "History")
	tutor := createTutor(t, db)

	student := createStudent(t, db)
	booking, err := SubmitBooking(db, student.ID, groupInput(service.ID, "2026-10-05"))
	if err != nil {
		t.Fatalf("SubmitBooking() error = %v", err)
	}

	err = AssignTutors(db, TargetGroupSession, *booking.GroupSessionID, []uuid.UUID{tutor.ID}, admin.ID)
	if !errors.Is(err, ErrNotApprovable) {
		t.Fatalf("AssignTutors() on forming session error = %v, want ErrNotApprovable", err)
	}
}

func TestSetMeetingLinkOnBooking(t *testing.T) {
	db := setupTestDB(t)
	admin := createUser(t, db, "admin")
	student := createStudent(t, db)
	service := createService(t, db, "Mathematics")
	tutor := createTutor(t, db)

	booking, err := SubmitBooking(db, student.ID, oneOnOneInput(service.ID))
	if err != nil {
		t.Fatalf("SubmitBooking() error = %v", err)
	}

	// No link before a tutor is assigned.
	err = SetMeetingLink(db, TargetBooking, booking.ID, "https://meet.test/abc")
	if !errors.Is(err, ErrNotApprovable) {
		t.Fatalf("SetMeetingLink() on pending booking error = %v, want ErrNotApprovable", err)
	}

	if err := AssignTutors(db, TargetBooking, booking.ID, []uuid.UUID{tutor.ID}, admin.ID); err != nil {
		t.Fatalf("AssignTutors() error = %v", err)
	}
	if err := SetMeetingLink(db, TargetBooking, booking.ID, "https://meet.test/abc"); err != nil {
		t.Fatalf("SetMeetingLink() error = %v", err)
	}

	var stored models.Booking
	if err := db.First(&stored, "id = ?", booking.ID).Error; err != nil {
		t.Fatalf("load booking: %v", err)
	}
	if stored.MeetingLink == nil || *stored.MeetingLink != "https://meet.test/abc" {
		t.Errorf("MeetingLink = %v, want https://meet.test/abc", stored.MeetingLink)
	}

	if err := SetMeetingLink(db, TargetBooking, booking.ID, ""); err == nil {
		t.Error("SetMeetingLink() with empty link must fail")
	}
	if err := SetMeetingLink(db, TargetBooking, uuid.New(), "https://meet.test/abc"); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetMeetingLink() on unknown booking error = %v, want ErrNotFound", err)
	}
}

func TestSetMeetingLinkOnGroupSessionPropagates(t *testing.T) {
	db := setupTestDB(t)
	admin := createUser(t, db, "admin")
	service := createService(t, db, "Physics")
	tutor := createTutor(t, db)

	var sessionID uuid.UUID
	for i := 0; i < GroupMinStudents; i++ {
		student := createStudent(t, db)
		booking, err := SubmitBooking(db, student.ID, groupInput(service.ID, "2026-10-05"))
		if err != nil {
			t.Fatalf("SubmitBooking() error = %v", err)
		}
		sessionID = *booking.GroupSessionID
	}

	err := SetMeetingLink(db, TargetGroupSession, sessionID, "https://meet.test/group")
	if !errors.Is(err, ErrNotApprovable) {
		t.Fatalf("SetMeetingLink() on ready session error = %v, want ErrNotApprovable", err)
	}

	if err := AssignTutors(db, TargetGroupSession, sessionID, []uuid.UUID{tutor.ID}, admin.ID); err != nil {
		t.Fatalf("AssignTutors() error = %v", err)
	}
	if err := SetMeetingLink(db, TargetGroupSession, sessionID, "https://meet.test/group"); err != nil {
		t.Fatalf("SetMeetingLink() error = %v", err)
	}

	var session models.GroupSession
	if err := db.First(&session, "id = ?", sessionID).Error; err != nil {
		t.Fatalf("load session: %v", err)
	}
	if session.MeetingLink == nil || *session.MeetingLink != "https://meet.test/group" {
		t.Errorf("session MeetingLink = %v, want https://meet.test/group", session.MeetingLink)
	}

	var linked []models.Booking
	if err := db.Where("group_session_id = ?", sessionID).Find(&linked).Error; err != nil {
		t.Fatalf("load linked bookings: %v", err)
	}
	for _, b := range linked {
		if b.MeetingLink == nil || *b.MeetingLink != "https://meet.test/group" {
			t.Errorf("linked booking %s MeetingLink = %v, want propagated link", b.Reference, b.MeetingLink)
		}
	}
}

func TestTutorAvailabilityHints(t *testing.T) {
	db := setupTestDB(t)
	early := createTutor(t, db)
	late := createTutor(t, db)
	idle := createTutor(t, db)

	// 2026-10-05 is a Monday.
	windows := []models.TutorAvailability{
		{ID: uuid.New(), TutorID: early.ID, DayOfWeek: 1, StartTime: "08:00", EndTime: "12:00", IsActive: true},
		{ID: uuid.New(), TutorID: late.ID, DayOfWeek: 1, StartTime: "14:00", EndTime: "18:00", IsActive: true},
		{ID: uuid.New(), TutorID: idle.ID, DayOfWeek: 2, StartTime: "08:00", EndTime: "18:00", IsActive: true},
	}
	for i := range windows {
		if err := db.Create(&windows[i]).Error; err != nil {
			t.Fatalf("create window: %v", err)
		}
	}

	tests := []struct {
		name          string
		time          string
		wantAvailable map[uuid.UUID]bool
	}{
		{name: "morning slot", time: "09:30", wantAvailable: map[uuid.UUID]bool{early.ID: true}},
		{name: "afternoon slot", time: "14:00", wantAvailable: map[uuid.UUID]bool{late.ID: true}},
		{name: "window end is exclusive", time: "12:00", wantAvailable: map[uuid.UUID]bool{}},
		{name: "no time requested", time: "", wantAvailable: map[uuid.UUID]bool{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hints, err := TutorAvailabilityHints(db, "2026-10-05", tt.time)
			if err != nil {
				t.Fatalf("TutorAvailabilityHints() error = %v", err)
			}
			if len(hints) != 3 {
				t.Fatalf("hints = %d tutors, want all 3", len(hints))
			}
			for _, h := range hints {
				if h.IsAvailable != tt.wantAvailable[h.ID] {
					t.Errorf("tutor %s available = %v, want %v", h.FullName, h.IsAvailable, tt.wantAvailable[h.ID])
				}
			}
			for i := 1; i < len(hints); i++ {
				if !hints[i-1].IsAvailable && hints[i].IsAvailable {
					t.Error("available tutors must sort before unavailable ones")
				}
			}
		})
	}
}

func TestTutorAvailabilityHintsBadDate(t *testing.T) {
	db := setupTestDB(t)
	_, err := TutorAvailabilityHints(db, "05/10/2026", "10:00")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("TutorAvailabilityHints() error = %v, want *ValidationError", err)
	}
}
