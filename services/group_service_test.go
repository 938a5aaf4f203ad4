package services

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/lwandile/tutor_connect/models"
)

func TestResolveGroupSessionCreatesThenReuses(t *testing.T) {
	db := setupTestDB(t)
	service := createService(t, db, "Mathematics")

	first, err := ResolveGroupSession(db, service, DeliveryOnline, "2026-10-05")
	if err != nil {
		t.Fatalf("ResolveGroupSession() error = %v", err)
	}
	second, err := ResolveGroupSession(db, service, DeliveryOnline, "2026-10-05")
	if err != nil {
		t.Fatalf("ResolveGroupSession() error = %v", err)
	}
	if first != second {
		t.Errorf("same slot resolved to two sessions: %s and %s", first, second)
	}

	otherDay, err := ResolveGroupSession(db, service, DeliveryOnline, "2026-10-06")
	if err != nil {
		t.Fatalf("ResolveGroupSession() error = %v", err)
	}
	if otherDay == first {
		t.Error("different date must resolve to a different session")
	}
}

func TestConcurrentGroupSubmitsShareOneSession(t *testing.T) {
	db := setupTestDB(t)
	service := createService(t, db, "Physics")

	const students = 8
	ids := make([]uuid.UUID, students)
	for i := range ids {
		ids[i] = createStudent(t, db).ID
	}

	var wg sync.WaitGroup
	errs := make([]error, students)
	for i := 0; i < students; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = SubmitBooking(db, ids[i], groupInput(service.ID, "2026-10-05"))
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("SubmitBooking() #%d error = %v", i, err)
		}
	}

	var sessions []models.GroupSession
	if err := db.Find(&sessions).Error; err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("got %d group sessions for one slot, want 1", len(sessions))
	}
	if sessions[0].CurrentCount != students {
		t.Errorf("CurrentCount = %d, want %d", sessions[0].CurrentCount, students)
	}
}

func TestJoinGroupSessionDuplicateMembership(t *testing.T) {
	db := setupTestDB(t)
	student := createStudent(t, db)
	service := createService(t, db, "Chemistry")

	if _, err := SubmitBooking(db, student.ID, groupInput(service.ID, "2026-10-05")); err != nil {
		t.Fatalf("first SubmitBooking() error = %v", err)
	}
	_, err := SubmitBooking(db, student.ID, groupInput(service.ID, "2026-10-05"))
	if !errors.Is(err, ErrDuplicateMembership) {
		t.Fatalf("second SubmitBooking() error = %v, want ErrDuplicateMembership", err)
	}

	var count int64
	if err := db.Model(&models.GroupSessionParticipant{}).Count(&count).Error; err != nil {
		t.Fatalf("count participants: %v", err)
	}
	if count != 1 {
		t.Errorf("participant rows = %d, want 1", count)
	}
}

func TestJoinGroupSessionRejectsTerminalSession(t *testing.T) {
	db := setupTestDB(t)
	service := createService(t, db, "Economics")

	member := createStudent(t, db)
	booking, err := SubmitBooking(db, member.ID, groupInput(service.ID, "2026-10-05"))
	if err != nil {
		t.Fatalf("SubmitBooking() error = %v", err)
	}
	sessionID := *booking.GroupSessionID

	if _, err := CancelGroupSession(db, sessionID); err != nil {
		t.Fatalf("CancelGroupSession() error = %v", err)
	}

	late := createStudent(t, db)
	_, err = JoinGroupSession(db, sessionID, late.ID, groupInput(service.ID, "2026-10-05"))
	if !errors.Is(err, ErrNotApprovable) {
		t.Fatalf("JoinGroupSession() on cancelled session error = %v, want ErrNotApprovable", err)
	}

	var session models.GroupSession
	if err := db.First(&session, "id = ?", sessionID).Error; err != nil {
		t.Fatalf("load session: %v", err)
	}
	if session.Status != "cancelled" {
		t.Errorf("Status = %q, want cancelled", session.Status)
	}
	var participants int64
	if err := db.Model(&models.GroupSessionParticipant{}).
		Where("group_session_id = ?", sessionID).Count(&participants).Error; err != nil {
		t.Fatalf("count participants: %v", err)
	}
	if participants != 0 {
		t.Errorf("participant rows on cancelled session = %d, want 0", participants)
	}
	var lateBookings int64
	if err := db.Model(&models.Booking{}).
		Where("student_id = ?", late.ID).Count(&lateBookings).Error; err != nil {
		t.Fatalf("count bookings: %v", err)
	}
	if lateBookings != 0 {
		t.Errorf("bookings created by rejected join = %d, want 0", lateBookings)
	}
}

func TestJoinGroupSessionRejectsApprovedSession(t *testing.T) {
	db := setupTestDB(t)
	admin := createUser(t, db, "admin")
	service := createService(t, db, "Afrikaans")
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
	if err := AssignTutors(db, TargetGroupSession, sessionID, []uuid.UUID{tutor.ID}, admin.ID); err != nil {
		t.Fatalf("AssignTutors() error = %v", err)
	}

	late := createStudent(t, db)
	_, err := JoinGroupSession(db, sessionID, late.ID, groupInput(service.ID, "2026-10-05"))
	if !errors.Is(err, ErrNotApprovable) {
		t.Fatalf("JoinGroupSession() on approved session error = %v, want ErrNotApprovable", err)
	}
}

func TestJoinGroupSessionCapacity(t *testing.T) {
	db := setupTestDB(t)
	service := createService(t, db, "Biology")

	key := "cap-test"
	session := models.GroupSession{
		ID:            uuid.New(),
		ServiceID:     service.ID,
		Subject:       service.Name,
		SessionType:   DeliveryOnline,
		PreferredDate: "2026-10-05",
		Status:        "forming",
		MinStudents:   2,
		MaxStudents:   2,
		OpenSlotKey:   &key,
	}
	if err := db.Create(&session).Error; err != nil {
		t.Fatalf("create session: %v", err)
	}

	members := make([]uuid.UUID, 2)
	for i := range members {
		members[i] = createStudent(t, db).ID
		if _, err := JoinGroupSession(db, session.ID, members[i], groupInput(service.ID, "2026-10-05")); err != nil {
			t.Fatalf("JoinGroupSession() #%d error = %v", i, err)
		}
	}

	late := createStudent(t, db)
	_, err := JoinGroupSession(db, session.ID, late.ID, groupInput(service.ID, "2026-10-05"))
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("JoinGroupSession() on full session error = %v, want ErrCapacityExceeded", err)
	}

	// A member of the full session still hears "already joined", not "full".
	_, err = JoinGroupSession(db, session.ID, members[0], groupInput(service.ID, "2026-10-05"))
	if !errors.Is(err, ErrDuplicateMembership) {
		t.Fatalf("rejoin of full session error = %v, want ErrDuplicateMembership", err)
	}

	var stored models.GroupSession
	if err := db.First(&stored, "id = ?", session.ID).Error; err != nil {
		t.Fatalf("load session: %v", err)
	}
	if stored.Status != "full" {
		t.Errorf("Status = %q, want full", stored.Status)
	}
	if stored.OpenSlotKey != nil {
		t.Error("full session must release its open slot key")
	}
}

func TestFullSessionFreesSlotForNewGroup(t *testing.T) {
	db := setupTestDB(t)
	service := createService(t, db, "Accounting")

	key := openSlotKey(service.ID, DeliveryOnline, "2026-10-05")
	session := models.GroupSession{
		ID:            uuid.New(),
		ServiceID:     service.ID,
		Subject:       service.Name,
		SessionType:   DeliveryOnline,
		PreferredDate: "2026-10-05",
		Status:        "forming",
		MinStudents:   2,
		MaxStudents:   2,
		OpenSlotKey:   &key,
	}
	if err := db.Create(&session).Error; err != nil {
		t.Fatalf("create session: %v", err)
	}
	for i := 0; i < 2; i++ {
		student := createStudent(t, db)
		if _, err := JoinGroupSession(db, session.ID, student.ID, groupInput(service.ID, "2026-10-05")); err != nil {
			t.Fatalf("JoinGroupSession() error = %v", err)
		}
	}

	// The slot is free again, so the next student gets a fresh group.
	newcomer := createStudent(t, db)
	booking, err := SubmitBooking(db, newcomer.ID, groupInput(service.ID, "2026-10-05"))
	if err != nil {
		t.Fatalf("SubmitBooking() error = %v", err)
	}
	if booking.GroupSessionID == nil || *booking.GroupSessionID == session.ID {
		t.Error("newcomer must land in a new group session, not the full one")
	}
}

func TestNextGroupStatus(t *testing.T) {
	tests := []struct {
		name  string
		count int
		want  string
	}{
		{name: "empty", count: 0, want: "forming"},
		{name: "below quorum", count: 2, want: "forming"},
		{name: "at quorum", count: 3, want: "ready"},
		{name: "above quorum", count: 10, want: "ready"},
		{name: "at capacity", count: 40, want: "full"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nextGroupStatus(tt.count, GroupMinStudents, GroupMaxStudents); got != tt.want {
				t.Errorf("nextGroupStatus(%d) = %q, want %q", tt.count, got, tt.want)
			}
		})
	}
}

func TestGroupFormationReachesQuorum(t *testing.T) {
	db := setupTestDB(t)
	service := createService(t, db, "English")

	var sessionID uuid.UUID
	var bookings []*models.Booking
	for i := 0; i < GroupMinStudents; i++ {
		student := createStudent(t, db)
		booking, err := SubmitBooking(db, student.ID, groupInput(service.ID, "2026-10-05"))
		if err != nil {
			t.Fatalf("SubmitBooking() #%d error = %v", i, err)
		}
		bookings = append(bookings, booking)
		sessionID = *booking.GroupSessionID

		var session models.GroupSession
		if err := db.First(&session, "id = ?", sessionID).Error; err != nil {
			t.Fatalf("load session: %v", err)
		}
		want := "forming"
		if i+1 >= GroupMinStudents {
			want = "ready"
		}
		if session.Status != want {
			t.Errorf("after %d joins Status = %q, want %q", i+1, session.Status, want)
		}
		if session.CurrentCount != i+1 {
			t.Errorf("after %d joins CurrentCount = %d", i+1, session.CurrentCount)
		}
	}

	// Dropping below quorum demotes the session back to forming.
	first := bookings[0]
	if err := CancelBooking(db, first.ID, first.StudentID); err != nil {
		t.Fatalf("CancelBooking() error = %v", err)
	}
	var session models.GroupSession
	if err := db.First(&session, "id = ?", sessionID).Error; err != nil {
		t.Fatalf("load session: %v", err)
	}
	if session.Status != "forming" {
		t.Errorf("after leave Status = %q, want forming", session.Status)
	}
	if session.CurrentCount != GroupMinStudents-1 {
		t.Errorf("after leave CurrentCount = %d, want %d", session.CurrentCount, GroupMinStudents-1)
	}
}

func TestReconcileQuorumLeavesTerminalStatus(t *testing.T) {
	db := setupTestDB(t)
	service := createService(t, db, "History")

	session := models.GroupSession{
		ID:            uuid.New(),
		ServiceID:     service.ID,
		Subject:       service.Name,
		SessionType:   DeliveryOnline,
		PreferredDate: "2026-10-05",
		Status:        "approved",
		MinStudents:   GroupMinStudents,
		MaxStudents:   GroupMaxStudents,
		CurrentCount:  3,
	}
	if err := db.Create(&session).Error; err != nil {
		t.Fatalf("create session: %v", err)
	}

	if err := ReconcileQuorum(db, &session); err != nil {
		t.Fatalf("ReconcileQuorum() error = %v", err)
	}
	if session.Status != "approved" {
		t.Errorf("Status = %q, want approved", session.Status)
	}
	if session.CurrentCount != 0 {
		t.Errorf("CurrentCount = %d, want recount of 0", session.CurrentCount)
	}
}

func TestCancelGroupSessionCascades(t *testing.T) {
	db := setupTestDB(t)
	service := createService(t, db, "Geography")

	var sessionID uuid.UUID
	studentIDs := make(map[uuid.UUID]bool)
	for i := 0; i < 3; i++ {
		student := createStudent(t, db)
		booking, err := SubmitBooking(db, student.ID, groupInput(service.ID, "2026-10-05"))
		if err != nil {
			t.Fatalf("SubmitBooking() error = %v", err)
		}
		sessionID = *booking.GroupSessionID
		studentIDs[student.ID] = true
	}

	affected, err := CancelGroupSession(db, sessionID)
	if err != nil {
		t.Fatalf("CancelGroupSession() error = %v", err)
	}
	if len(affected) != 3 {
		t.Fatalf("affected students = %d, want 3", len(affected))
	}
	for _, id := range affected {
		if !studentIDs[id] {
			t.Errorf("unexpected student id %s in cancellation result", id)
		}
	}

	var session models.GroupSession
	if err := db.First(&session, "id = ?", sessionID).Error; err != nil {
		t.Fatalf("load session: %v", err)
	}
	if session.Status != "cancelled" || session.OpenSlotKey != nil || session.CurrentCount != 0 {
		t.Errorf("session after cancel = {%s %v %d}, want {cancelled <nil> 0}",
			session.Status, session.OpenSlotKey, session.CurrentCount)
	}

	var participants int64
	if err := db.Model(&models.GroupSessionParticipant{}).
		Where("group_session_id = ?", sessionID).Count(&participants).Error; err != nil {
		t.Fatalf("count participants: %v", err)
	}
	if participants != 0 {
		t.Errorf("participant rows = %d, want 0", participants)
	}

	var pending int64
	if err := db.Model(&models.Booking{}).
		Where("group_session_id = ? AND status = ?", sessionID, "pending").
		Count(&pending).Error; err != nil {
		t.Fatalf("count bookings: %v", err)
	}
	if pending != 0 {
		t.Errorf("pending linked bookings = %d, want 0", pending)
	}

	// Cancelling twice is rejected.
	if _, err := CancelGroupSession(db, sessionID); !errors.Is(err, ErrNotApprovable) {
		t.Fatalf("second CancelGroupSession() error = %v, want ErrNotApprovable", err)
	}
}
