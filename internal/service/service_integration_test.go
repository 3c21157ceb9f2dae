package service_test

import (
	"database/sql"
	"sync"
	"testing"

	"meritboard/internal/apperrors"
	"meritboard/internal/authz"
	"meritboard/internal/config"
	"meritboard/internal/email"
	"meritboard/internal/models"
	"meritboard/internal/repository"
	"meritboard/internal/service"
	"meritboard/internal/storage"
	"meritboard/internal/testutil"
)

type testServices struct {
	studentRepo *repository.StudentRepository
	scoring     *service.ScoringService
	rules       *service.RulesService
	review      *service.ReviewService
	program     *service.ProgramService
}

func newTestServices(t *testing.T, db *sql.DB) *testServices {
	t.Helper()

	studentRepo := repository.NewStudentRepository(db)
	subjectRepo := repository.NewSubjectScoreRepository(db)
	academicRepo := repository.NewAcademicExpertiseRepository(db)
	comprehensiveRepo := repository.NewComprehensivePerformanceRepository(db)
	limitRepo := repository.NewScoreLimitRepository(db)
	ruleRepo := repository.NewCategoryRuleRepository(db)
	rankingRepo := repository.NewRankingRepository(db)
	volunteerRepo := repository.NewVolunteerRepository(db)
	ticketRepo := repository.NewTicketRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	selectionRepo := repository.NewSelectionRepository(db)
	proofRepo := repository.NewProofReviewRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	store, err := storage.NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create disk store: %v", err)
	}
	auditService := service.NewAuditService(auditRepo)
	emailService := email.NewService(&config.EmailConfig{Enabled: false})
	scoring := service.NewScoringService(subjectRepo, academicRepo, comprehensiveRepo, proofRepo, limitRepo, rankingRepo, auditService)
	rules := service.NewRulesService(limitRepo, ruleRepo, proofRepo, academicRepo, comprehensiveRepo, store, auditService)
	review := service.NewReviewService(volunteerRepo, ticketRepo, studentRepo, emailService, auditService)
	program := service.NewProgramService(projectRepo, selectionRepo, studentRepo, auditService)

	return &testServices{
		studentRepo: studentRepo,
		scoring:     scoring,
		rules:       rules,
		review:      review,
		program:     program,
	}
}

func principal(s *models.Student) authz.Principal {
	return authz.Principal{UserID: s.ID, Account: s.Username, Role: s.Role}
}

func float64Ptr(v float64) *float64 { return &v }

func TestScoreAggregationAndRanking(t *testing.T) {
	containers := testutil.SetupTestContainers(t)
	defer containers.Cleanup(t)

	svc := newTestServices(t, containers.DB)

	admin := testutil.CreateStudent(t, containers.DB, "admin", "A-0001", models.RoleAdmin)
	alice := testutil.CreateStudent(t, containers.DB, "alice", "S-1001", models.RoleStudent)
	bob := testutil.CreateStudent(t, containers.DB, "bob", "S-1002", models.RoleStudent)

	// Alice maxes the subject component under the default caps.
	if _, err := svc.scoring.SetSubjectScore(principal(alice), alice.ID, 4, 80); err != nil {
		t.Fatalf("SetSubjectScore(alice): %v", err)
	}
	for _, score := range []float64{8, 10} {
		rec := &models.AcademicExpertise{StudentID: alice.ID, Name: "award", Score: score}
		if _, err := svc.scoring.AddAcademicExpertise(principal(alice), rec); err != nil {
			t.Fatalf("AddAcademicExpertise: %v", err)
		}
	}
	for _, score := range []float64{9, 6} {
		rec := &models.ComprehensivePerformance{StudentID: alice.ID, Name: "service", Score: score}
		if _, err := svc.scoring.AddComprehensivePerformance(principal(alice), rec); err != nil {
			t.Fatalf("AddComprehensivePerformance: %v", err)
		}
	}

	if _, err := svc.scoring.SetSubjectScore(principal(bob), bob.ID, 3, 80); err != nil {
		t.Fatalf("SetSubjectScore(bob): %v", err)
	}

	// Defaults: subject min(80,80)=80, academic min(18,15)=15,
	// comprehensive min(15,5)=5, total clamped to 100.
	got := reloadStudent(t, svc.studentRepo, alice.ID)
	if got.TotalScore != 100 {
		t.Errorf("alice total = %v, want 100", got.TotalScore)
	}
	if got.Ranking != 1 {
		t.Errorf("alice ranking = %d, want 1", got.Ranking)
	}
	if b := reloadStudent(t, svc.studentRepo, bob.ID); b.Ranking != 2 {
		t.Errorf("bob ranking = %d, want 2", b.Ranking)
	}

	// Tightening the caps does not touch stored totals until a recompute.
	_, err := svc.rules.UpdateLimits(admin.ID, service.LimitUpdate{
		AMax: float64Ptr(50),
		BMax: float64Ptr(12),
		CMax: float64Ptr(10),
	})
	if err != nil {
		t.Fatalf("UpdateLimits: %v", err)
	}
	if got := reloadStudent(t, svc.studentRepo, alice.ID); got.TotalScore != 100 {
		t.Errorf("alice total right after cap change = %v, want 100 (lazy)", got.TotalScore)
	}

	// A forced recompute re-derives every total from raw inputs under the
	// new caps: subject 50, academic 12, comprehensive 10.
	if err := svc.scoring.Recompute(); err != nil {
		t.Fatalf("Recompute: %v", err)
	}

	got = reloadStudent(t, svc.studentRepo, alice.ID)
	if got.TotalScore != 72 {
		t.Errorf("alice total after recompute = %v, want 72", got.TotalScore)
	}

	// Bob's subject score shrinks too: min((3/4)*80, 50) = 50.
	if b := reloadStudent(t, svc.studentRepo, bob.ID); b.TotalScore != 50 {
		t.Errorf("bob total after recompute = %v, want 50", b.TotalScore)
	}
}

func TestStudentsCannotTouchOthersRecords(t *testing.T) {
	containers := testutil.SetupTestContainers(t)
	defer containers.Cleanup(t)

	svc := newTestServices(t, containers.DB)

	alice := testutil.CreateStudent(t, containers.DB, "alice", "S-1001", models.RoleStudent)
	bob := testutil.CreateStudent(t, containers.DB, "bob", "S-1002", models.RoleStudent)

	if _, err := svc.scoring.SetSubjectScore(principal(bob), alice.ID, 4, 80); !apperrors.IsKind(err, apperrors.KindPermission) {
		t.Errorf("SetSubjectScore for someone else = %v, want permission error", err)
	}

	rec := &models.AcademicExpertise{StudentID: alice.ID, Name: "award", Score: 5}
	if _, err := svc.scoring.AddAcademicExpertise(principal(alice), rec); err != nil {
		t.Fatalf("AddAcademicExpertise: %v", err)
	}

	rec.Score = 10
	if err := svc.scoring.UpdateAcademicExpertise(principal(bob), rec); !apperrors.IsKind(err, apperrors.KindPermission) {
		t.Errorf("UpdateAcademicExpertise by non-owner = %v, want permission error", err)
	}
	if err := svc.scoring.DeleteAcademicExpertise(principal(bob), rec.ID); !apperrors.IsKind(err, apperrors.KindPermission) {
		t.Errorf("DeleteAcademicExpertise by non-owner = %v, want permission error", err)
	}
}

func TestCategoryRuleReplaceIsAtomic(t *testing.T) {
	containers := testutil.SetupTestContainers(t)
	defer containers.Cleanup(t)

	svc := newTestServices(t, containers.DB)
	admin := testutil.CreateStudent(t, containers.DB, "admin", "A-0001", models.RoleAdmin)

	initial := []models.ScoreCategoryRule{
		{Name: "competitions", Cap: 10, Ratio: 60},
		{Name: "publications", Cap: 5, Ratio: 40},
	}
	if _, err := svc.rules.ReplaceCategoryRules(admin.ID, initial); err != nil {
		t.Fatalf("ReplaceCategoryRules(initial): %v", err)
	}

	// Ratios summing to 90 must be rejected without touching the store.
	bad := []models.ScoreCategoryRule{
		{Name: "competitions", Cap: 10, Ratio: 50},
		{Name: "publications", Cap: 5, Ratio: 40},
	}
	if _, err := svc.rules.ReplaceCategoryRules(admin.ID, bad); !apperrors.IsKind(err, apperrors.KindValidation) {
		t.Fatalf("ReplaceCategoryRules(bad) = %v, want validation error", err)
	}

	rules, err := svc.rules.ListCategoryRules()
	if err != nil {
		t.Fatalf("ListCategoryRules: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("got %d rules after failed replace, want 2", len(rules))
	}
	if rules[0].Name != "competitions" || rules[0].Ratio != 60 {
		t.Errorf("rule[0] = %+v, want competitions/60", rules[0])
	}

	// An empty replacement clears the rule set.
	if _, err := svc.rules.ReplaceCategoryRules(admin.ID, nil); err != nil {
		t.Fatalf("ReplaceCategoryRules(empty): %v", err)
	}
	rules, err = svc.rules.ListCategoryRules()
	if err != nil {
		t.Fatalf("ListCategoryRules after clear: %v", err)
	}
	if len(rules) != 0 {
		t.Errorf("got %d rules after clear, want 0", len(rules))
	}
}

func TestVolunteerReviewPipeline(t *testing.T) {
	containers := testutil.SetupTestContainers(t)
	defer containers.Cleanup(t)

	svc := newTestServices(t, containers.DB)

	alice := testutil.CreateStudent(t, containers.DB, "alice", "S-1001", models.RoleStudent)
	teacher := testutil.CreateStudent(t, containers.DB, "prof", "T-0001", models.RoleTeacher)
	admin := testutil.CreateStudent(t, containers.DB, "admin", "A-0001", models.RoleAdmin)

	rec, err := svc.review.SubmitVolunteer(principal(alice), &models.VolunteerRecord{
		StudentName: "Alice",
		StudentID:   alice.StudentID,
		Activity:    "library support",
		Hours:       12,
	})
	if err != nil {
		t.Fatalf("SubmitVolunteer: %v", err)
	}
	if rec.ReviewStage != models.StageOne || rec.Status != models.StatusPending {
		t.Fatalf("new record state = %s/%s, want stage1/pending", rec.ReviewStage, rec.Status)
	}
	if rec.StudentAccount != "alice" {
		t.Errorf("student submission account = %q, want alice", rec.StudentAccount)
	}

	// Three approvals walk the record to completion.
	for _, wantStage := range []string{models.StageTwo, models.StageThree, models.StageCompleted} {
		rec, err = svc.review.ReviewVolunteer(principal(teacher), rec.ID, "advance", "ok")
		if err != nil {
			t.Fatalf("ReviewVolunteer(advance): %v", err)
		}
		if rec.ReviewStage != wantStage {
			t.Fatalf("stage = %s, want %s", rec.ReviewStage, wantStage)
		}
	}
	if rec.Status != models.StatusApproved {
		t.Errorf("final status = %s, want approved", rec.Status)
	}
	if len(rec.ReviewTrail) != 3 {
		t.Errorf("trail length = %d, want 3", len(rec.ReviewTrail))
	}

	// A completed record cannot be reviewed again.
	if _, err := svc.review.ReviewVolunteer(principal(teacher), rec.ID, "advance", ""); !apperrors.IsKind(err, apperrors.KindValidation) {
		t.Errorf("review of decided record = %v, want validation error", err)
	}

	// Only admins can override; cancel appends an annotated trail entry.
	if _, err := svc.review.OverrideVolunteer(principal(teacher), rec.ID, "cancel", "void"); !apperrors.IsKind(err, apperrors.KindPermission) {
		t.Errorf("override by teacher = %v, want permission error", err)
	}
	rec, err = svc.review.OverrideVolunteer(principal(admin), rec.ID, "cancel", "duplicate entry")
	if err != nil {
		t.Fatalf("OverrideVolunteer(cancel): %v", err)
	}
	if rec.Status != models.StatusCancelled {
		t.Errorf("status after cancel = %s, want cancelled", rec.Status)
	}
	if len(rec.ReviewTrail) != 4 {
		t.Errorf("trail length after cancel = %d, want 4", len(rec.ReviewTrail))
	}
}

func TestRejectionAndStudentResubmit(t *testing.T) {
	containers := testutil.SetupTestContainers(t)
	defer containers.Cleanup(t)

	svc := newTestServices(t, containers.DB)

	alice := testutil.CreateStudent(t, containers.DB, "alice", "S-1001", models.RoleStudent)
	teacher := testutil.CreateStudent(t, containers.DB, "prof", "T-0001", models.RoleTeacher)

	rec, err := svc.review.SubmitVolunteer(principal(alice), &models.VolunteerRecord{
		StudentName: "Alice",
		StudentID:   alice.StudentID,
		Activity:    "tutoring",
		Hours:       4,
	})
	if err != nil {
		t.Fatalf("SubmitVolunteer: %v", err)
	}

	rec, err = svc.review.ReviewVolunteer(principal(teacher), rec.ID, "reject", "missing proof")
	if err != nil {
		t.Fatalf("ReviewVolunteer(reject): %v", err)
	}
	if rec.Status != models.StatusRejected || rec.ReviewStage != models.StageOne {
		t.Fatalf("after reject = %s/%s, want stage1/rejected", rec.ReviewStage, rec.Status)
	}

	// A rejected record is terminal for the student; only a reviewer reset
	// puts it back in play.
	rec.Proof = "scan.pdf"
	if _, err := svc.review.UpdateVolunteer(principal(alice), rec); !apperrors.IsKind(err, apperrors.KindValidation) {
		t.Errorf("student edit of rejected record = %v, want validation error", err)
	}

	rec, err = svc.review.ReviewVolunteer(principal(teacher), rec.ID, "reset", "please attach the scan")
	if err != nil {
		t.Fatalf("ReviewVolunteer(reset): %v", err)
	}
	if rec.Status != models.StatusPending || rec.ReviewStage != models.StageOne {
		t.Errorf("after reset = %s/%s, want stage1/pending", rec.ReviewStage, rec.Status)
	}
	if len(rec.ReviewTrail) != 1 {
		t.Errorf("trail after reset = %d entries, want 1", len(rec.ReviewTrail))
	}

	// Now pending again, the student may edit; the edit wipes the trail.
	rec.Proof = "scan.pdf"
	updated, err := svc.review.UpdateVolunteer(principal(alice), rec)
	if err != nil {
		t.Fatalf("UpdateVolunteer after reset: %v", err)
	}
	if len(updated.ReviewTrail) != 0 {
		t.Errorf("trail after student edit = %d entries, want 0", len(updated.ReviewTrail))
	}
}

func TestProjectSelectionConflicts(t *testing.T) {
	containers := testutil.SetupTestContainers(t)
	defer containers.Cleanup(t)

	svc := newTestServices(t, containers.DB)

	teacher := testutil.CreateStudent(t, containers.DB, "prof", "T-0001", models.RoleTeacher)
	alice := testutil.CreateStudent(t, containers.DB, "alice", "S-1001", models.RoleStudent)
	bob := testutil.CreateStudent(t, containers.DB, "bob", "S-1002", models.RoleStudent)

	project, err := svc.program.CreateProject(principal(teacher), &models.TeacherProject{
		Title: "Research assistant",
		Slots: 1,
	})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	if _, err := svc.program.SelectProject(principal(alice), project.ID, ""); err != nil {
		t.Fatalf("SelectProject(alice): %v", err)
	}

	// Second selection by the same student and any selection beyond capacity
	// both surface as conflicts.
	if _, err := svc.program.SelectProject(principal(alice), project.ID, ""); !apperrors.IsKind(err, apperrors.KindConflict) {
		t.Errorf("duplicate selection = %v, want conflict", err)
	}
	if _, err := svc.program.SelectProject(principal(bob), project.ID, ""); !apperrors.IsKind(err, apperrors.KindConflict) {
		t.Errorf("selection beyond capacity = %v, want conflict", err)
	}

	// Cancelling frees the slot for someone else.
	selections, err := svc.program.ListMySelections(principal(alice))
	if err != nil {
		t.Fatalf("ListMySelections: %v", err)
	}
	if len(selections) != 1 {
		t.Fatalf("got %d selections, want 1", len(selections))
	}
	if err := svc.program.CancelSelection(principal(alice), selections[0].ID, "changed plans"); err != nil {
		t.Fatalf("CancelSelection: %v", err)
	}
	if _, err := svc.program.SelectProject(principal(bob), project.ID, ""); err != nil {
		t.Errorf("SelectProject(bob) after cancel: %v", err)
	}
}

func TestProofRejectionClearsMaterial(t *testing.T) {
	containers := testutil.SetupTestContainers(t)
	defer containers.Cleanup(t)

	svc := newTestServices(t, containers.DB)

	alice := testutil.CreateStudent(t, containers.DB, "alice", "S-1001", models.RoleStudent)
	teacher := testutil.CreateStudent(t, containers.DB, "prof", "T-0001", models.RoleTeacher)

	material := "proofs/file-abc/certificate.pdf"
	_, err := svc.scoring.AddAcademicExpertise(principal(alice), &models.AcademicExpertise{
		StudentID: alice.ID,
		Name:      "provincial award",
		Score:     6,
		Material:  &material,
	})
	if err != nil {
		t.Fatalf("AddAcademicExpertise: %v", err)
	}

	reviews, _, err := svc.rules.ListProofReviews(repository.ProofReviewFilters{Status: models.ProofPending})
	if err != nil {
		t.Fatalf("ListProofReviews: %v", err)
	}
	if len(reviews) != 1 {
		t.Fatalf("got %d pending proof reviews, want 1", len(reviews))
	}

	// Rejection without a reason is not allowed.
	if _, err := svc.rules.DecideProof(teacher.ID, reviews[0].ID, false, ""); !apperrors.IsKind(err, apperrors.KindValidation) {
		t.Errorf("reject without reason = %v, want validation error", err)
	}

	decided, err := svc.rules.DecideProof(teacher.ID, reviews[0].ID, false, "illegible scan")
	if err != nil {
		t.Fatalf("DecideProof(reject): %v", err)
	}
	if decided.Status != models.ProofRejected {
		t.Errorf("proof status = %s, want rejected", decided.Status)
	}

	// The rejected material reference is gone even though the blob never
	// existed on disk.
	records, err := svc.scoring.ListAcademicExpertise(alice.ID)
	if err != nil {
		t.Fatalf("ListAcademicExpertise: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].Material != nil {
		t.Errorf("material = %q, want cleared", *records[0].Material)
	}

	// A second decision on the same proof is rejected.
	if _, err := svc.rules.DecideProof(teacher.ID, decided.ID, true, ""); !apperrors.IsKind(err, apperrors.KindValidation) {
		t.Errorf("double decision = %v, want validation error", err)
	}
}

func TestConcurrentSelectionOfLastSlot(t *testing.T) {
	containers := testutil.SetupTestContainers(t)
	defer containers.Cleanup(t)

	svc := newTestServices(t, containers.DB)

	teacher := testutil.CreateStudent(t, containers.DB, "prof", "T-0001", models.RoleTeacher)
	alice := testutil.CreateStudent(t, containers.DB, "alice", "S-1001", models.RoleStudent)
	bob := testutil.CreateStudent(t, containers.DB, "bob", "S-1002", models.RoleStudent)

	project, err := svc.program.CreateProject(principal(teacher), &models.TeacherProject{
		Title: "Research assistant",
		Slots: 1,
	})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	// Both students race for the single slot. The store serializes them on
	// the project row, so exactly one wins and the other gets a conflict.
	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for _, s := range []*models.Student{alice, bob} {
		wg.Add(1)
		go func(s *models.Student) {
			defer wg.Done()
			_, err := svc.program.SelectProject(principal(s), project.ID, "")
			errs <- err
		}(s)
	}
	wg.Wait()
	close(errs)

	var wins, conflicts int
	for err := range errs {
		switch {
		case err == nil:
			wins++
		case apperrors.IsKind(err, apperrors.KindConflict):
			conflicts++
		default:
			t.Errorf("unexpected selection error: %v", err)
		}
	}
	if wins != 1 || conflicts != 1 {
		t.Errorf("got %d winners and %d conflicts, want 1 and 1", wins, conflicts)
	}

	selections, err := svc.program.ListProjectSelections(project.ID)
	if err != nil {
		t.Fatalf("ListProjectSelections: %v", err)
	}
	var active int
	for _, sel := range selections {
		if sel.Status == models.SelectionActive {
			active++
		}
	}
	if active != 1 {
		t.Errorf("got %d active selections, want 1", active)
	}
}

func TestNegativeBonusScoreFloorsToZero(t *testing.T) {
	containers := testutil.SetupTestContainers(t)
	defer containers.Cleanup(t)

	svc := newTestServices(t, containers.DB)

	alice := testutil.CreateStudent(t, containers.DB, "alice", "S-1001", models.RoleStudent)

	rec, err := svc.scoring.AddAcademicExpertise(principal(alice), &models.AcademicExpertise{
		StudentID: alice.ID,
		Name:      "penalized entry",
		Score:     -5,
	})
	if err != nil {
		t.Fatalf("AddAcademicExpertise: %v", err)
	}
	if rec.Score != 0 {
		t.Errorf("stored score = %v, want 0", rec.Score)
	}

	records, err := svc.scoring.ListAcademicExpertise(alice.ID)
	if err != nil {
		t.Fatalf("ListAcademicExpertise: %v", err)
	}
	if len(records) != 1 || records[0].Score != 0 {
		t.Errorf("persisted score = %v, want 0", records[0].Score)
	}
}

func TestStaffEditOfDecidedVolunteerRecord(t *testing.T) {
	containers := testutil.SetupTestContainers(t)
	defer containers.Cleanup(t)

	svc := newTestServices(t, containers.DB)

	alice := testutil.CreateStudent(t, containers.DB, "alice", "S-1001", models.RoleStudent)
	teacher := testutil.CreateStudent(t, containers.DB, "prof", "T-0001", models.RoleTeacher)

	rec, err := svc.review.SubmitVolunteer(principal(alice), &models.VolunteerRecord{
		StudentName: "Alice",
		StudentID:   alice.StudentID,
		Activity:    "tutoring",
		Hours:       4,
	})
	if err != nil {
		t.Fatalf("SubmitVolunteer: %v", err)
	}

	rec, err = svc.review.ReviewVolunteer(principal(teacher), rec.ID, "reject", "missing proof")
	if err != nil {
		t.Fatalf("ReviewVolunteer(reject): %v", err)
	}

	// Decided records are frozen for staff too; a reviewer must reset first.
	rec.Hours = 8
	if _, err := svc.review.UpdateVolunteer(principal(teacher), rec); !apperrors.IsKind(err, apperrors.KindValidation) {
		t.Errorf("staff edit of rejected record = %v, want validation error", err)
	}

	rec, err = svc.review.ReviewVolunteer(principal(teacher), rec.ID, "reset", "redoing intake")
	if err != nil {
		t.Fatalf("ReviewVolunteer(reset): %v", err)
	}
	rec.Hours = 8
	if _, err := svc.review.UpdateVolunteer(principal(teacher), rec); err != nil {
		t.Errorf("staff edit after reset: %v", err)
	}
}

func TestDecideProofByEntity(t *testing.T) {
	containers := testutil.SetupTestContainers(t)
	defer containers.Cleanup(t)

	svc := newTestServices(t, containers.DB)

	alice := testutil.CreateStudent(t, containers.DB, "alice", "S-1001", models.RoleStudent)
	teacher := testutil.CreateStudent(t, containers.DB, "prof", "T-0001", models.RoleTeacher)

	material := "proofs/file-abc/certificate.pdf"
	rec, err := svc.scoring.AddAcademicExpertise(principal(alice), &models.AcademicExpertise{
		StudentID: alice.ID,
		Name:      "provincial award",
		Score:     6,
		Material:  &material,
	})
	if err != nil {
		t.Fatalf("AddAcademicExpertise: %v", err)
	}

	if _, err := svc.rules.DecideProofForEntity(teacher.ID, "volunteer", rec.ID, true, ""); !apperrors.IsKind(err, apperrors.KindValidation) {
		t.Errorf("unknown entity kind = %v, want validation error", err)
	}

	// A namespaced label resolves to the pending review opened at submission.
	decided, err := svc.rules.DecideProofForEntity(teacher.ID, "scoring.AcademicExpertise", rec.ID, true, "")
	if err != nil {
		t.Fatalf("DecideProofForEntity(approve): %v", err)
	}
	if decided.Status != models.ProofApproved || decided.EntityID != rec.ID {
		t.Errorf("decided = %s on entity %d, want approved on %d", decided.Status, decided.EntityID, rec.ID)
	}

	// With no pending review left, deciding by entity opens one on the spot.
	// This is the recovery path for records whose queued review never opened.
	if _, err := containers.DB.Exec("DELETE FROM proof_reviews WHERE entity_id = $1", rec.ID); err != nil {
		t.Fatalf("failed to drop proof reviews: %v", err)
	}
	decided, err = svc.rules.DecideProofForEntity(teacher.ID, "academicexpertise", rec.ID, false, "wrong document")
	if err != nil {
		t.Fatalf("DecideProofForEntity(reject): %v", err)
	}
	if decided.Status != models.ProofRejected {
		t.Errorf("decided = %s, want rejected", decided.Status)
	}

	records, err := svc.scoring.ListAcademicExpertise(alice.ID)
	if err != nil {
		t.Fatalf("ListAcademicExpertise: %v", err)
	}
	if len(records) != 1 || records[0].Material != nil {
		t.Errorf("material not cleared after on-demand rejection")
	}
}

func reloadStudent(t *testing.T, repo *repository.StudentRepository, id uint) *models.Student {
	t.Helper()
	student, err := repo.GetByID(id)
	if err != nil {
		t.Fatalf("GetByID(%d): %v", id, err)
	}
	return student
}
