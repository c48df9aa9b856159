package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/classhub/backend/internal/exam"
	"github.com/classhub/backend/internal/extract"
	"github.com/classhub/backend/internal/model"
	"github.com/classhub/backend/internal/notify"
	"github.com/classhub/backend/internal/store"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store     *store.Store
	extractor *extract.Client
	notifier  *notify.Queue
	validate  *validator.Validate
	config    model.ServerConfig
}

// New creates a new Handler.
func New(s *store.Store, x *extract.Client, n *notify.Queue, cfg model.ServerConfig) *Handler {
	return &Handler{
		store:     s,
		extractor: x,
		notifier:  n,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		config:    cfg,
	}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/auth/login", h.handleLogin)
	r.Post("/auth/logout", h.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)

		r.Get("/grade-levels", h.handleGradeLevels)

		r.With(requireRole(model.UserRoleAdmin)).Route("/users", func(r chi.Router) {
			r.Get("/", h.handleListUsers)
			r.Post("/", h.handleCreateUser)
			r.Post("/{userID}/toggle", h.handleToggleUser)
		})

		r.Route("/classes", func(r chi.Router) {
			r.Get("/", h.handleListClasses)
			r.With(requireRole(model.UserRoleTeacher, model.UserRoleAdmin)).Post("/", h.handleCreateClass)
			r.With(requireRole(model.UserRoleTeacher, model.UserRoleAdmin)).Post("/{classID}/members", h.handleEnroll)
			r.With(requireRole(model.UserRoleTeacher, model.UserRoleAdmin)).Get("/{classID}/members", h.handleListMembers)
			r.Get("/{classID}/exams", h.handleListClassExams)
		})

		r.Route("/exams", func(r chi.Router) {
			r.With(requireRole(model.UserRoleTeacher, model.UserRoleAdmin)).Post("/", h.handleCreateExam)
			r.Get("/{examID}", h.handleGetExam)
			r.With(requireRole(model.UserRoleTeacher, model.UserRoleAdmin)).Put("/{examID}", h.handleUpdateExam)
			r.With(requireRole(model.UserRoleTeacher, model.UserRoleAdmin)).Post("/{examID}/activate", h.handleActivateExam)
			r.With(requireRole(model.UserRoleTeacher, model.UserRoleAdmin)).Post("/{examID}/deactivate", h.handleDeactivateExam)
			r.With(requireRole(model.UserRoleTeacher, model.UserRoleAdmin)).Put("/{examID}/questions/{questionID}", h.handleUpdateQuestion)
			r.With(requireRole(model.UserRoleStudent)).Post("/{examID}/submissions", h.handleSubmit)
			r.With(requireRole(model.UserRoleTeacher, model.UserRoleAdmin)).Get("/{examID}/submissions", h.handleListSubmissions)
			r.With(requireRole(model.UserRoleTeacher, model.UserRoleAdmin)).Get("/{examID}/stats", h.handleExamStats)
		})

		r.Route("/submissions", func(r chi.Router) {
			r.Get("/{submissionID}", h.handleGetSubmission)
			r.With(requireRole(model.UserRoleTeacher, model.UserRoleAdmin)).Post("/{submissionID}/grade", h.handleGrade)
			r.With(requireRole(model.UserRoleTeacher, model.UserRoleAdmin)).Post("/{submissionID}/answers/{questionID}/clear", h.handleClearGrade)
		})

		r.With(requireRole(model.UserRoleTeacher, model.UserRoleAdmin)).Post("/questions/extract", h.handleExtract)
	})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

func (h *Handler) decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if err := h.validate.Struct(v); err != nil {
		return err
	}
	return nil
}

func urlID(r *http.Request, key string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, key), 10, 64)
}

type questionPayload struct {
	Text          string             `json:"text" validate:"required"`
	Type          model.QuestionType `json:"type" validate:"required,oneof=multiple_choice free_text"`
	Options       []string           `json:"options"`
	CorrectAnswer string             `json:"correct_answer"`
	Points        int                `json:"points" validate:"required,gt=0"`
	Explanation   string             `json:"explanation"`
}

func (p questionPayload) toModel() model.Question {
	return model.Question{
		Text:          p.Text,
		Type:          p.Type,
		Options:       p.Options,
		CorrectAnswer: p.CorrectAnswer,
		Points:        p.Points,
		Explanation:   p.Explanation,
	}
}

// validateQuestion enforces the multiple-choice shape: non-empty options with
// the correct answer among them.
func validateQuestion(p questionPayload) error {
	if p.Type != model.QuestionMultipleChoice {
		return nil
	}
	if len(p.Options) == 0 {
		return errors.New("multiple-choice question needs options")
	}
	if !slices.Contains(p.Options, p.CorrectAnswer) {
		return errors.New("correct_answer must equal one of the options")
	}
	return nil
}

type createExamRequest struct {
	Title         string             `json:"title" validate:"required"`
	Subject       string             `json:"subject"`
	ClassID       int64              `json:"class_id" validate:"required"`
	AvailableFrom *time.Time         `json:"available_from"`
	DueDate       *time.Time         `json:"due_date"`
	Settings      model.ExamSettings `json:"settings"`
	Questions     []questionPayload  `json:"questions" validate:"dive"`
}

func (h *Handler) handleCreateExam(w http.ResponseWriter, r *http.Request) {
	var req createExamRequest
	if err := h.decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	// Window invariant: rejected here so the status resolver never sees it.
	if req.AvailableFrom != nil && req.DueDate != nil && !req.AvailableFrom.Before(*req.DueDate) {
		respondError(w, http.StatusBadRequest, "available_from must precede due_date")
		return
	}
	for i, q := range req.Questions {
		if err := validateQuestion(q); err != nil {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("question %d: %v", i+1, err))
			return
		}
	}

	user := model.UserFromContext(r.Context())
	e := model.Exam{
		Title:         req.Title,
		Subject:       req.Subject,
		ClassID:       req.ClassID,
		TeacherID:     user.ID,
		AvailableFrom: req.AvailableFrom,
		DueDate:       req.DueDate,
		Settings:      req.Settings,
		IsActive:      true,
	}
	for _, q := range req.Questions {
		e.Questions = append(e.Questions, q.toModel())
	}

	id, err := h.store.CreateExam(e)
	if err != nil {
		slog.Error("create exam", "error", err)
		respondError(w, http.StatusInternalServerError, "create exam failed")
		return
	}

	created, err := h.store.GetExam(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "create exam failed")
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleGetExam(w http.ResponseWriter, r *http.Request) {
	examID, err := urlID(r, "examID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid exam ID")
		return
	}
	e, err := h.store.GetExam(examID)
	if err == sql.ErrNoRows {
		respondError(w, http.StatusNotFound, "exam not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	user := model.UserFromContext(r.Context())
	if user.Role == model.UserRoleStudent {
		// Students never see answer keys or explanations before grading.
		for i := range e.Questions {
			e.Questions[i].CorrectAnswer = ""
			e.Questions[i].Explanation = ""
		}
	}
	respondJSON(w, http.StatusOK, e)
}

type updateExamRequest struct {
	Title         string             `json:"title" validate:"required"`
	Subject       string             `json:"subject"`
	AvailableFrom *time.Time         `json:"available_from"`
	DueDate       *time.Time         `json:"due_date"`
	Settings      model.ExamSettings `json:"settings"`
}

func (h *Handler) handleUpdateExam(w http.ResponseWriter, r *http.Request) {
	examID, err := urlID(r, "examID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid exam ID")
		return
	}
	var req updateExamRequest
	if err := h.decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.AvailableFrom != nil && req.DueDate != nil && !req.AvailableFrom.Before(*req.DueDate) {
		respondError(w, http.StatusBadRequest, "available_from must precede due_date")
		return
	}

	e, err := h.store.GetExam(examID)
	if err == sql.ErrNoRows {
		respondError(w, http.StatusNotFound, "exam not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	e.Title = req.Title
	e.Subject = req.Subject
	e.AvailableFrom = req.AvailableFrom
	e.DueDate = req.DueDate
	e.Settings = req.Settings
	if err := h.store.UpdateExam(e); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	updated, err := h.store.GetExam(examID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleActivateExam(w http.ResponseWriter, r *http.Request) {
	h.setExamActive(w, r, true)
}

func (h *Handler) handleDeactivateExam(w http.ResponseWriter, r *http.Request) {
	h.setExamActive(w, r, false)
}

func (h *Handler) setExamActive(w http.ResponseWriter, r *http.Request, active bool) {
	examID, err := urlID(r, "examID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid exam ID")
		return
	}
	if err := h.store.SetExamActive(examID, active); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"is_active": active})
}

func (h *Handler) handleUpdateQuestion(w http.ResponseWriter, r *http.Request) {
	examID, err := urlID(r, "examID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid exam ID")
		return
	}
	questionID, err := urlID(r, "questionID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid question ID")
		return
	}

	var req questionPayload
	if err := h.decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateQuestion(req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	q, err := h.store.GetQuestion(questionID)
	if err == sql.ErrNoRows || (err == nil && q.ExamID != examID) {
		respondError(w, http.StatusNotFound, "question not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	updated := req.toModel()
	updated.ID = q.ID
	updated.ExamID = q.ExamID
	updated.Position = q.Position
	if err := h.store.UpdateQuestion(updated); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// submissionResponse adds the display percentage to a submission payload.
type submissionResponse struct {
	model.Submission
	Percent int `json:"percent"`
}

func newSubmissionResponse(sub model.Submission) submissionResponse {
	return submissionResponse{Submission: sub, Percent: exam.Percent(sub.Score, sub.TotalPoints)}
}

type submitRequest struct {
	Answers []struct {
		QuestionID int64  `json:"question_id" validate:"required"`
		Answer     string `json:"answer"`
	} `json:"answers" validate:"dive"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	examID, err := urlID(r, "examID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid exam ID")
		return
	}
	var req submitRequest
	if err := h.decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	e, err := h.store.GetExam(examID)
	if err == sql.ErrNoRows {
		respondError(w, http.StatusNotFound, "exam not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !e.IsActive {
		respondError(w, http.StatusForbidden, "exam is not active")
		return
	}

	user := model.UserFromContext(r.Context())
	enrolled, err := h.store.IsClassMember(e.ClassID, user.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !enrolled {
		respondError(w, http.StatusForbidden, "not enrolled in this class")
		return
	}
	if !e.Settings.AllowRetake {
		count, err := h.store.CountSubmissions(examID, user.ID)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if count > 0 {
			respondError(w, http.StatusConflict, "exam already taken and retakes are not allowed")
			return
		}
	}

	raw := make([]model.Answer, 0, len(req.Answers))
	for _, a := range req.Answers {
		raw = append(raw, model.Answer{QuestionID: a.QuestionID, Answer: a.Answer})
	}

	result := exam.Score(e.Questions, raw)
	sub := model.Submission{
		ExamID:             examID,
		StudentID:          user.ID,
		SubmittedAt:        time.Now(),
		Answers:            result.PerQuestion,
		Score:              result.Total,
		TotalPoints:        result.TotalPoints,
		NeedsManualGrading: result.NeedsManualGrading,
	}

	id, err := h.store.CreateSubmission(sub)
	if err != nil {
		slog.Error("create submission", "exam_id", examID, "student_id", user.ID, "error", err)
		respondError(w, http.StatusInternalServerError, "submit failed")
		return
	}
	created, err := h.store.GetSubmission(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "submit failed")
		return
	}
	respondJSON(w, http.StatusCreated, newSubmissionResponse(created))
}

func (h *Handler) handleGetSubmission(w http.ResponseWriter, r *http.Request) {
	subID, err := urlID(r, "submissionID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid submission ID")
		return
	}
	sub, err := h.store.GetSubmission(subID)
	if err == sql.ErrNoRows {
		respondError(w, http.StatusNotFound, "submission not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	user := model.UserFromContext(r.Context())
	if user.Role == model.UserRoleStudent && sub.StudentID != user.ID {
		respondError(w, http.StatusForbidden, "forbidden")
		return
	}
	respondJSON(w, http.StatusOK, newSubmissionResponse(sub))
}

func (h *Handler) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	examID, err := urlID(r, "examID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid exam ID")
		return
	}
	subs, err := h.store.ListSubmissionsForExam(examID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"submissions": subs, "count": len(subs)})
}

type gradeRequest struct {
	Feedback       string `json:"feedback"`
	UpdatedAnswers []struct {
		QuestionID int64 `json:"question_id" validate:"required"`
		Points     int   `json:"points"`
	} `json:"updated_answers" validate:"dive"`
	UpdatedQuestions []struct {
		ID            int64  `json:"id" validate:"required"`
		CorrectAnswer string `json:"correct_answer"`
		Explanation   string `json:"explanation"`
	} `json:"updated_questions" validate:"dive"`
}

func (h *Handler) handleGrade(w http.ResponseWriter, r *http.Request) {
	subID, err := urlID(r, "submissionID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid submission ID")
		return
	}
	var req gradeRequest
	if err := h.decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	sub, err := h.store.GetSubmission(subID)
	if err == sql.ErrNoRows {
		respondError(w, http.StatusNotFound, "submission not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	e, err := h.store.GetExam(sub.ExamID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Revised answer keys and explanations apply to future scoring runs
	// only; the current submission changes through updated_answers alone.
	for _, uq := range req.UpdatedQuestions {
		for _, q := range e.Questions {
			if q.ID != uq.ID {
				continue
			}
			if uq.CorrectAnswer != "" {
				q.CorrectAnswer = uq.CorrectAnswer
			}
			if uq.Explanation != "" {
				q.Explanation = uq.Explanation
			}
			if err := h.store.UpdateQuestion(q); err != nil {
				respondError(w, http.StatusInternalServerError, err.Error())
				return
			}
			break
		}
	}

	overrides := make(map[int64]int, len(req.UpdatedAnswers))
	for _, ua := range req.UpdatedAnswers {
		overrides[ua.QuestionID] = ua.Points
	}

	reconciled := exam.Reconcile(sub, overrides, e.Questions)
	reconciled.Feedback = req.Feedback
	if err := h.store.SaveReconciled(reconciled); err != nil {
		slog.Error("save reconciled submission", "submission_id", subID, "error", err)
		respondError(w, http.StatusInternalServerError, "grading failed")
		return
	}

	if reconciled.IsManuallyGraded {
		h.notifyGraded(e, reconciled)
	}
	respondJSON(w, http.StatusOK, newSubmissionResponse(reconciled))
}

// notifyGraded tells the student grading is complete. Best effort: any
// failure is the queue's problem, never the grading request's.
func (h *Handler) notifyGraded(e model.Exam, sub model.Submission) {
	lang := h.config.DefaultLang
	if student, err := h.store.GetUserByID(sub.StudentID); err == nil && student != nil && student.Language != "" {
		lang = student.Language
	}
	h.notifier.Enqueue(notify.Notification{
		RecipientID: sub.StudentID,
		Lang:        lang,
		TemplateKey: "GradingComplete",
		Params: map[string]any{
			"ExamTitle": e.Title,
			"Score":     sub.Score,
			"Total":     sub.TotalPoints,
		},
		DeepLink: fmt.Sprintf("classhub://submissions/%d", sub.ID),
	})
}

func (h *Handler) handleClearGrade(w http.ResponseWriter, r *http.Request) {
	subID, err := urlID(r, "submissionID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid submission ID")
		return
	}
	questionID, err := urlID(r, "questionID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid question ID")
		return
	}

	sub, err := h.store.GetSubmission(subID)
	if err == sql.ErrNoRows {
		respondError(w, http.StatusNotFound, "submission not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	cleared := exam.ClearOverride(sub, questionID)
	if err := h.store.SaveReconciled(cleared); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, newSubmissionResponse(cleared))
}

type statsResponse struct {
	Count     int                        `json:"count"`
	Average   int                        `json:"average"`
	Highest   int                        `json:"highest"`
	Lowest    int                        `json:"lowest"`
	StdDev    float64                    `json:"std_dev"`
	Histogram [exam.HistogramBuckets]int `json:"histogram"`
	Top       []exam.Performer           `json:"top"`
	Bottom    []exam.Performer           `json:"bottom"`
}

func (h *Handler) handleExamStats(w http.ResponseWriter, r *http.Request) {
	examID, err := urlID(r, "examID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid exam ID")
		return
	}

	subs, err := h.store.ListSubmissionsForExam(examID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// With retakes allowed only the most recent attempt per student counts.
	// The list arrives newest first, so the first attempt seen wins.
	seen := make(map[int64]bool, len(subs))
	authoritative := subs[:0]
	for _, sub := range subs {
		if seen[sub.StudentID] {
			continue
		}
		seen[sub.StudentID] = true
		authoritative = append(authoritative, sub)
	}

	rankSize := 3
	if v := r.URL.Query().Get("rank"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			rankSize = n
		}
	}

	s := exam.Aggregate(authoritative, rankSize)
	respondJSON(w, http.StatusOK, statsResponse{
		Count:     s.Count,
		Average:   s.DisplayAverage(),
		Highest:   s.DisplayHighest(),
		Lowest:    s.DisplayLowest(),
		StdDev:    s.StdDev,
		Histogram: s.Histogram,
		Top:       s.Top,
		Bottom:    s.Bottom,
	})
}

// examWithStatus annotates an exam with its resolved status for one student.
type examWithStatus struct {
	model.Exam
	Status exam.Status `json:"status"`
}

func (h *Handler) handleListClassExams(w http.ResponseWriter, r *http.Request) {
	classID, err := urlID(r, "classID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid class ID")
		return
	}
	exams, err := h.store.ListExamsForClass(classID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	user := model.UserFromContext(r.Context())
	if user.Role != model.UserRoleStudent {
		respondJSON(w, http.StatusOK, map[string]any{"exams": exams})
		return
	}

	now := time.Now()
	annotated := make([]examWithStatus, 0, len(exams))
	for _, e := range exams {
		if !e.IsActive {
			continue
		}
		latest, err := h.store.LatestSubmission(e.ID, user.ID)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		annotated = append(annotated, examWithStatus{
			Exam:   e,
			Status: exam.ResolveStatus(e, now, latest != nil),
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"exams": annotated})
}
