package handler

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/classhub/backend/internal/model"
)

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"users": users})
}

type createUserRequest struct {
	Username    string         `json:"username" validate:"required,min=3"`
	DisplayName string         `json:"display_name" validate:"required"`
	Password    string         `json:"password" validate:"required,min=8"`
	Role        model.UserRole `json:"role" validate:"required,oneof=student teacher admin"`
	GradeCode   string         `json:"grade_code"`
	Language    string         `json:"language"`
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := h.decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Role == model.UserRoleStudent && !model.ValidGradeCode(req.GradeCode) {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("unknown grade code %q", req.GradeCode))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("hash password", "error", err)
		respondError(w, http.StatusInternalServerError, "create user failed")
		return
	}

	u := model.User{
		Username:     req.Username,
		DisplayName:  req.DisplayName,
		PasswordHash: string(hash),
		Role:         req.Role,
		GradeCode:    req.GradeCode,
		Language:     req.Language,
		Active:       true,
	}
	id, err := h.store.CreateUser(u)
	if err != nil {
		respondError(w, http.StatusConflict, "username already taken")
		return
	}
	created, err := h.store.GetUserByID(id)
	if err != nil || created == nil {
		respondError(w, http.StatusInternalServerError, "create user failed")
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleToggleUser(w http.ResponseWriter, r *http.Request) {
	userID, err := urlID(r, "userID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user ID")
		return
	}
	// Admins cannot lock themselves out.
	if self := model.UserFromContext(r.Context()); self.ID == userID {
		respondError(w, http.StatusBadRequest, "cannot deactivate yourself")
		return
	}
	if err := h.store.ToggleUserActive(userID); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	user, err := h.store.GetUserByID(userID)
	if err != nil || user == nil {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

type createClassRequest struct {
	Name      string `json:"name" validate:"required"`
	GradeCode string `json:"grade_code" validate:"required"`
}

func (h *Handler) handleCreateClass(w http.ResponseWriter, r *http.Request) {
	var req createClassRequest
	if err := h.decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !model.ValidGradeCode(req.GradeCode) {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("unknown grade code %q", req.GradeCode))
		return
	}

	user := model.UserFromContext(r.Context())
	id, err := h.store.CreateClass(model.Class{
		Name:      req.Name,
		GradeCode: req.GradeCode,
		TeacherID: user.ID,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	c, err := h.store.GetClass(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, c)
}

func (h *Handler) handleListClasses(w http.ResponseWriter, r *http.Request) {
	classes, err := h.store.ListClasses()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"classes": classes})
}

type enrollRequest struct {
	StudentID int64 `json:"student_id" validate:"required"`
}

func (h *Handler) handleEnroll(w http.ResponseWriter, r *http.Request) {
	classID, err := urlID(r, "classID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid class ID")
		return
	}
	var req enrollRequest
	if err := h.decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.store.GetClass(classID); err == sql.ErrNoRows {
		respondError(w, http.StatusNotFound, "class not found")
		return
	} else if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	student, err := h.store.GetUserByID(req.StudentID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if student == nil || student.Role != model.UserRoleStudent {
		respondError(w, http.StatusBadRequest, "student not found")
		return
	}

	if err := h.store.AddClassMember(classID, req.StudentID); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "enrolled"})
}

func (h *Handler) handleListMembers(w http.ResponseWriter, r *http.Request) {
	classID, err := urlID(r, "classID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid class ID")
		return
	}
	members, err := h.store.ListClassMembers(classID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"members": members})
}

func (h *Handler) handleGradeLevels(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"grade_levels": model.GradeLevels()})
}

type extractRequest struct {
	Document string `json:"document" validate:"required"`
}

func (h *Handler) handleExtract(w http.ResponseWriter, r *http.Request) {
	if h.extractor == nil {
		respondError(w, http.StatusServiceUnavailable, "question extraction is not configured")
		return
	}
	var req extractRequest
	if err := h.decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	drafts, err := h.extractor.Extract(r.Context(), req.Document)
	if err != nil {
		slog.Error("extract questions", "error", err)
		respondError(w, http.StatusBadGateway, "extraction failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"questions": drafts})
}
