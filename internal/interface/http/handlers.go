package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Nooor786/SJCET-Smart-Attendance-System/internal/application/command"
	"github.com/Nooor786/SJCET-Smart-Attendance-System/internal/application/report"
	"github.com/Nooor786/SJCET-Smart-Attendance-System/internal/domain/attendance"
	"github.com/Nooor786/SJCET-Smart-Attendance-System/internal/domain/roster"
	"github.com/Nooor786/SJCET-Smart-Attendance-System/internal/domain/section"
	"github.com/Nooor786/SJCET-Smart-Attendance-System/internal/domain/user"
	"github.com/Nooor786/SJCET-Smart-Attendance-System/internal/export"
	"github.com/Nooor786/SJCET-Smart-Attendance-System/pkg/logger"
	"github.com/Nooor786/SJCET-Smart-Attendance-System/pkg/timeutil"
)

var validate = validator.New()

// maxUploadBytes caps roster uploads and attendance payloads.
const maxUploadBytes = 4 << 20

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{"status": "ok"}
	code := http.StatusOK

	if s.deps.Database != nil {
		if err := s.deps.Database.Ping(r.Context()); err != nil {
			status["status"] = "degraded"
			status["database"] = err.Error()
			code = http.StatusServiceUnavailable
		} else {
			status["database"] = "ok"
		}
	}

	writeJSON(w, code, status)
}

// ══════════════════════════════════════════════════════════════════════════════
// AUTHENTICATION
// ══════════════════════════════════════════════════════════════════════════════

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	u, err := user.Authenticate(r.Context(), s.deps.Users, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			writeJSONError(w, http.StatusUnauthorized, "invalid_credentials", "Wrong username or password")
			return
		}
		s.serverError(w, r, err)
		return
	}

	token, err := s.tokens.Issue(u)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token:    token,
		Username: u.Username,
		Role:     string(u.Role),
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// USER ADMINISTRATION
// ══════════════════════════════════════════════════════════════════════════════

type userDTO struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	all, err := s.deps.Users.List(r.Context())
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	// Password hashes never leave the repository layer.
	out := make([]userDTO, 0, len(all))
	for _, u := range all {
		out = append(out, userDTO{Username: u.Username, Role: string(u.Role)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": out})
}

type upsertUserRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required"`
}

func (s *Server) handleUpsertUser(w http.ResponseWriter, r *http.Request) {
	var req upsertUserRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	role := user.Role(req.Role)
	if !role.IsValid() {
		writeJSONError(w, http.StatusUnprocessableEntity, "invalid_role",
			fmt.Sprintf("Unknown role %q", req.Role))
		return
	}

	hash, err := user.HashPassword(req.Password)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	if err := s.deps.Users.Upsert(r.Context(), user.User{
		Username:     req.Username,
		PasswordHash: hash,
		Role:         role,
	}); err != nil {
		s.serverError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, userDTO{Username: req.Username, Role: string(role)})
}

// ══════════════════════════════════════════════════════════════════════════════
// SECTIONS & ROSTERS
// ══════════════════════════════════════════════════════════════════════════════

// handleListSections lists the section catalog. ?having=data narrows it to
// sections with at least one recorded session, matching the aggregate
// dashboards' section pickers.
func (s *Server) handleListSections(w http.ResponseWriter, r *http.Request) {
	var ids []section.ID
	if r.URL.Query().Get("having") == "data" {
		var err error
		ids, err = s.deps.Engine.Sections(r.Context())
		if err != nil {
			s.reportError(w, r, err)
			return
		}
	} else {
		ids = s.deps.Catalog.IDs()
	}

	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	writeJSON(w, http.StatusOK, map[string]any{"sections": out})
}

type rosterEntryDTO struct {
	RegdNo        string `json:"regd_no"`
	Name          string `json:"name"`
	GuardianName  string `json:"guardian_name,omitempty"`
	GuardianPhone string `json:"guardian_phone,omitempty"`
}

// handleGetRoster returns a section's roster. ?q= narrows it to students
// whose name or registration number matches, for quick lookups.
func (s *Server) handleGetRoster(w http.ResponseWriter, r *http.Request) {
	sec := s.deps.Catalog.Resolve(r.PathValue("section"))

	ros, err := s.deps.Rosters.Load(r.Context(), sec)
	if err != nil {
		if errors.Is(err, roster.ErrUnavailable) {
			writeJSONError(w, http.StatusNotFound, "roster_not_found",
				fmt.Sprintf("No roster available for %s", sec))
			return
		}
		if errors.Is(err, roster.ErrMalformed) {
			writeJSONError(w, http.StatusUnprocessableEntity, "roster_malformed", err.Error())
			return
		}
		s.serverError(w, r, err)
		return
	}

	students := ros.Entries
	if q := r.URL.Query().Get("q"); q != "" {
		students = ros.Search(q)
	}

	entries := make([]rosterEntryDTO, 0, len(students))
	for _, e := range students {
		entries = append(entries, rosterEntryDTO{
			RegdNo:        e.RegdNo,
			Name:          e.Name,
			GuardianName:  e.GuardianName,
			GuardianPhone: e.GuardianPhone,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"section":  string(sec),
		"students": entries,
	})
}

func (s *Server) handleUploadRoster(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	data, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "bad_request", "Failed to read upload")
		return
	}

	res, err := s.deps.UploadRoster.Handle(r.Context(), command.UploadRosterCommand{
		SectionLabel: r.PathValue("section"),
		CSVData:      data,
		UploadedBy:   claims.Subject,
	})
	if err != nil {
		if errors.Is(err, roster.ErrMalformed) {
			writeJSONError(w, http.StatusUnprocessableEntity, "roster_malformed", err.Error())
			return
		}
		writeJSONError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"section":  string(res.Section),
		"filename": res.Filename,
		"students": res.Students,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// ATTENDANCE
// ══════════════════════════════════════════════════════════════════════════════

type attendanceMarkDTO struct {
	RegdNo  string `json:"regd_no" validate:"required"`
	Present bool   `json:"present"`
}

type submitAttendanceRequest struct {
	Section  string              `json:"section" validate:"required"`
	Date     string              `json:"date" validate:"required"`
	Period   string              `json:"period" validate:"required"`
	Students []attendanceMarkDTO `json:"students" validate:"required,min=1,dive"`
}

func (s *Server) handleSubmitAttendance(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	var req submitAttendanceRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	cmd := command.SubmitAttendanceCommand{
		SectionLabel: req.Section,
		Date:         req.Date,
		Period:       req.Period,
		SubmittedBy:  claims.Subject,
		Students:     make([]command.MarkedStudent, 0, len(req.Students)),
	}
	for _, m := range req.Students {
		cmd.Students = append(cmd.Students, command.MarkedStudent{RegdNo: m.RegdNo, Present: m.Present})
	}

	res, err := s.deps.SubmitAttendance.Handle(r.Context(), cmd)
	if err != nil {
		switch {
		case errors.Is(err, attendance.ErrInvalidSubmission):
			writeJSONError(w, http.StatusUnprocessableEntity, "invalid_submission", err.Error())
		case errors.Is(err, roster.ErrUnavailable):
			writeJSONError(w, http.StatusNotFound, "roster_not_found", err.Error())
		case errors.Is(err, attendance.ErrStorageUnavailable):
			writeJSONError(w, http.StatusServiceUnavailable, "storage_unavailable", "Attendance store is unavailable")
		default:
			s.serverError(w, r, err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"session_id":    res.SessionID,
		"receipt":       res.Receipt,
		"section":       string(res.Section),
		"date":          timeutil.FormatDate(res.Date),
		"period":        string(res.Period),
		"present_count": res.PresentCount,
		"absent_count":  res.AbsentCount,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// REPORTS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleSessionReport(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "bad_request", "Session id must be an integer")
		return
	}

	rep, err := s.deps.Engine.SessionAbsentees(r.Context(), id)
	if err != nil {
		s.reportError(w, r, err)
		return
	}
	s.renderReport(w, r, rep.Table(), fmt.Sprintf("session_%d", id))
}

// handleRollupReport serves the multi-session roll-up. Window selection:
// date= for one date, daily= for the daily report, week= and month= for
// anchored windows, from=&to= for an explicit range.
func (s *Server) handleRollupReport(w http.ResponseWriter, r *http.Request) {
	sec := s.deps.Catalog.Resolve(r.PathValue("section"))
	q := r.URL.Query()

	var (
		rep *report.RollupReport
		err error
	)
	switch {
	case q.Get("date") != "":
		var day time.Time
		if day, err = timeutil.ParseDate(q.Get("date")); err == nil {
			rep, err = s.deps.Engine.DateRollup(r.Context(), sec, day)
		}
	case q.Has("daily"):
		// A bare ?daily means today, as on the daily report screen.
		day := timeutil.Today()
		if v := q.Get("daily"); v != "" {
			day, err = timeutil.ParseDate(v)
		}
		if err == nil {
			rep, err = s.deps.Engine.DailyRollup(r.Context(), sec, day)
		}
	case q.Get("week") != "":
		var anchor time.Time
		if anchor, err = timeutil.ParseDate(q.Get("week")); err == nil {
			rep, err = s.deps.Engine.WeeklyRollup(r.Context(), sec, anchor)
		}
	case q.Get("month") != "":
		var anchor time.Time
		if anchor, err = timeutil.ParseDate(q.Get("month")); err == nil {
			rep, err = s.deps.Engine.MonthlyRollup(r.Context(), sec, anchor)
		}
	default:
		var window attendance.DateWindow
		if window, err = windowFromQuery(r); err == nil {
			rep, err = s.deps.Engine.Rollup(r.Context(), sec, window, report.LabelPeriodWithDate)
		}
	}
	if err != nil {
		s.reportError(w, r, err)
		return
	}
	s.renderReport(w, r, rep.Table(), fmt.Sprintf("rollup_%s", sec))
}

func (s *Server) handlePivotReport(w http.ResponseWriter, r *http.Request) {
	sec := s.deps.Catalog.Resolve(r.PathValue("section"))

	window, err := windowFromQuery(r)
	if err != nil {
		s.reportError(w, r, err)
		return
	}

	rep, err := s.deps.Engine.PeriodPivot(r.Context(), sec, window)
	if err != nil {
		s.reportError(w, r, err)
		return
	}
	s.renderReport(w, r, rep.Table(), fmt.Sprintf("pivot_%s", sec))
}

func (s *Server) handlePercentageReport(w http.ResponseWriter, r *http.Request) {
	sec := s.deps.Catalog.Resolve(r.PathValue("section"))

	window, err := windowFromQuery(r)
	if err != nil {
		s.reportError(w, r, err)
		return
	}

	ros, err := s.deps.Rosters.Load(r.Context(), sec)
	if err != nil {
		s.reportError(w, r, err)
		return
	}

	rep, err := s.deps.Engine.Percentages(r.Context(), sec, window, ros)
	if err != nil {
		s.reportError(w, r, err)
		return
	}
	s.renderReport(w, r, rep.Table(), fmt.Sprintf("percentage_%s", sec))
}

func (s *Server) handleStudentReport(w http.ResponseWriter, r *http.Request) {
	sec := s.deps.Catalog.Resolve(r.PathValue("section"))
	regd := r.PathValue("regd")

	window, err := windowFromQuery(r)
	if err != nil {
		s.reportError(w, r, err)
		return
	}

	// Roster is optional here; it only fills in identity when the student
	// has no recorded rows.
	ros, err := s.deps.Rosters.Load(r.Context(), sec)
	if err != nil {
		ros = nil
	}

	rep, err := s.deps.Engine.StudentDetail(r.Context(), sec, regd, window, ros)
	if err != nil {
		s.reportError(w, r, err)
		return
	}
	s.renderReport(w, r, rep.Table(), fmt.Sprintf("student_%s", regd))
}

// ══════════════════════════════════════════════════════════════════════════════
// SHARED HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// windowFromQuery parses from= and to= into an inclusive window.
func windowFromQuery(r *http.Request) (attendance.DateWindow, error) {
	q := r.URL.Query()
	from, to := q.Get("from"), q.Get("to")
	if from == "" || to == "" {
		return attendance.DateWindow{}, fmt.Errorf("%w: from and to are required", attendance.ErrInvalidWindow)
	}
	start, err := timeutil.ParseDate(from)
	if err != nil {
		return attendance.DateWindow{}, fmt.Errorf("%w: %v", attendance.ErrInvalidWindow, err)
	}
	end, err := timeutil.ParseDate(to)
	if err != nil {
		return attendance.DateWindow{}, fmt.Errorf("%w: %v", attendance.ErrInvalidWindow, err)
	}
	return attendance.NewDateWindow(start, end)
}

// renderReport writes a report table as JSON, CSV or Excel per ?format=.
func (s *Server) renderReport(w http.ResponseWriter, r *http.Request, t *report.Table, basename string) {
	switch r.URL.Query().Get("format") {
	case "", "json":
		writeJSON(w, http.StatusOK, t)
	case "csv":
		data, err := export.CSV(*t)
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", basename+".csv"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	case "xlsx":
		data, err := export.Excel(*t)
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", basename+".xlsx"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	default:
		writeJSONError(w, http.StatusBadRequest, "bad_request", "format must be json, csv or xlsx")
	}
}

// reportError maps report/domain errors onto HTTP statuses.
func (s *Server) reportError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, attendance.ErrSessionNotFound):
		writeJSONError(w, http.StatusNotFound, "session_not_found", "No such attendance session")
	case errors.Is(err, attendance.ErrInvalidWindow):
		writeJSONError(w, http.StatusBadRequest, "invalid_window", err.Error())
	case errors.Is(err, roster.ErrUnavailable):
		writeJSONError(w, http.StatusNotFound, "roster_not_found", err.Error())
	case errors.Is(err, roster.ErrMalformed):
		writeJSONError(w, http.StatusUnprocessableEntity, "roster_malformed", err.Error())
	case errors.Is(err, attendance.ErrStorageUnavailable):
		writeJSONError(w, http.StatusServiceUnavailable, "storage_unavailable", "Attendance store is unavailable")
	default:
		s.serverError(w, r, err)
	}
}

// decodeJSON reads and validates a JSON request body. Returns false after
// writing the error response.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dest any) bool {
	body := io.LimitReader(r.Body, maxUploadBytes)
	if err := json.NewDecoder(body).Decode(dest); err != nil {
		writeJSONError(w, http.StatusBadRequest, "bad_request", "Malformed JSON body")
		return false
	}
	if err := validate.Struct(dest); err != nil {
		writeJSONError(w, http.StatusUnprocessableEntity, "validation_failed", err.Error())
		return false
	}
	return true
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("request failed",
		logger.String("path", r.URL.Path),
		logger.String("request_id", logger.RequestIDFrom(r.Context())),
		logger.Err(err),
	)
	writeJSONError(w, http.StatusInternalServerError, "internal_server_error", "An unexpected error occurred")
}
