package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"airwatch/internal/bootstrap/logging"
	"airwatch/internal/bootstrap/probes"
	"airwatch/internal/domain/aq"
	"airwatch/internal/errs"
	"airwatch/internal/ports"
	"airwatch/internal/usecase/accounts"
	"airwatch/internal/usecase/ingest"
	"airwatch/internal/usecase/jobs"
)

// Handler holds the services shared across all HTTP handlers.
type Handler struct {
	accounts *accounts.Service
	ingest   *ingest.Service
	jobs     *jobs.Service
	checks   []probes.Probe
}

func NewHandler(
	accountsSvc *accounts.Service,
	ingestSvc *ingest.Service,
	jobsSvc *jobs.Service,
	checks []probes.Probe,
) *Handler {
	return &Handler{
		accounts: accountsSvc,
		ingest:   ingestSvc,
		jobs:     jobsSvc,
		checks:   checks,
	}
}

// Health handles GET /health. Always 200; this is the liveness probe.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// DeepHealth handles GET /health/deep. It re-runs the dependency probes and
// returns 200 only when every probe passes.
func (h *Handler) DeepHealth(c *gin.Context) {
	results := probes.RunAll(c.Request.Context(), h.checks)

	code := http.StatusOK
	status := "healthy"
	if !probes.Healthy(results) {
		code = http.StatusServiceUnavailable
		status = "unhealthy"
	}
	c.JSON(code, gin.H{
		"status":       status,
		"dependencies": results,
	})
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID        uint64    `json:"id"`
	Email     string    `json:"email"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(user ports.User) userResponse {
	return userResponse{
		ID:        user.ID,
		Email:     user.Email,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt,
	}
}

// CreateUser handles POST /api/v1/users.
func (h *Handler) CreateUser(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, err := h.accounts.Register(c.Request.Context(), accounts.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toUserResponse(user))
}

// Login handles POST /api/v1/users/login. It verifies credentials and
// returns the account; inactive accounts are rejected.
func (h *Handler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, err := h.accounts.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

type readingPayload struct {
	SensorID    string    `json:"sensor_id"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	MeasuredAt  time.Time `json:"measured_at"`
	PM25        *float64  `json:"pm25,omitempty"`
	PM10        *float64  `json:"pm10,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
	Humidity    *float64  `json:"humidity,omitempty"`
	Pressure    *float64  `json:"pressure,omitempty"`
	Source      string    `json:"source"`
	Metadata    string    `json:"metadata,omitempty"`
}

func (p readingPayload) toDomain() aq.Reading {
	return aq.Reading{
		SensorID:    p.SensorID,
		Latitude:    p.Latitude,
		Longitude:   p.Longitude,
		MeasuredAt:  p.MeasuredAt,
		PM25:        p.PM25,
		PM10:        p.PM10,
		Temperature: p.Temperature,
		Humidity:    p.Humidity,
		Pressure:    p.Pressure,
		Source:      p.Source,
		Metadata:    p.Metadata,
	}
}

type storedReadingResponse struct {
	readingPayload
	ID        uint64    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

func toReadingResponse(stored ports.StoredReading) storedReadingResponse {
	return storedReadingResponse{
		readingPayload: readingPayload{
			SensorID:    stored.SensorID,
			Latitude:    stored.Latitude,
			Longitude:   stored.Longitude,
			MeasuredAt:  stored.MeasuredAt,
			PM25:        stored.PM25,
			PM10:        stored.PM10,
			Temperature: stored.Temperature,
			Humidity:    stored.Humidity,
			Pressure:    stored.Pressure,
			Source:      stored.Source,
			Metadata:    stored.Metadata,
		},
		ID:        stored.ID,
		CreatedAt: stored.CreatedAt,
	}
}

// IngestReadings handles POST /api/v1/readings. The body is either one
// reading object or an array; the whole batch is rejected on the first
// invalid reading.
func (h *Handler) IngestReadings(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read request body"})
		return
	}

	var batch []readingPayload
	if err := json.Unmarshal(raw, &batch); err != nil {
		var single readingPayload
		if err := json.Unmarshal(raw, &single); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		batch = []readingPayload{single}
	}

	readings := make([]aq.Reading, 0, len(batch))
	for _, payload := range batch {
		readings = append(readings, payload.toDomain())
	}

	count, err := h.ingest.AddReadings(c.Request.Context(), readings)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ingested": count})
}

// QueryReadings handles GET /api/v1/readings.
func (h *Handler) QueryReadings(c *gin.Context) {
	filter := ports.ReadingFilter{
		SensorIDs: c.QueryArray("sensor_id"),
		Sources:   c.QueryArray("source"),
	}

	var err error
	if filter.Start, err = timeQuery(c, "start"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if filter.End, err = timeQuery(c, "end"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if raw := c.Query("bbox"); raw != "" {
		box, err := aq.ParseBoundingBox(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		filter.BBox = &box
	}
	if filter.Limit, err = intQuery(c, "limit"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	stored, err := h.ingest.Query(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	out := make([]storedReadingResponse, 0, len(stored))
	for _, reading := range stored {
		out = append(out, toReadingResponse(reading))
	}
	c.JSON(http.StatusOK, gin.H{"readings": out})
}

// LatestReading handles GET /api/v1/readings/latest?sensor_id=…
func (h *Handler) LatestReading(c *gin.Context) {
	sensorID := c.Query("sensor_id")
	if sensorID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sensor_id is required"})
		return
	}

	latest, err := h.ingest.Latest(c.Request.Context(), sensorID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReadingResponse(latest))
}

type granulePayload struct {
	ProductID  string    `json:"product_id"`
	GranuleID  string    `json:"granule_id"`
	AcquiredAt time.Time `json:"acquired_at"`
	BBox       string    `json:"bbox"`
	FilePath   string    `json:"file_path,omitempty"`
	Metadata   string    `json:"metadata,omitempty"`
}

type granuleResponse struct {
	granulePayload
	ID        uint64    `json:"id"`
	Processed bool      `json:"processed"`
	CreatedAt time.Time `json:"created_at"`
}

func toGranuleResponse(stored ports.StoredGranule) granuleResponse {
	return granuleResponse{
		granulePayload: granulePayload{
			ProductID:  stored.ProductID,
			GranuleID:  stored.GranuleID,
			AcquiredAt: stored.AcquiredAt,
			BBox:       stored.Bounds.String(),
			FilePath:   stored.FilePath,
			Metadata:   stored.Metadata,
		},
		ID:        stored.ID,
		Processed: stored.Processed,
		CreatedAt: stored.CreatedAt,
	}
}

// RegisterGranule handles POST /api/v1/granules.
func (h *Handler) RegisterGranule(c *gin.Context) {
	var req granulePayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	bounds, err := aq.ParseBoundingBox(req.BBox)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	stored, err := h.ingest.RegisterGranule(c.Request.Context(), aq.Granule{
		ProductID:  req.ProductID,
		GranuleID:  req.GranuleID,
		AcquiredAt: req.AcquiredAt,
		Bounds:     bounds,
		FilePath:   req.FilePath,
		Metadata:   req.Metadata,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toGranuleResponse(stored))
}

// ListGranules handles GET /api/v1/granules.
func (h *Handler) ListGranules(c *gin.Context) {
	filter := ports.GranuleFilter{ProductID: c.Query("product_id")}

	if raw := c.Query("processed"); raw != "" {
		processed, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "processed must be a boolean"})
			return
		}
		filter.Processed = &processed
	}
	var err error
	if filter.Limit, err = intQuery(c, "limit"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	stored, err := h.ingest.ListGranules(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	out := make([]granuleResponse, 0, len(stored))
	for _, granule := range stored {
		out = append(out, toGranuleResponse(granule))
	}
	c.JSON(http.StatusOK, gin.H{"granules": out})
}

// MarkGranuleProcessed handles POST /api/v1/granules/:granuleID/processed.
func (h *Handler) MarkGranuleProcessed(c *gin.Context) {
	if err := h.ingest.MarkGranuleProcessed(c.Request.Context(), c.Param("granuleID")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type submitJobRequest struct {
	JobType    string           `json:"job_type"`
	Parameters jobParamsPayload `json:"parameters"`
}

type jobParamsPayload struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	BBox      string    `json:"bbox,omitempty"`
	SensorIDs []string  `json:"sensor_ids,omitempty"`
}

type jobResponse struct {
	JobID       string     `json:"job_id"`
	JobType     string     `json:"job_type"`
	Status      string     `json:"status"`
	Parameters  string     `json:"parameters"`
	ResultPath  *string    `json:"result_path,omitempty"`
	Error       *string    `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func toJobResponse(job ports.Job) jobResponse {
	return jobResponse{
		JobID:       job.JobID,
		JobType:     job.JobType,
		Status:      job.Status,
		Parameters:  job.Parameters,
		ResultPath:  job.ResultPath,
		Error:       job.Error,
		CreatedAt:   job.CreatedAt,
		CompletedAt: job.CompletedAt,
	}
}

// SubmitJob handles POST /api/v1/jobs. Accepted jobs return 202; the worker
// picks them up asynchronously.
func (h *Handler) SubmitJob(c *gin.Context) {
	var req submitJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	params := aq.JobParameters{
		Start:     req.Parameters.Start,
		End:       req.Parameters.End,
		SensorIDs: req.Parameters.SensorIDs,
	}
	if req.Parameters.BBox != "" {
		box, err := aq.ParseBoundingBox(req.Parameters.BBox)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		params.BBox = &box
	}

	job, err := h.jobs.Submit(c.Request.Context(), jobs.SubmitInput{
		JobType:    req.JobType,
		Parameters: params,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, toJobResponse(job))
}

// GetJob handles GET /api/v1/jobs/:jobID.
func (h *Handler) GetJob(c *gin.Context) {
	job, err := h.jobs.Get(c.Request.Context(), c.Param("jobID"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toJobResponse(job))
}

// ListJobs handles GET /api/v1/jobs.
func (h *Handler) ListJobs(c *gin.Context) {
	filter := ports.JobFilter{
		Status:  c.Query("status"),
		JobType: c.Query("job_type"),
	}
	var err error
	if filter.Limit, err = intQuery(c, "limit"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	listed, err := h.jobs.List(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	out := make([]jobResponse, 0, len(listed))
	for _, job := range listed {
		out = append(out, toJobResponse(job))
	}
	c.JSON(http.StatusOK, gin.H{"jobs": out})
}

// CancelJob handles POST /api/v1/jobs/:jobID/cancel.
func (h *Handler) CancelJob(c *gin.Context) {
	job, err := h.jobs.Cancel(c.Request.Context(), c.Param("jobID"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toJobResponse(job))
}

var badRequestErrors = []error{
	aq.ErrInvalidSource,
	aq.ErrInvalidCoordinates,
	aq.ErrNegativeConcentration,
	aq.ErrSensorIDRequired,
	aq.ErrMeasuredAtRequired,
	aq.ErrInvalidBoundingBox,
	aq.ErrGranuleIDRequired,
	aq.ErrProductIDRequired,
	aq.ErrInvalidJobType,
	aq.ErrInvalidJobStatus,
	aq.ErrInvalidWindow,
	accounts.ErrInvalidEmail,
	accounts.ErrWeakPassword,
	jobs.ErrJobTypeDisabled,
}

var notFoundErrors = []error{
	ports.ErrUserNotFound,
	ports.ErrReadingNotFound,
	ports.ErrGranuleNotFound,
	ports.ErrJobNotFound,
}

var conflictErrors = []error{
	ports.ErrDuplicateEmail,
	ports.ErrDuplicateGranule,
	ports.ErrDuplicateJobID,
	ports.ErrJobStatusConflict,
}

func statusForError(err error) int {
	switch {
	case matchesAny(err, badRequestErrors):
		return http.StatusBadRequest
	case matchesAny(err, notFoundErrors):
		return http.StatusNotFound
	case matchesAny(err, conflictErrors):
		return http.StatusConflict
	case errors.Is(err, accounts.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, accounts.ErrAccountInactive):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func matchesAny(err error, sentinels []error) bool {
	for _, sentinel := range sentinels {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

func (h *Handler) respondError(c *gin.Context, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		logging.Error(c.Request.Context(), "request failed",
			slog.String("path", c.Request.URL.Path),
			slog.Any("err", errs.Loggable(err)),
		)
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func timeQuery(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, errors.New(name + " must be RFC 3339")
	}
	return &parsed, nil
}

func intQuery(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, errors.New(name + " must be a non-negative integer")
	}
	return value, nil
}
