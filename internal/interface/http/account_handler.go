package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-account-service/internal/application"
	"github.com/oksasatya/go-account-service/internal/domain/entity"
	repo "github.com/oksasatya/go-account-service/internal/domain/repository"
	"github.com/oksasatya/go-account-service/internal/interface/middleware"
	"github.com/oksasatya/go-account-service/pkg/response"
	"github.com/oksasatya/go-account-service/pkg/validation"
)

// AvatarField is the multipart field carrying the avatar image.
const AvatarField = "files"

type AccountService interface {
	Register(ctx context.Context, in application.RegisterInput) (string, error)
	Verify(ctx context.Context, token string) error
	Login(ctx context.Context, email, password string) (*application.LoginResult, error)
	Logout(ctx context.Context, accountID string) error
	Refresh(ctx context.Context, accountID string) (entity.AccountView, error)
	Update(ctx context.Context, accountID string, patch repo.AccountPatch, upload *application.AvatarUpload) (entity.AccountView, error)
	Search(ctx context.Context, q string, size int) ([]entity.AccountView, error)
}

type AccountHandler struct {
	Svc            AccountService
	Logger         *logrus.Logger
	MaxUploadBytes int64
}

func NewAccountHandler(svc AccountService, logger *logrus.Logger, maxUploadBytes int64) *AccountHandler {
	validation.Init()
	return &AccountHandler{Svc: svc, Logger: logger, MaxUploadBytes: maxUploadBytes}
}

type registerRequest struct {
	Email    string  `json:"email" binding:"required,email"`
	Password string  `json:"password" binding:"required,pwd"`
	Name     *string `json:"name" binding:"omitempty,profile"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// updateRequest is validated after presence has been recorded separately.
type updateRequest struct {
	Name        *string `json:"name" binding:"omitempty,profile"`
	PhoneNumber *string `json:"phone_number" binding:"omitempty,phone"`
	LinkedIn    *string `json:"linkedin" binding:"omitempty,profile"`
	GitHub      *string `json:"github" binding:"omitempty,profile"`
}

var statusByKind = map[application.ErrorKind]int{
	application.KindConflict:         http.StatusConflict,
	application.KindUnauthorized:     http.StatusUnauthorized,
	application.KindNotFound:         http.StatusNotFound,
	application.KindBadRequest:       http.StatusBadRequest,
	application.KindUnsupportedMedia: http.StatusUnsupportedMediaType,
	application.KindInvalidArgument:  http.StatusBadRequest,
	application.KindStorageFailure:   http.StatusInternalServerError,
	application.KindInternal:         http.StatusInternalServerError,
}

func (h *AccountHandler) fail(c *gin.Context, err error) {
	kind := application.KindOf(err)
	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	if status >= http.StatusInternalServerError {
		h.Logger.WithError(err).WithFields(logrus.Fields{
			"request_id": middleware.RequestIDFrom(c),
			"kind":       kind,
		}).Error("request failed")
		msg := "internal server error"
		if kind == application.KindStorageFailure {
			msg = "failed to store avatar"
		}
		response.Fail(c, status, msg, nil)
		return
	}
	response.Fail(c, status, err.Error(), nil)
}

func (h *AccountHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if _, err := h.Svc.Register(c.Request.Context(), application.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	}); err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, http.StatusCreated, gin.H{"email": application.NormalizeEmail(req.Email)}, "registered, check your email to verify the account")
}

func (h *AccountHandler) Activate(c *gin.Context) {
	if err := h.Svc.Verify(c.Request.Context(), c.Param("token")); err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"message": "Email verified!"}, "Email verified!")
}

func (h *AccountHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	res, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, res, "login successful")
}

func (h *AccountHandler) Logout(c *gin.Context) {
	acc, ok := middleware.AccountFrom(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	if err := h.Svc.Logout(c.Request.Context(), acc.ID); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AccountHandler) Current(c *gin.Context) {
	acc, ok := middleware.AccountFrom(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	v, err := h.Svc.Refresh(c.Request.Context(), acc.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, v, "current account")
}

// Update accepts multipart/form-data (profile fields plus an optional image
// under AvatarField) or a JSON object. A field sent empty or null is cleared.
func (h *AccountHandler) Update(c *gin.Context) {
	acc, ok := middleware.AccountFrom(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	if c.Param("id") != acc.ID {
		response.Fail(c, http.StatusForbidden, "cannot update another account", nil)
		return
	}
	if h.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)
	}

	var (
		fields map[string]*string
		upload *application.AvatarUpload
		err    error
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fields, upload, err = h.readMultipart(c)
	} else {
		fields, err = readJSONFields(c.Request.Body)
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Fail(c, http.StatusBadRequest, "request body too large", nil)
			return
		}
		response.Fail(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	patch, err := buildPatch(fields)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	v, err := h.Svc.Update(c.Request.Context(), acc.ID, patch, upload)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, v, "account updated")
}

var profileFields = []string{"name", "phone_number", "linkedin", "github"}

func (h *AccountHandler) readMultipart(c *gin.Context) (map[string]*string, *application.AvatarUpload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil, err
	}
	fields := make(map[string]*string)
	for _, k := range profileFields {
		if vals, ok := form.Value[k]; ok && len(vals) > 0 {
			v := vals[0]
			fields[k] = &v
		}
	}
	files := form.File[AvatarField]
	if len(files) == 0 {
		return fields, nil, nil
	}
	up, err := readUpload(files[0])
	if err != nil {
		return nil, nil, err
	}
	return fields, up, nil
}

func readUpload(fh *multipart.FileHeader) (*application.AvatarUpload, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	// The declared type is authoritative; it is sniffed only when the part declares none.
	ct := fh.Header.Get("Content-Type")
	if ct == "" {
		ct = http.DetectContentType(data)
	}
	return &application.AvatarUpload{ContentType: ct, Data: data}, nil
}

// readJSONFields keeps only profile keys; a key mapped to null is present with a nil value.
func readJSONFields(r io.Reader) (map[string]*string, error) {
	raw := map[string]*string{}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]*string{}, nil
		}
		return nil, err
	}
	fields := make(map[string]*string)
	for _, k := range profileFields {
		if v, ok := raw[k]; ok {
			fields[k] = v
		}
	}
	return fields, nil
}

func buildPatch(fields map[string]*string) (repo.AccountPatch, error) {
	norm := func(v *string) *string {
		if v == nil {
			return nil
		}
		s := strings.TrimSpace(*v)
		if s == "" {
			return nil
		}
		return &s
	}
	req := updateRequest{
		Name:        norm(fields["name"]),
		PhoneNumber: norm(fields["phone_number"]),
		LinkedIn:    norm(fields["linkedin"]),
		GitHub:      norm(fields["github"]),
	}
	if err := binding.Validator.ValidateStruct(&req); err != nil {
		return repo.AccountPatch{}, err
	}

	var p repo.AccountPatch
	if _, ok := fields["name"]; ok {
		p.Name = repo.Some(req.Name)
	}
	if _, ok := fields["phone_number"]; ok {
		p.PhoneNumber = repo.Some(req.PhoneNumber)
	}
	if _, ok := fields["linkedin"]; ok {
		p.LinkedIn = repo.Some(req.LinkedIn)
	}
	if _, ok := fields["github"]; ok {
		p.GitHub = repo.Some(req.GitHub)
	}
	return p, nil
}

func (h *AccountHandler) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		response.Fail(c, http.StatusBadRequest, "invalid payload", map[string]string{"q": "is required"})
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	hits, err := h.Svc.Search(c.Request.Context(), q, size)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(c, http.StatusOK, hits, "search results", gin.H{"count": len(hits)}))
}
