package http

import (
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"contact-keeper/internal/auth"
	"contact-keeper/internal/service"
)

var errInvalidBody = errors.New("invalid request body")

// respondError is the single place where error kinds become status codes.
func (h *Handler) respondError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"errors": verr.Fields})
	case errors.Is(err, errInvalidBody):
		c.JSON(http.StatusBadRequest, gin.H{"msg": errInvalidBody.Error()})
	case errors.Is(err, auth.ErrNoToken):
		c.JSON(http.StatusUnauthorized, gin.H{"msg": auth.ErrNoToken.Error()})
	case errors.Is(err, auth.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"msg": auth.ErrInvalidToken.Error()})
	case errors.Is(err, service.ErrContactNotFound):
		c.JSON(http.StatusNotFound, gin.H{"msg": service.ErrContactNotFound.Error()})
	case errors.Is(err, service.ErrNotAuthorized):
		c.JSON(h.opts.OwnershipStatus, gin.H{"msg": service.ErrNotAuthorized.Error()})
	case errors.Is(err, service.ErrUserAlreadyExists):
		c.JSON(http.StatusBadRequest, gin.H{"msg": service.ErrUserAlreadyExists.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"msg": service.ErrInvalidCredentials.Error()})
	case errors.Is(err, service.ErrExportsDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"msg": service.ErrExportsDisabled.Error()})
	default:
		h.log.WithError(err).WithField("path", c.Request.URL.Path).Error("unexpected failure")
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "server error"})
	}
}

// bindJSON decodes the body into req and runs its binding rules. Rule
// violations come back as *service.ValidationError using the msg tags of req.
// An empty body is validated as the zero value.
func bindJSON(c *gin.Context, req any) error {
	err := c.ShouldBindJSON(req)
	if errors.Is(err, io.EOF) {
		err = binding.Validator.ValidateStruct(req)
	}
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return toValidationError(req, verrs)
	}
	return errInvalidBody
}

func toValidationError(req any, verrs validator.ValidationErrors) *service.ValidationError {
	t := reflect.TypeOf(req)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	var out service.ValidationError
	seen := make(map[string]struct{}, len(verrs))
	for _, fe := range verrs {
		if _, dup := seen[fe.Field()]; dup {
			continue
		}
		seen[fe.Field()] = struct{}{}

		msg := fe.Field() + " is invalid"
		var value any = fe.Value()
		if sf, ok := t.FieldByName(fe.StructField()); ok {
			if m := sf.Tag.Get("msg"); m != "" {
				msg = m
			}
			if sf.Tag.Get("redact") == "true" {
				value = nil
			}
		}
		out.Add(fe.Field(), msg, value)
	}
	return &out
}

var jsonNamesOnce sync.Once

// useJSONFieldNames makes gin's validator report json names ("name") rather
// than Go field names ("Name").
func useJSONFieldNames() {
	jsonNamesOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
}
