package service

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-console/internal/apiclient"
	"github.com/spec-kit/helpdesk-console/internal/clock"
	"github.com/spec-kit/helpdesk-console/internal/domain"
	"github.com/spec-kit/helpdesk-console/internal/events"
	"github.com/spec-kit/helpdesk-console/internal/query"
	apperrors "github.com/spec-kit/helpdesk-console/pkg/util/errorutil"
)

// Dependencies bundles what every service needs.
type Dependencies struct {
	API        *apiclient.Client
	Cache      *query.Client
	Dispatcher events.Dispatcher
	Notices    *NoticeService
	Clock      clock.Clock
	Logger     *zap.Logger
}

func (d Dependencies) withDefaults() Dependencies {
	if d.Clock == nil {
		d.Clock = clock.Real()
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Dispatcher == nil {
		d.Dispatcher = events.NewInMemoryDispatcher()
	}
	if d.Cache == nil {
		d.Cache = query.NewClient(query.NewMemoryStore(d.Clock), query.DefaultTTL, d.Logger)
	}
	return d
}

// NewValidator returns a validator that reports fields by their JSON name.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return v
}

var validate = NewValidator()

// validateInput converts validator failures into a VALIDATION_FAILED error
// whose details map each field to the rule it broke.
func validateInput(input any) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewInternalError(err)
	}
	fields := map[string]any{}
	for _, fe := range fieldErrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		fields[fieldPath(fe.Namespace())] = rule
	}
	return apperrors.NewValidationError("invalid input", map[string]any{"fields": fields})
}

// fieldPath drops the struct name validator prefixes to namespaces.
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		namespace = namespace[i+1:]
	}
	// Embedded structs add their type name as a path segment.
	parts := strings.Split(namespace, ".")
	return parts[len(parts)-1]
}

func fieldError(field, message string) error {
	return apperrors.NewValidationError(message, map[string]any{"fields": map[string]any{field: message}})
}

func requireSession(sess *domain.Session) error {
	if sess == nil || sess.UserID == "" {
		return apperrors.NewUnauthorized("session required")
	}
	return nil
}

func requireAdmin(sess *domain.Session) error {
	if err := requireSession(sess); err != nil {
		return err
	}
	if !sess.IsAdmin() {
		return apperrors.NewForbidden("admin role required")
	}
	return nil
}

func publishEvent(ctx context.Context, deps Dependencies, event events.Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = deps.Clock.Now().UTC()
	}
	if err := deps.Dispatcher.Publish(ctx, event); err != nil {
		deps.Logger.Warn("event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
	}
}

func invalidate(ctx context.Context, deps Dependencies, prefixes ...string) {
	if err := deps.Cache.Invalidate(ctx, prefixes...); err != nil {
		deps.Logger.Warn("cache invalidation failed", zap.Strings("prefixes", prefixes), zap.Error(err))
	}
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	runes := []rune(body)
	if len(runes) <= max {
		return body
	}
	return string(runes[:max]) + "..."
}
