package server

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	ferrors "github.com/randalmurphal/flowise-mcp/pkg/flowise/errors"
)

// Response formats accepted by tools.
const (
	formatMarkdown = "markdown"
	formatJSON     = "json"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
}

// defaulter is implemented by inputs with non-zero defaults.
type defaulter interface {
	setDefaults()
}

type formatted struct {
	ResponseFormat string `json:"response_format" validate:"oneof=markdown json"`
}

func (f *formatted) setDefaults() { f.ResponseFormat = formatMarkdown }

func (f formatted) wantsJSON() bool { return f.ResponseFormat == formatJSON }

type listFlowsInput struct {
	FlowType string `json:"flow_type" validate:"omitempty,oneof=CHATFLOW AGENTFLOW"`
	formatted
}

type getFlowInput struct {
	FlowID string `json:"flow_id" validate:"required"`
	formatted
}

type predictInput struct {
	FlowID         string         `json:"flow_id" validate:"required"`
	Question       string         `json:"question" validate:"required"`
	SessionID      string         `json:"session_id"`
	Streaming      bool           `json:"streaming"`
	OverrideConfig map[string]any `json:"override_config"`
}

type analyzeFlowInput struct {
	FlowID          string `json:"flow_id" validate:"required"`
	ImprovementGoal string `json:"improvement_goal"`
	formatted
}

type createFlowInput struct {
	Name     string `json:"name" validate:"required,max=200"`
	FlowData string `json:"flow_data" validate:"required,json"`
	FlowType string `json:"flow_type" validate:"oneof=CHATFLOW AGENTFLOW"`
	IsPublic bool   `json:"is_public"`
	Category string `json:"category"`
}

func (in *createFlowInput) setDefaults() { in.FlowType = "CHATFLOW" }

type updateFlowInput struct {
	FlowID   string  `json:"flow_id" validate:"required"`
	Name     *string `json:"name"`
	FlowData *string `json:"flow_data" validate:"omitempty,json"`
	IsPublic *bool   `json:"is_public"`
	Category *string `json:"category"`
}

type deleteFlowInput struct {
	FlowID string `json:"flow_id" validate:"required"`
}

type chatHistoryInput struct {
	FlowID    string `json:"flow_id" validate:"required"`
	SessionID string `json:"session_id"`
	Limit     int    `json:"limit" validate:"min=1,max=500"`
	formatted
}

func (in *chatHistoryInput) setDefaults() {
	in.Limit = 50
	in.formatted.setDefaults()
}

type deleteChatHistoryInput struct {
	FlowID    string `json:"flow_id" validate:"required"`
	SessionID string `json:"session_id"`
	ChatID    string `json:"chat_id"`
}

type listInput struct {
	formatted
}

type getAssistantInput struct {
	AssistantID string `json:"assistant_id" validate:"required"`
	formatted
}

type getDocumentStoreInput struct {
	StoreID string `json:"store_id" validate:"required"`
	formatted
}

type upsertVectorInput struct {
	FlowID         string         `json:"flow_id" validate:"required"`
	OverrideConfig map[string]any `json:"override_config"`
	StopNodeID     string         `json:"stop_node_id"`
}

type queryVectorStoreInput struct {
	StoreID string `json:"store_id" validate:"required"`
	Query   string `json:"query" validate:"required"`
}

type pingInput struct{}

// bind decodes tool arguments into in, applying defaults first and trimming
// surrounding whitespace from every string argument.
func bind(args map[string]any, in any) error {
	if d, ok := in.(defaulter); ok {
		d.setDefaults()
	}
	if len(args) > 0 {
		trimmed := make(map[string]any, len(args))
		for k, v := range args {
			if s, ok := v.(string); ok {
				v = strings.TrimSpace(s)
			}
			trimmed[k] = v
		}
		data, err := json.Marshal(trimmed)
		if err != nil {
			return ferrors.InvalidInput("", "invalid arguments: %v", err)
		}
		if err := json.Unmarshal(data, in); err != nil {
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &typeErr) && typeErr.Field != "" {
				return ferrors.InvalidInput(typeErr.Field, "%s must be of type %s", typeErr.Field, typeErr.Type)
			}
			return ferrors.InvalidInput("", "invalid arguments: %v", err)
		}
	}
	if err := validate.Struct(in); err != nil {
		return inputError(err)
	}
	return nil
}

// inputError renders the first validation failure as an InputError.
func inputError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return ferrors.InvalidInput("", "%v", err)
	}
	fe := verrs[0]
	field := fe.Field()

	switch fe.Tag() {
	case "required":
		return ferrors.InvalidInput(field, "%s is required", field)
	case "json":
		return ferrors.InvalidInput(field, "%s must be a valid JSON string", field)
	case "oneof":
		return ferrors.InvalidInput(field, "%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "min", "max":
		bound := "at least"
		if fe.Tag() == "max" {
			bound = "at most"
		}
		if fe.Kind() == reflect.String {
			return ferrors.InvalidInput(field, "%s must be %s %s characters", field, bound, fe.Param())
		}
		return ferrors.InvalidInput(field, "%s must be %s %s", field, bound, fe.Param())
	default:
		return ferrors.InvalidInput(field, "%s failed %q validation", field, fe.Tag())
	}
}
