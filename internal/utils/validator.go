package utils

import (
	"github.com/go-playground/validator/v10"

	"github.com/JosefMarie/usafi-barista-app-sub003/internal/models"
)

// NewValidator builds the shared validator with the domain's custom rules
// registered. Registration only fails on programmer error, so it panics.
func NewValidator() *validator.Validate {
	v := validator.New()

	must(v.RegisterValidation("question_kind", validateQuestionKind))
	must(v.RegisterValidation("user_role", validateUserRole))
	must(v.RegisterValidation("module_status", validateModuleStatus))
	must(v.RegisterValidation("study_variant", validateStudyVariant))

	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

func validateQuestionKind(fl validator.FieldLevel) bool {
	switch models.QuestionKind(fl.Field().String()) {
	case models.MultipleChoice, models.TrueFalse, models.FillIn, models.Matching:
		return true
	}
	return false
}

func validateUserRole(fl validator.FieldLevel) bool {
	switch models.UserRole(fl.Field().String()) {
	case models.RoleStudent, models.RoleTrainer, models.RoleAdmin:
		return true
	}
	return false
}

func validateModuleStatus(fl validator.FieldLevel) bool {
	switch models.ModuleStatus(fl.Field().String()) {
	case models.ModuleDraft, models.ModulePublished:
		return true
	}
	return false
}

func validateStudyVariant(fl validator.FieldLevel) bool {
	switch models.StudyVariant(fl.Field().String()) {
	case models.VariantFull, models.VariantSummary:
		return true
	}
	return false
}
