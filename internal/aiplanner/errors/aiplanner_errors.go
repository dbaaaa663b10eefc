package aiplannererrors

import (
	"net/http"

	"go-skillmatrix/internal/shared/apperror"
)

var (
	ErrNoSkills       = apperror.Validation("No skills available in the system. Please create skills first.")
	ErrAnalysisFailed = apperror.New(apperror.CodeInternalError, "Failed to analyze project with AI. Please try again.", http.StatusInternalServerError)
)
