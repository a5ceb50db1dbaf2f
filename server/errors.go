// Copyright 2018 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/googlegenomics/fastadb/faidx"
	"github.com/googlegenomics/fastadb/genomics"
	"github.com/googlegenomics/fastadb/internal/analytics"
	"github.com/googlegenomics/fastadb/pileup"
	"github.com/googlegenomics/fastadb/regionstats"
	"github.com/googlegenomics/fastadb/storage"
)

type apiError struct {
	name  string
	code  int
	cause error
}

func (err *apiError) Error() string {
	return fmt.Sprintf("%s (%d): %v", err.name, err.code, err.cause)
}

func (err *apiError) Unwrap() error {
	return err.cause
}

func newAPIError(name string, code int, context string, err error) *apiError {
	return &apiError{name, code, fmt.Errorf("%s: %w", context, err)}
}

func newInvalidInputError(context string, err error) *apiError {
	return newAPIError("InvalidInput", http.StatusBadRequest, context, err)
}

func newInvalidRangeError(context string, err error) *apiError {
	return newAPIError("InvalidRange", http.StatusBadRequest, context, err)
}

func newNotFoundError(context string, err error) *apiError {
	return newAPIError("NotFound", http.StatusNotFound, context, err)
}

func newPermissionDeniedError(context string, err error) *apiError {
	return newAPIError("PermissionDenied", http.StatusForbidden, context, err)
}

func newInternalError(context string, err error) *apiError {
	return newAPIError("InternalError", http.StatusInternalServerError, context, err)
}

// classify maps errors from the store, the stats engine and the pileup
// decoder to API errors.
func classify(context string, err error) *apiError {
	var (
		apiErr     *apiError
		format     *genomics.FormatError
		syntax     *pileup.SyntaxError
		degenerate *regionstats.DegenerateRegionError
		outOfRange *regionstats.OutOfRangeError
		short      *regionstats.ShortReferenceError
	)
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.As(err, &format), errors.As(err, &syntax), errors.As(err, &outOfRange):
		return newInvalidInputError(context, err)
	case errors.Is(err, genomics.ErrNotFound), errors.Is(err, storage.ErrNotExist):
		return newNotFoundError(context, err)
	case errors.Is(err, faidx.ErrOutOfBounds), errors.As(err, &degenerate), errors.As(err, &short):
		return newInvalidRangeError(context, err)
	case errors.Is(err, storage.ErrPermissionDenied):
		return newPermissionDeniedError(context, err)
	}
	return newInternalError(context, err)
}

func writeError(c *gin.Context, context string, err error) {
	apiErr := classify(context, err)
	analytics.Track(c, analytics.Event("Errors", apiErr.name, "", nil))
	log.WithFields(log.Fields{
		"request_id": c.GetString(requestIDKey),
		"error":      apiErr.name,
	}).Warn(apiErr.cause)

	c.AbortWithStatusJSON(apiErr.code, gin.H{
		"error":   apiErr.name,
		"message": apiErr.cause.Error(),
	})
}
