package githubapi

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	rateLimitRemainingHeaderNameConstant    = "X-RateLimit-Remaining"
	rateLimitResetHeaderNameConstant        = "X-RateLimit-Reset"
	retryAfterHeaderNameConstant            = "Retry-After"
	rateLimitExhaustedMessageConstant       = "rate limit still exhausted after retry"
	secondaryLimitBodyMarkerConstant        = "secondary rate limit"
	abuseDetectionBodyMarkerConstant        = "abuse"
	rateLimitInspectionLimitBytesConstant   = 2048
	maximumRetryDelayConstant               = 5 * time.Minute
	defaultRetryDelayConstant               = time.Minute
	primaryLimitRetryWarnMessageConstant    = "rate limit exhausted, retrying once after delay"
	secondaryLimitWarnMessageConstant       = "secondary rate limit signal, continuing without retry"
	retryDelayLogFieldNameConstant          = "delay"
	requestURLLogFieldNameConstant          = "url"
	rateLimitRetryDrainErrorTemplate        = "unable to drain rate-limited response: %w"
	rateLimitBodyRewindErrorTemplateConst   = "unable to rewind request body for retry: %w"
	rateLimitStatusTooManyRequestsConstant  = http.StatusTooManyRequests
	rateLimitStatusForbiddenConstant        = http.StatusForbidden
	exhaustedRemainingHeaderValueConstant   = "0"
)

// ErrRateLimitExhausted indicates a request hit the primary rate limit twice.
var ErrRateLimitExhausted = errors.New(rateLimitExhaustedMessageConstant)

// throttlingRoundTripper enforces the client-side request rate and the
// quota-exhaustion retry policy: one retry after the server-specified delay
// for primary limits, warn-and-continue for secondary (abuse) signals.
type throttlingRoundTripper struct {
	logger    *zap.Logger
	delegate  http.RoundTripper
	limiter   *rate.Limiter
	sleepFunc func(time.Duration)
}

func newThrottlingRoundTripper(logger *zap.Logger, delegate http.RoundTripper, limiter *rate.Limiter) *throttlingRoundTripper {
	return &throttlingRoundTripper{
		logger:    logger,
		delegate:  delegate,
		limiter:   limiter,
		sleepFunc: time.Sleep,
	}
}

// RoundTrip implements http.RoundTripper.
func (transport *throttlingRoundTripper) RoundTrip(request *http.Request) (*http.Response, error) {
	retried := false

	for {
		if transport.limiter != nil {
			if waitError := transport.limiter.Wait(request.Context()); waitError != nil {
				return nil, waitError
			}
		}

		response, roundTripError := transport.delegate.RoundTrip(request)
		if roundTripError != nil {
			return nil, roundTripError
		}

		if !isRateLimitStatus(response.StatusCode) {
			return response, nil
		}

		secondarySignal, inspectedResponse, inspectionError := inspectForSecondaryLimit(response)
		if inspectionError != nil {
			return nil, inspectionError
		}
		response = inspectedResponse

		if secondarySignal {
			transport.logger.Warn(
				secondaryLimitWarnMessageConstant,
				zap.String(requestURLLogFieldNameConstant, request.URL.String()),
			)
			return response, nil
		}

		if !isPrimaryLimitResponse(response) {
			return response, nil
		}

		if retried {
			_ = response.Body.Close()
			return nil, fmt.Errorf("%s: %w", request.URL.String(), ErrRateLimitExhausted)
		}

		retryDelay := resolveRetryDelay(response)
		if _, drainError := io.Copy(io.Discard, response.Body); drainError != nil {
			return nil, fmt.Errorf(rateLimitRetryDrainErrorTemplate, drainError)
		}
		_ = response.Body.Close()

		if request.Body != nil {
			if request.GetBody == nil {
				// Cannot replay the body, surface the limited response path as exhausted.
				return nil, fmt.Errorf("%s: %w", request.URL.String(), ErrRateLimitExhausted)
			}
			rewoundBody, rewindError := request.GetBody()
			if rewindError != nil {
				return nil, fmt.Errorf(rateLimitBodyRewindErrorTemplateConst, rewindError)
			}
			request.Body = rewoundBody
		}

		transport.logger.Warn(
			primaryLimitRetryWarnMessageConstant,
			zap.String(requestURLLogFieldNameConstant, request.URL.String()),
			zap.Duration(retryDelayLogFieldNameConstant, retryDelay),
		)
		transport.sleepFunc(retryDelay)
		retried = true
	}
}

func isRateLimitStatus(statusCode int) bool {
	return statusCode == rateLimitStatusForbiddenConstant || statusCode == rateLimitStatusTooManyRequestsConstant
}

func isPrimaryLimitResponse(response *http.Response) bool {
	if response.Header.Get(rateLimitRemainingHeaderNameConstant) == exhaustedRemainingHeaderValueConstant {
		return true
	}
	return len(response.Header.Get(retryAfterHeaderNameConstant)) > 0
}

// inspectForSecondaryLimit peeks at the response body for abuse-detection
// markers and returns a response whose body still yields the full content.
func inspectForSecondaryLimit(response *http.Response) (bool, *http.Response, error) {
	bodyExcerpt, readError := io.ReadAll(io.LimitReader(response.Body, rateLimitInspectionLimitBytesConstant))
	if readError != nil {
		return false, nil, readError
	}

	remainingBody := response.Body
	response.Body = readerWithCloser{
		Reader: io.MultiReader(bytes.NewReader(bodyExcerpt), remainingBody),
		closer: remainingBody,
	}

	loweredExcerpt := strings.ToLower(string(bodyExcerpt))
	secondarySignal := strings.Contains(loweredExcerpt, secondaryLimitBodyMarkerConstant) ||
		strings.Contains(loweredExcerpt, abuseDetectionBodyMarkerConstant)

	return secondarySignal, response, nil
}

func resolveRetryDelay(response *http.Response) time.Duration {
	retryAfterValue := response.Header.Get(retryAfterHeaderNameConstant)
	if seconds, parseError := strconv.Atoi(strings.TrimSpace(retryAfterValue)); parseError == nil && seconds >= 0 {
		return clampRetryDelay(time.Duration(seconds) * time.Second)
	}

	resetValue := response.Header.Get(rateLimitResetHeaderNameConstant)
	if resetEpoch, parseError := strconv.ParseInt(strings.TrimSpace(resetValue), 10, 64); parseError == nil {
		untilReset := time.Until(time.Unix(resetEpoch, 0))
		if untilReset > 0 {
			return clampRetryDelay(untilReset)
		}
	}

	return defaultRetryDelayConstant
}

func clampRetryDelay(candidateDelay time.Duration) time.Duration {
	if candidateDelay > maximumRetryDelayConstant {
		return maximumRetryDelayConstant
	}
	if candidateDelay < 0 {
		return 0
	}
	return candidateDelay
}

type readerWithCloser struct {
	io.Reader
	closer io.Closer
}

func (wrapped readerWithCloser) Close() error {
	return wrapped.closer.Close()
}
