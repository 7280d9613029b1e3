package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"unimate/internal/app/commands"
	listingsapp "unimate/internal/app/handlers/listings"
	"unimate/internal/app/middleware"
	"unimate/internal/app/queries"
	"unimate/internal/app/uow"
	domainchats "unimate/internal/domain/chats"
	domainlistings "unimate/internal/domain/listings"
	domainpush "unimate/internal/domain/push"
	domainreviews "unimate/internal/domain/reviews"
	domainsaved "unimate/internal/domain/saved"
	"unimate/internal/domain/shared/media"
	"unimate/internal/domain/shared/money"
	"unimate/internal/infra/storage/s3"
)

var badRequestErrors = []error{
	domainchats.ErrSelfChat,
	domainchats.ErrEmptyMessage,
	domainlistings.ErrTitleRequired,
	domainlistings.ErrSellerRequired,
	domainlistings.ErrCategoryRequired,
	domainlistings.ErrCategoryNotFound,
	domainlistings.ErrInvalidCondition,
	domainlistings.ErrInvalidStock,
	domainlistings.ErrUnknownAttribute,
	domainlistings.ErrMediaURL,
	domainlistings.ErrTooManyImages,
	domainlistings.ErrTooManyVideos,
	listingsapp.ErrImageRequired,
	listingsapp.ErrStudentEmailRequired,
	domainreviews.ErrInvalidRating,
	domainpush.ErrInvalidSubscription,
	media.ErrUnsupportedType,
	media.ErrTooLarge,
	media.ErrEmpty,
	money.ErrInvalidCurrency,
	money.ErrNegativeAmount,
}

var forbiddenErrors = []error{
	domainlistings.ErrNotOwner,
	domainchats.ErrNotSeller,
	domainchats.ErrNotParticipant,
	domainreviews.ErrNotAuthor,
	domainreviews.ErrOwnListing,
}

var notFoundErrors = []error{
	domainlistings.ErrNotFound,
	domainlistings.ErrMediaNotFound,
	domainchats.ErrNotFound,
	domainreviews.ErrNotFound,
}

var conflictErrors = []error{
	domainchats.ErrDealExists,
	domainchats.ErrChatExists,
	domainsaved.ErrAlreadySaved,
}

func statusFor(err error) int {
	switch {
	case middleware.IsValidation(err), matchesAny(err, badRequestErrors):
		return http.StatusBadRequest
	case errors.Is(err, middleware.ErrUnauthenticated):
		return http.StatusUnauthorized
	case matchesAny(err, forbiddenErrors):
		return http.StatusForbidden
	case matchesAny(err, notFoundErrors):
		return http.StatusNotFound
	case matchesAny(err, conflictErrors):
		return http.StatusConflict
	case errors.Is(err, commands.ErrHandlerNotFound), errors.Is(err, queries.ErrHandlerNotFound),
		errors.Is(err, uow.ErrUnitOfWorkMissing), errors.Is(err, s3.ErrNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func matchesAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// respondError writes the mapped status. Server faults are logged and hidden
// behind a generic body; client faults echo the error text.
func respondError(c *gin.Context, logger *slog.Logger, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		if logger != nil {
			logger.Error(op+" failed", "status", status, "error", err)
		}
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	if logger != nil {
		logger.Debug(op+" rejected", "status", status, "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
