package friends

import (
	"errors"
	"net/http"

	"github.com/amityhq/amity/internal/httpx"
)

// statusTooManyRequests is the non-standard status the protocol uses for
// rate limited callers.
const statusTooManyRequests = 529

// Protocol errors carry a machine readable code alongside the HTTP status;
// peers switch on the code, humans read the message.

func errInvalidParameters() error {
	return httpx.KindError(http.StatusForbidden, "friends_invalid_parameters", errors.New("not all necessary parameters were provided"))
}

func errInvalidProof() error {
	return httpx.KindError(http.StatusForbidden, "friends_invalid_proof", errors.New("an invalid proof was provided"))
}

func errInvalidSecret() error {
	return httpx.KindError(http.StatusForbidden, "friends_invalid_pre_shared_secret", errors.New("an invalid pre shared secret was provided"))
}

func errInvalidSite() error {
	return httpx.KindError(http.StatusForbidden, "friends_invalid_site", errors.New("an invalid site was provided"))
}

func errUnknownRequest() error {
	return httpx.KindError(http.StatusForbidden, "friends_unknown_request", errors.New("the other party is unknown"))
}

func errOfferNoLongerValid() error {
	return httpx.KindError(http.StatusForbidden, "friends_offer_no_longer_valid", errors.New("the friendship offer is no longer valid"))
}

// errRequestFailed is the uniform answer to any bad bearer token. It does
// not distinguish unknown from wrong tokens, to avoid a guessing oracle.
func errRequestFailed() error {
	return httpx.KindError(http.StatusForbidden, "friends_request_failed", errors.New("could not respond to the request"))
}

func errTooManyRequests() error {
	return httpx.KindError(statusTooManyRequests, "too_many_requests", errors.New("too many requests were sent"))
}

func errForbidden() error {
	return httpx.KindError(http.StatusUnauthorized, "rest_forbidden", errors.New("sorry, you are not allowed to do that"))
}
